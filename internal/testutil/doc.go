// Package testutil contains helper builders and fakes used across tests to
// reduce boilerplate when constructing agent responses and driving scripted
// conversations. They are not intended for production usage.
package testutil

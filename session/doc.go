// Package session records society runs as they happen.
//
// A Store is a society.Observer: pass it to society.Run (or combine it with
// other observers through society.MultiObserver) and every run becomes a
// Session holding the task, each round and the final result. Keeping storage
// behind the Store interface lets callers swap the in-memory backend for a
// durable one without touching the run code.
package session

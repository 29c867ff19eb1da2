// Package runner turns a free-form request into a finished society run.
//
// A Runner owns the pieces around a Society that a caller would otherwise
// wire by hand:
//   - an optional clarifier step that rewrites the request into a structured task
//   - the tool provider lifecycle (connect before, disconnect after)
//   - model construction per role through a ModelFactory
//   - round limits, sentinels and observers for society.Run
//
// Run processes a single query. RunBatch processes many queries in parallel,
// each with its own Society, sharing one connected tool provider.
package runner

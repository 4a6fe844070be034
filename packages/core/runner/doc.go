// Package runner sends request documents through the executor.
//
// It provides functionality for:
//   - Building requests from documents with a shared resolver
//   - Concurrent execution with a bounded number of calls in flight
//   - Optional rate limiting across all calls
//   - Repeating each document and summarizing latency percentiles
//
// Results are returned in input order regardless of completion order.
package runner

// Package capture extracts single values from responses.
//
// An expression names where the value comes from:
//   - status, duration
//   - header.<Name> (case-insensitive)
//   - body, or body.<gjson path>
//   - any other expression is a gjson path into the body
package capture

// Package output renders responses and run summaries.
//
// Supported formats:
//   - console: colored status line, optional headers, pretty-printed body
//   - json: one machine-readable document written on Flush
//
// Both formats accept a gjson path to print only part of a JSON body.
package output

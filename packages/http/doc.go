// Package http executes declarative HTTP requests and normalizes the results.
//
// Each call to Executor.Execute:
//   - Validates the method as an HTTP token
//   - Builds a transport private to the call (redirect and TLS policy)
//   - Attaches the valid headers, silently skipping malformed ones
//   - Encodes the body (raw, urlencoded or multipart form data)
//   - Returns a Response with flattened headers and a text body
//
// Failures are reported as *Error values carrying an ErrorKind.
package http

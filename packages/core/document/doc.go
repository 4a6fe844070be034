// Package document loads request documents and builds executor requests
// from them.
//
// A document is a YAML (or JSON) file describing one request the way a user
// composes it: URL with query params, headers, an auth scheme, a body and
// transport settings. Files may hold several documents separated by "---".
package document

// Package cmd implements the sendhttp CLI commands using Cobra.
//
// Available commands:
//   - send: Send the requests described by YAML/JSON request documents
//   - exec: Execute one request payload read as JSON and print the response as JSON
//   - import curl: Convert curl commands to request documents
//   - completion: Generate shell completion scripts
//   - version: Show sendhttp version information
//
// Configuration comes from .sendhttp.yaml, SENDHTTP_* environment variables
// and flags, in increasing order of precedence.
package cmd

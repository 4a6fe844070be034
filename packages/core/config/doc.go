// Package config handles configuration loading and management for sendhttp.
//
// Values are layered, later layers winning:
//   - Built-in defaults
//   - A .sendhttp.yaml, .sendhttp.yml or .sendhttp.json file
//   - SENDHTTP_* environment variables (after loading the .env file)
//   - Explicit overrides from CLI flags
package config

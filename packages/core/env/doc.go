// Package env resolves {{name}} templates in request documents.
//
// Values come from, in order of precedence:
//   - Variables set on the resolver (document variables, --var flags)
//   - A .env file loaded with LoadDotEnv
//   - The process environment, referenced as {{$NAME}}
//
// Template functions such as {{uuid()}} and {{base64(user:pass)}} are also
// available.
package env

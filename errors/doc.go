// Package errors provides the structured error type used at livepage's HTTP
// boundary: machine-readable codes, HTTP status mapping, and retryable
// detection. The page core never returns these; they describe request-level
// failures only.
package errors

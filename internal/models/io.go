// Package models provides the core data structures for handling routing requests and responses.
package models

// Request represents an incoming client request containing a method, a body and associated headers.
// Header keys are lower-cased and carry the first value received for each name.
type Request struct {
	Method  string
	Body    string
	Headers map[string]string
}

// Response defines the structure for an HTTP response containing a body, headers, and a status code.
type Response struct {
	Body       string
	Headers    map[string]string
	StatusCode int
}

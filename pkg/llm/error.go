// Package llm provides the internal representation of chat messages and the
// contract a completion provider implements.
package llm

// ErrorResponse is the JSON body returned by HTTP surfaces on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

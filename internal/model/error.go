package model

// ErrorResponse is the consistent JSON structure for all API error responses.
// Operation failures are always reported as human-readable text, never as
// structured fault codes the client would have to interpret.
type ErrorResponse struct {
	Error string `json:"error"`
}

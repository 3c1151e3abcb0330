// Package web provides the HTTP handlers and request types for the run API.
package web

// CreateRunRequest is the request body for submitting a new run.
type CreateRunRequest struct {
	NodeType string         `json:"node_type"        validate:"required"`
	Inputs   map[string]any `json:"inputs,omitempty"`
}

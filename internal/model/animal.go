// Package model defines domain entities for the application.
package model

// Animal represents a single resident of the jungle.
type Animal struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Species string `json:"species"`
	Age     int    `json:"age"`
}

// AnimalRequest is the JSON body for create and update calls.
type AnimalRequest struct {
	Name    string `json:"name"`
	Species string `json:"species"`
	Age     *int   `json:"age"`
}

// MessageResponse is the success body shape shared by mutating handlers.
type MessageResponse struct {
	Message string `json:"message"`
	ID      *int64 `json:"id,omitempty"`
}

// DetailResponse is the error body shape: a single fixed detail string.
type DetailResponse struct {
	Detail string `json:"detail"`
}

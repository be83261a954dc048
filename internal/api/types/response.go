// internal/api/types/response.go
package types

// ListResponse wraps a level's rows for the view layer.
// T is the domain type of the listed level.
type ListResponse[T any] struct {
	Data []T `json:"data"`
}

// EntriesResponse additionally carries the running total the entries
// view renders alongside the rows.
type EntriesResponse[T any] struct {
	Data  []T    `json:"data"`
	Total string `json:"total"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

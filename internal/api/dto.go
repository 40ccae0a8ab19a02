package api

import "github.com/starford/folio/internal/storage"

// ListResponse wraps one page of records.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// ReorderRequest is the body of POST /{kind}/reorder: every id of the kind
// in the new display order.
type ReorderRequest struct {
	IDs []string `json:"ids"`
}

// ImportResponse is returned after a successful import.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// RecordError reports one invalid record of an imported data set.
type RecordError struct {
	Kind  string `json:"kind"`
	Index int    `json:"index"`
	Error string `json:"error"`
}

// ImportErrorResponse lists every invalid record of a rejected import.
type ImportErrorResponse struct {
	Error   string        `json:"error"`
	Records []RecordError `json:"records"`
}

// UploadResponse is returned after a successful file upload.
type UploadResponse struct {
	File storage.File `json:"file"`
	URL  string       `json:"url"`
}

// UploadListResponse lists the stored uploads.
type UploadListResponse struct {
	Files []storage.File `json:"files"`
}

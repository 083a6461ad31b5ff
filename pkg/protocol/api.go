// Package protocol defines the REST request and response bodies.
package protocol

// ErrorResponse is the body the backend sends with non-2xx statuses.
// Some endpoints use "message", older ones "error".
type ErrorResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Text returns the most specific message available.
func (e ErrorResponse) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// CreateFolderRequest is the body for POST /api/folders.
// A nil TargetFolderID creates the folder at the root.
type CreateFolderRequest struct {
	FolderName     string  `json:"folderName"`
	TargetFolderID *string `json:"targetFolderId"`
}

// RenameRequest is the body for PUT /api/files/{id} and PUT /api/folders/{id}.
type RenameRequest struct {
	Name string `json:"name"`
}

// MoveRequest is the body for PATCH /api/items/{id}/move.
type MoveRequest struct {
	TargetFolderID *string `json:"targetFolderId"`
}

// BulkResponse is returned by POST /api/trash/empty and /api/trash/restore.
type BulkResponse struct {
	Message string `json:"message,omitempty"`
	Count   int    `json:"count"`
}

// UploadResponse is returned by POST /api/files/upload.
type UploadResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	ParentID string `json:"parentId,omitempty"`
}

// Upload form field names.
const (
	UploadFileField   = "file"
	UploadTargetField = "targetFolderId"
)

// OptionalID maps the root sentinel and "" to a JSON null.
func OptionalID(id, root string) *string {
	if id == "" || id == root {
		return nil
	}
	return &id
}

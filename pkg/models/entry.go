// Package models contains the file and folder types shared by the client,
// the navigation store and the CLI.
package models

import "time"

// RootID is the sentinel identifier of the top-level folder.
const RootID = "root"

// Kind tells files and folders apart on the wire.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Item is an entry as the backend returns it in listings.
type Item struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         Kind   `json:"type"`
	IsStarred    bool   `json:"isStarred"`
	ParentID     string `json:"parentId,omitempty"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	FileCategory string `json:"fileCategory,omitempty"`
	IsInTrash    bool   `json:"isInTrash"`
}

// FolderMeta is returned by GET /api/folders/{id} and POST /api/folders.
type FolderMeta struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	ParentID  string     `json:"parentId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Entry is either a *File or a *Folder. The set is closed; use a type
// switch to handle both.
type Entry interface {
	Base() Item
	entry()
}

// File is a file entry.
type File struct {
	Item
}

// Folder is a folder entry.
type Folder struct {
	Item
}

func (f *File) Base() Item   { return f.Item }
func (f *Folder) Base() Item { return f.Item }

func (*File) entry()   {}
func (*Folder) entry() {}

// ToEntry converts a wire item. Anything not explicitly a folder is a file.
func ToEntry(it Item) Entry {
	if it.Type == KindFolder {
		return &Folder{Item: it}
	}
	it.Type = KindFile
	return &File{Item: it}
}


// StorageUsage is returned by GET /api/users/storage. Sizes are bytes.
type StorageUsage struct {
	Used  int64 `json:"used"`
	Total int64 `json:"total"`
}

// Percent returns used/total as a percentage, 0 when total is unknown.
func (u StorageUsage) Percent() float64 {
	if u.Total <= 0 {
		return 0
	}
	return float64(u.Used) / float64(u.Total) * 100
}

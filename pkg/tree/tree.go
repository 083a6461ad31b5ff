// Package tree provides path helpers for the folder hierarchy: splitting
// server paths and rebuilding breadcrumb trails from them.
package tree

import (
	"strings"

	"github.com/fileflow/fileflow/pkg/models"
)

// RootName is the display name of the root breadcrumb.
const RootName = "Home"

// Crumb is one step of a breadcrumb trail. Intermediate steps only know
// their path; the last step also carries the folder ID.
type Crumb struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

// Target returns what to navigate to for this crumb: the ID if known,
// else the path.
func (c Crumb) Target() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Path
}

// Root returns the root crumb.
func Root() Crumb {
	return Crumb{ID: models.RootID, Name: RootName, Path: "/"}
}

// Segments splits a server path on "/" and drops empty segments.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BuildChildPath constructs a child path from parent + name.
func BuildChildPath(parentPath, name string) string {
	if parentPath == "" || parentPath == "/" {
		return "/" + name
	}
	return strings.TrimSuffix(parentPath, "/") + "/" + name
}

// Breadcrumbs rebuilds the trail for the folder id at path. Every segment
// but the last resolves to its cumulative path; the last one is the folder
// itself. With no path the trail is root followed by the folder.
//
//	Breadcrumbs("/A/B/C", "c-id", "C") =>
//	  [Home, {A /A}, {B /A/B}, {c-id C /A/B/C}]
func Breadcrumbs(path, id, name string) []Crumb {
	crumbs := []Crumb{Root()}
	segs := Segments(path)
	if len(segs) == 0 {
		return append(crumbs, Crumb{ID: id, Name: name})
	}

	cur := "/"
	for i, seg := range segs {
		cur = BuildChildPath(cur, seg)
		if i == len(segs)-1 {
			crumbs = append(crumbs, Crumb{ID: id, Name: seg, Path: cur})
			break
		}
		crumbs = append(crumbs, Crumb{Name: seg, Path: cur})
	}
	return crumbs
}

// IsRoot reports whether target names the root folder.
func IsRoot(target string) bool {
	return target == "" || target == models.RootID || target == "/"
}

package navigator

import (
	"github.com/fileflow/fileflow/pkg/models"
	"github.com/fileflow/fileflow/pkg/tree"
)

// Phase is the session phase of the store.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseRedirecting
	PhaseSettled
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseRedirecting:
		return "redirecting"
	case PhaseSettled:
		return "settled"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a point-in-time copy of the session state. Mutating it never
// affects the store.
type State struct {
	CurrentFolderID   string
	CurrentFolderMeta *models.FolderMeta
	Contents          []models.DisplayEntry
	Breadcrumbs       []tree.Crumb
	IsLoading         bool
	LastError         string
	Phase             Phase
	Generation        uint64
}

// AtRoot reports whether the current folder is the root.
func (s State) AtRoot() bool {
	return tree.IsRoot(s.CurrentFolderID)
}

// session is the store-owned state. Contents are kept raw and formatted on
// every read.
type session struct {
	folderID    string
	meta        *models.FolderMeta
	contents    []models.Item
	breadcrumbs []tree.Crumb
	loading     bool
	lastError   string
	phase       Phase
}

func rootSession() session {
	return session{
		folderID:    models.RootID,
		contents:    []models.Item{},
		breadcrumbs: []tree.Crumb{tree.Root()},
	}
}

func (s *session) snapshot(gen uint64) State {
	st := State{
		CurrentFolderID: s.folderID,
		Contents:        models.Format(s.contents),
		Breadcrumbs:     append([]tree.Crumb(nil), s.breadcrumbs...),
		IsLoading:       s.loading,
		LastError:       s.lastError,
		Phase:           s.phase,
		Generation:      gen,
	}
	if s.meta != nil {
		m := *s.meta
		st.CurrentFolderMeta = &m
	}
	return st
}

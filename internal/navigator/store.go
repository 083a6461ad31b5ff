// Package navigator holds the folder navigation session: where the user is,
// what that folder contains and the breadcrumb trail back to the root.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fileflow/fileflow/internal/events"
	"github.com/fileflow/fileflow/internal/logging"
	"github.com/fileflow/fileflow/internal/metrics"
	"github.com/fileflow/fileflow/pkg/client"
	"github.com/fileflow/fileflow/pkg/models"
	"github.com/fileflow/fileflow/pkg/tree"
)

// User-facing messages written to State.LastError.
const (
	MsgNotFound     = "The requested folder was not found. It may have been moved or deleted."
	MsgUnauthorized = "You are not authorized to access this folder. Please log in again."
	MsgBadRequest   = "Invalid folder ID. Please navigate to a valid folder."
	MsgLoadFailed   = "Failed to load folder contents. Please try again."
	MsgNotReady     = "Authentication token not ready. Please try again in a moment."
)

var (
	// ErrSuperseded is returned when a newer navigation started before this
	// one finished. Its result was discarded.
	ErrSuperseded = errors.New("navigation superseded")
	// ErrNotReady is returned while the readiness check fails.
	ErrNotReady = errors.New("authentication token not ready")
	// ErrPathIndex is returned for a breadcrumb index out of range.
	ErrPathIndex = errors.New("breadcrumb index out of range")
)

// FolderAPI is the part of the request client the store depends on.
type FolderAPI interface {
	Folder(ctx context.Context, id string) (*models.FolderMeta, error)
	FolderChildren(ctx context.Context, id string) ([]models.Item, error)
	CreateFolder(ctx context.Context, name, targetFolderID string) (*models.FolderMeta, error)
}

var _ FolderAPI = (*client.Client)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithReadiness makes navigation fail with ErrNotReady until ready
// reports true.
func WithReadiness(ready func() bool) Option {
	return func(s *Store) { s.ready = ready }
}

// Store is the single source of truth for the navigation session.
// All methods are safe for concurrent use. Of several overlapping
// navigations only the most recently started one is applied.
type Store struct {
	api   FolderAPI
	log   *zap.Logger
	ready func() bool
	subs  *events.Broadcaster[State]

	mu  sync.Mutex
	st  session
	gen uint64
}

// New creates a store positioned at the root in the Idle phase.
func New(api FolderAPI, opts ...Option) *Store {
	s := &Store{
		api: api,
		st:  rootSession(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Named("navigator")
	}
	s.subs = events.NewBroadcaster[State](0)
	return s
}

// Snapshot returns a copy of the current state with formatted contents.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.snapshot(s.gen)
}

// Subscribe returns a channel that receives a snapshot on every state
// transition. Call Unsubscribe when done.
func (s *Store) Subscribe() <-chan State {
	return s.subs.Subscribe()
}

// Unsubscribe stops delivery to ch and closes it.
func (s *Store) Unsubscribe(ch <-chan State) {
	s.subs.Unsubscribe(ch)
}

// Close closes all subscriber channels.
func (s *Store) Close() {
	s.subs.Close()
}

// update applies fn if gen is still the latest navigation and publishes the
// result. It reports whether fn ran.
func (s *Store) update(gen uint64, fn func(*session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	fn(&s.st)
	s.subs.Publish(s.st.snapshot(gen))
	return true
}

// begin starts a navigation and moves to Loading. prepare, if set, runs in
// the same transition.
func (s *Store) begin(prepare func(*session)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if prepare != nil {
		prepare(&s.st)
	}
	s.st.loading = true
	s.st.lastError = ""
	s.st.phase = PhaseLoading
	s.subs.Publish(s.st.snapshot(s.gen))
	return s.gen
}

// NavigateToFolder moves the session to target, a folder ID, a server path
// or the root sentinel. A NotFound for a non-root target resets the session
// to the root and loads it instead; the returned error is then that of the
// root fetch. A superseded navigation returns ErrSuperseded and changes
// nothing.
func (s *Store) NavigateToFolder(ctx context.Context, target string) error {
	return s.navigate(ctx, target, nil)
}

// NavigateToPathIndex truncates the breadcrumb trail to index i and
// navigates to that crumb. It always re-fetches.
func (s *Store) NavigateToPathIndex(ctx context.Context, i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.st.breadcrumbs) {
		n := len(s.st.breadcrumbs)
		s.mu.Unlock()
		return fmt.Errorf("%w: %d not in [0, %d)", ErrPathIndex, i, n)
	}
	crumb := s.st.breadcrumbs[i]
	s.mu.Unlock()

	return s.navigate(ctx, crumb.Target(), func(st *session) {
		if i+1 <= len(st.breadcrumbs) {
			st.breadcrumbs = st.breadcrumbs[:i+1]
		}
	})
}

// RefreshCurrentFolder reloads the current folder.
func (s *Store) RefreshCurrentFolder(ctx context.Context) error {
	s.mu.Lock()
	target := s.st.folderID
	s.mu.Unlock()
	return s.NavigateToFolder(ctx, target)
}

// CreateFolder creates name under targetFolderID, or under the current
// folder when targetFolderID is empty, then refreshes. Failures of the
// create call are returned as is and never touch LastError. A failed
// refresh does not fail the create; it is reflected in the state.
func (s *Store) CreateFolder(ctx context.Context, name, targetFolderID string) (*models.FolderMeta, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, client.NewValidationError("Folder name is required")
	}
	if targetFolderID == "" {
		s.mu.Lock()
		targetFolderID = s.st.folderID
		s.mu.Unlock()
	}

	folder, err := s.api.CreateFolder(ctx, name, targetFolderID)
	if err != nil {
		return nil, err
	}
	s.log.Info("folder created",
		zap.String("id", folder.ID),
		zap.String("name", name),
		zap.String("parent", targetFolderID),
	)

	if err := s.RefreshCurrentFolder(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		s.log.Warn("refresh after create failed", logging.Err(err))
	}
	return folder, nil
}

func (s *Store) navigate(ctx context.Context, target string, prepare func(*session)) error {
	if s.ready != nil && !s.ready() {
		s.mu.Lock()
		// An in-flight navigation keeps its phase and settles normally.
		s.st.lastError = MsgNotReady
		if !s.st.loading {
			s.st.phase = PhaseError
		}
		s.subs.Publish(s.st.snapshot(s.gen))
		s.mu.Unlock()
		metrics.RecordNavigation("error")
		return ErrNotReady
	}

	gen := s.begin(prepare)
	log := s.log.With(zap.String("target", target), zap.Uint64("generation", gen))
	log.Debug("navigating")

	meta, items, err := s.fetch(ctx, target)
	if err == nil {
		return s.settle(gen, meta, items, "settled")
	}

	if client.IsNotFound(err) && !tree.IsRoot(target) {
		log.Warn("folder not found, redirecting to root", logging.Err(err))
		return s.redirect(ctx, gen)
	}

	log.Warn("navigation failed", logging.Err(err))
	return s.fail(gen, err)
}

// fetch loads the metadata (for non-root targets) and the children.
func (s *Store) fetch(ctx context.Context, target string) (*models.FolderMeta, []models.Item, error) {
	if tree.IsRoot(target) {
		items, err := s.api.FolderChildren(ctx, models.RootID)
		return nil, items, err
	}

	meta, err := s.api.Folder(ctx, target)
	if err != nil {
		return nil, nil, err
	}
	if meta.ID == "" {
		m := *meta
		m.ID = target
		meta = &m
	}
	items, err := s.api.FolderChildren(ctx, meta.ID)
	if err != nil {
		return nil, nil, err
	}
	return meta, items, nil
}

func (s *Store) redirect(ctx context.Context, gen uint64) error {
	if !s.update(gen, func(st *session) {
		*st = rootSession()
		st.loading = true
		st.phase = PhaseRedirecting
	}) {
		metrics.RecordNavigation("superseded")
		return ErrSuperseded
	}

	items, err := s.api.FolderChildren(ctx, models.RootID)
	if err != nil {
		s.log.Error("root fetch after redirect failed", logging.Err(err))
		return s.fail(gen, err)
	}
	return s.settle(gen, nil, items, "redirected")
}

func (s *Store) settle(gen uint64, meta *models.FolderMeta, items []models.Item, result string) error {
	if items == nil {
		items = []models.Item{}
	}
	ok := s.update(gen, func(st *session) {
		if meta == nil {
			st.folderID = models.RootID
			st.meta = nil
			st.breadcrumbs = []tree.Crumb{tree.Root()}
		} else {
			m := *meta
			st.folderID = meta.ID
			st.meta = &m
			st.breadcrumbs = tree.Breadcrumbs(meta.Path, meta.ID, meta.Name)
		}
		st.contents = append([]models.Item(nil), items...)
		st.loading = false
		st.lastError = ""
		st.phase = PhaseSettled
	})
	if !ok {
		metrics.RecordNavigation("superseded")
		return ErrSuperseded
	}
	metrics.RecordNavigation(result)
	return nil
}

func (s *Store) fail(gen uint64, err error) error {
	msg := errorMessage(err)
	if !s.update(gen, func(st *session) {
		st.loading = false
		st.lastError = msg
		st.phase = PhaseError
	}) {
		metrics.RecordNavigation("superseded")
		return ErrSuperseded
	}
	metrics.RecordNavigation("error")
	return err
}

// errorMessage maps a failure to the LastError text.
func errorMessage(err error) string {
	switch {
	case client.IsNotFound(err):
		return MsgNotFound
	case client.IsUnauthorized(err):
		return MsgUnauthorized
	case client.IsBadRequest(err):
		return MsgBadRequest
	default:
		return MsgLoadFailed
	}
}

// Package presence tracks which editors are on a document. Records are
// last-writer-wins and expire at read time once older than the liveness
// window; nothing sweeps them in the background.
package presence

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/legalmind/legalmind/backend/go-services/internal/apperr"
	"github.com/legalmind/legalmind/backend/go-services/internal/identity"
	"github.com/legalmind/legalmind/backend/go-services/pkg/logger"
	"github.com/legalmind/legalmind/backend/go-services/pkg/metrics"
)

const (
	DefaultLivenessWindow = 2 * time.Minute
	DefaultActiveWindow   = 30 * time.Second
)

var log = logger.Named("presence")

type Store struct {
	repo     Repository
	now      func() time.Time
	liveness time.Duration
	active   time.Duration
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithWindows sets the liveness window and the shorter "recently active"
// sub-window. Non-positive values keep the defaults.
func WithWindows(liveness, active time.Duration) Option {
	return func(s *Store) {
		if liveness > 0 {
			s.liveness = liveness
		}
		if active > 0 {
			s.active = active
		}
	}
}

func NewStore(repo Repository, opts ...Option) *Store {
	s := &Store{repo: repo, now: time.Now, liveness: DefaultLivenessWindow, active: DefaultActiveWindow}
	for _, o := range opts {
		o(s)
	}
	if s.active > s.liveness {
		s.active = s.liveness
	}
	return s
}

// LivenessWindow reports the configured liveness window.
func (s *Store) LivenessWindow() time.Duration { return s.liveness }

func (s *Store) live(rec Record, now time.Time) bool {
	return now.Sub(rec.LastActiveAt) < s.liveness
}

// Join upserts the editor's record with lastActiveAt = now. Repeated joins
// just refresh the timestamp.
func (s *Store) Join(ctx context.Context, documentID string, editor identity.Identity) (Record, error) {
	if strings.TrimSpace(documentID) == "" {
		return Record{}, apperr.Invalid("documentId", "document id is required")
	}
	if strings.TrimSpace(editor.ID) == "" {
		return Record{}, apperr.Invalid("editorId", "editor id is required")
	}
	rec := Record{
		EditorID:     editor.ID,
		DisplayName:  editor.DisplayName(),
		DocumentID:   documentID,
		LastActiveAt: s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		log.Warnf("join %s/%s: %v", documentID, editor.ID, err)
		metrics.StorageErrors.WithLabelValues("presence").Inc()
	}
	metrics.PresenceJoins.Inc()
	return rec, nil
}

// Heartbeat refreshes a live record and reports whether it did. A missing or
// already-expired record is left alone; the editor must Join again.
func (s *Store) Heartbeat(ctx context.Context, documentID, editorID string) bool {
	now := s.now().UTC()
	rec, ok, err := s.repo.Get(ctx, documentID, editorID)
	if err != nil {
		log.Warnf("heartbeat %s/%s: %v", documentID, editorID, err)
		metrics.StorageErrors.WithLabelValues("presence").Inc()
		return false
	}
	if !ok || !s.live(rec, now) {
		return false
	}
	touched, err := s.repo.Touch(ctx, documentID, editorID, now)
	if err != nil {
		log.Warnf("heartbeat %s/%s: %v", documentID, editorID, err)
		metrics.StorageErrors.WithLabelValues("presence").Inc()
		return false
	}
	return touched
}

// Leave removes the record immediately, bypassing the liveness window.
func (s *Store) Leave(ctx context.Context, documentID, editorID string) {
	if err := s.repo.Remove(ctx, documentID, editorID); err != nil {
		log.Warnf("leave %s/%s: %v", documentID, editorID, err)
		metrics.StorageErrors.WithLabelValues("presence").Inc()
	}
}

// ListActive returns the document's live records, most recently active first.
func (s *Store) ListActive(ctx context.Context, documentID string) []Entry {
	recs, err := s.repo.List(ctx, documentID)
	if err != nil {
		log.Warnf("list %s: %v", documentID, err)
		metrics.StorageErrors.WithLabelValues("presence").Inc()
		return []Entry{}
	}
	now := s.now().UTC()
	out := make([]Entry, 0, len(recs))
	for _, rec := range recs {
		if !s.live(rec, now) {
			continue
		}
		st := StatusIdle
		if now.Sub(rec.LastActiveAt) < s.active {
			st = StatusActive
		}
		out = append(out, Entry{Record: rec, Status: st})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastActiveAt.Equal(out[j].LastActiveAt) {
			return out[i].EditorID < out[j].EditorID
		}
		return out[i].LastActiveAt.After(out[j].LastActiveAt)
	})
	return out
}

// LastActive returns the editor's lastActiveAt when the record is live.
func (s *Store) LastActive(ctx context.Context, documentID, editorID string) (time.Time, bool) {
	rec, ok, err := s.repo.Get(ctx, documentID, editorID)
	if err != nil {
		log.Warnf("lookup %s/%s: %v", documentID, editorID, err)
		metrics.StorageErrors.WithLabelValues("presence").Inc()
		return time.Time{}, false
	}
	if !ok || !s.live(rec, s.now().UTC()) {
		return time.Time{}, false
	}
	return rec.LastActiveAt, true
}

// KeepAlive heartbeats the editor every interval until ctx is done, then
// leaves. If the record expired in between it re-joins.
func (s *Store) KeepAlive(ctx context.Context, documentID string, editor identity.Identity, interval time.Duration) {
	if interval <= 0 {
		interval = s.liveness / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Leave(context.Background(), documentID, editor.ID)
			return
		case <-ticker.C:
			if !s.Heartbeat(ctx, documentID, editor.ID) {
				_, _ = s.Join(ctx, documentID, editor)
			}
		}
	}
}

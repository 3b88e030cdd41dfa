// Package comments stores the per-document comment thread. Threads keep
// insertion order; nothing here ever reorders them.
package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/legalmind/legalmind/backend/go-services/internal/apperr"
	"github.com/legalmind/legalmind/backend/go-services/internal/identity"
	"github.com/legalmind/legalmind/backend/go-services/internal/kv"
	"github.com/legalmind/legalmind/backend/go-services/internal/notifications"
	"github.com/legalmind/legalmind/backend/go-services/pkg/logger"
	"github.com/legalmind/legalmind/backend/go-services/pkg/metrics"
)

var log = logger.Named("comments")

const maxTextLength = 10000

type Comment struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Text       string    `json:"text"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
	Edited     bool      `json:"edited,omitempty"`
}

type Notifier interface {
	Create(ctx context.Context, in notifications.Input) (*notifications.Notification, error)
}

type Thread struct {
	store    kv.Store
	locks    *kv.KeyedMutex
	now      func() time.Time
	notifier Notifier
}

type Option func(*Thread)

func WithClock(now func() time.Time) Option { return func(t *Thread) { t.now = now } }

func WithNotifier(n Notifier) Option { return func(t *Thread) { t.notifier = n } }

func NewThread(store kv.Store, opts ...Option) *Thread {
	t := &Thread{store: store, locks: kv.NewKeyedMutex(), now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

func validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Invalid("text", "comment text is required")
	}
	if len(text) > maxTextLength {
		return "", apperr.Invalid("text", fmt.Sprintf("comment text exceeds %d characters", maxTextLength))
	}
	return text, nil
}

func (t *Thread) load(ctx context.Context, documentID string) ([]Comment, error) {
	list, err := kv.ReadList[Comment](ctx, t.store, kv.CommentsKey(documentID))
	if errors.Is(err, kv.ErrCorrupt) {
		log.Warnf("thread for %s unreadable, starting empty: %v", documentID, err)
		metrics.StorageErrors.WithLabelValues("comments").Inc()
		return []Comment{}, nil
	}
	return list, err
}

// mutate runs fn over the document's thread through the store's atomic
// update and persists the result when fn reports a change. fn may run more
// than once.
func (t *Thread) mutate(ctx context.Context, documentID string, fn func([]Comment) ([]Comment, bool)) error {
	unlock := t.locks.Lock(documentID)
	defer unlock()

	onCorrupt := func(err error) {
		log.Warnf("thread for %s unreadable, starting empty: %v", documentID, err)
		metrics.StorageErrors.WithLabelValues("comments").Inc()
	}
	err := kv.UpdateList(ctx, t.store, kv.CommentsKey(documentID), onCorrupt, func(list []Comment) ([]Comment, bool, error) {
		next, changed := fn(list)
		return next, changed, nil
	})
	if err != nil {
		return fmt.Errorf("update thread %s: %w", documentID, err)
	}
	return nil
}

// Add appends a comment by author to the document's thread.
func (t *Thread) Add(ctx context.Context, documentID, text string, author identity.Identity) (*Comment, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, apperr.Invalid("documentId", "document id is required")
	}
	if strings.TrimSpace(author.ID) == "" {
		return nil, apperr.Invalid("author", "author is required")
	}
	text, err := validateText(text)
	if err != nil {
		return nil, err
	}

	c := Comment{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Text:       text,
		AuthorID:   author.ID,
		AuthorName: author.DisplayName(),
		CreatedAt:  t.now().UTC(),
	}
	err = t.mutate(ctx, documentID, func(list []Comment) ([]Comment, bool) {
		return append(list, c), true
	})
	if err != nil {
		return nil, err
	}

	metrics.CommentOps.WithLabelValues("add").Inc()
	t.notify(ctx, c)
	return &c, nil
}

func (t *Thread) notify(ctx context.Context, c Comment) {
	if t.notifier == nil {
		return
	}
	preview := c.Text
	if r := []rune(preview); len(r) > 80 {
		preview = string(r[:80]) + "..."
	}
	_, err := t.notifier.Create(ctx, notifications.Input{
		Title:             "New comment from " + c.AuthorName,
		Message:           preview,
		Kind:              notifications.KindComment,
		Severity:          notifications.SeverityInfo,
		RelatedDocumentID: c.DocumentID,
		Link:              "/documents/" + c.DocumentID + "#comment-" + c.ID,
	})
	if err != nil {
		log.Warnf("notify comment %s: %v", c.ID, err)
	}
}

// Update replaces a comment's text and re-stamps CreatedAt. The comment keeps
// its position in the thread. An unknown id is a no-op and returns (nil, nil).
func (t *Thread) Update(ctx context.Context, documentID, commentID, text string) (*Comment, error) {
	text, err := validateText(text)
	if err != nil {
		return nil, err
	}
	var updated *Comment
	err = t.mutate(ctx, documentID, func(list []Comment) ([]Comment, bool) {
		updated = nil
		for i := range list {
			if list[i].ID != commentID {
				continue
			}
			list[i].Text = text
			list[i].CreatedAt = t.now().UTC()
			list[i].Edited = true
			c := list[i]
			updated = &c
			return list, true
		}
		return list, false
	})
	if err != nil {
		return nil, err
	}
	if updated != nil {
		metrics.CommentOps.WithLabelValues("update").Inc()
	}
	return updated, nil
}

// Delete removes a comment. It reports whether anything was removed; an
// unknown id leaves the thread untouched.
func (t *Thread) Delete(ctx context.Context, documentID, commentID string) (bool, error) {
	removed := false
	err := t.mutate(ctx, documentID, func(list []Comment) ([]Comment, bool) {
		removed = false
		out := list[:0]
		for _, c := range list {
			if c.ID == commentID {
				removed = true
				continue
			}
			out = append(out, c)
		}
		return out, removed
	})
	if err != nil {
		return false, err
	}
	if removed {
		metrics.CommentOps.WithLabelValues("delete").Inc()
	}
	return removed, nil
}

// List returns the thread in insertion order. Storage errors are logged and
// read as an empty thread.
func (t *Thread) List(ctx context.Context, documentID string) []Comment {
	list, err := t.load(ctx, documentID)
	if err != nil {
		log.Warnf("list %s: %v", documentID, err)
		metrics.StorageErrors.WithLabelValues("comments").Inc()
		return []Comment{}
	}
	return list
}

// Package versions is the append-only history of document snapshots. For a
// document with at least one version, a default save leaves exactly one
// record flagged current: the new one.
package versions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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

var log = logger.Named("versions")

// Version is an immutable snapshot. Only IsCurrent is ever rewritten, and
// only by a later default save.
type Version struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
	IsCurrent  bool      `json:"isCurrent"`
}

// SaveInput describes one save. The zero value of KeepOthersCurrent demotes
// every earlier version; setting it leaves them untouched, so several
// versions may end up current if the caller does not keep discipline.
type SaveInput struct {
	Name              string
	Content           string
	KeepOthersCurrent bool
}

// Notifier receives a notification for each saved version.
type Notifier interface {
	Create(ctx context.Context, in notifications.Input) (*notifications.Notification, error)
}

type Ledger struct {
	store    kv.Store
	locks    *kv.KeyedMutex
	now      func() time.Time
	notifier Notifier
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

func WithNotifier(n Notifier) Option { return func(l *Ledger) { l.notifier = n } }

func NewLedger(store kv.Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, locks: kv.NewKeyedMutex(), now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Ledger) load(ctx context.Context, documentID string) ([]Version, error) {
	list, err := kv.ReadList[Version](ctx, l.store, kv.VersionsKey(documentID))
	if errors.Is(err, kv.ErrCorrupt) {
		log.Warnf("ledger for %s unreadable, starting empty: %v", documentID, err)
		metrics.StorageErrors.WithLabelValues("versions").Inc()
		return []Version{}, nil
	}
	return list, err
}

// SaveVersion appends a new current version for documentID and returns it.
// The read-modify-write goes through the store's atomic update, so
// concurrent saves, from this process or another instance, cannot drop a
// version or a demotion.
func (l *Ledger) SaveVersion(ctx context.Context, documentID string, in SaveInput, author identity.Identity) (*Version, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, apperr.Invalid("documentId", "document id is required")
	}
	if strings.TrimSpace(author.ID) == "" {
		return nil, apperr.Invalid("author", "author is required")
	}

	onCorrupt := func(err error) {
		log.Warnf("ledger for %s unreadable, starting empty: %v", documentID, err)
		metrics.StorageErrors.WithLabelValues("versions").Inc()
	}
	var v Version
	unlock := l.locks.Lock(documentID)
	err := kv.UpdateList(ctx, l.store, kv.VersionsKey(documentID), onCorrupt, func(list []Version) ([]Version, bool, error) {
		if !in.KeepOthersCurrent {
			for i := range list {
				list[i].IsCurrent = false
			}
		}
		name := strings.TrimSpace(in.Name)
		if name == "" {
			name = "Version " + strconv.Itoa(len(list)+1)
		}
		v = Version{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			Name:       name,
			Content:    in.Content,
			AuthorID:   author.ID,
			AuthorName: author.DisplayName(),
			CreatedAt:  l.now().UTC(),
			IsCurrent:  true,
		}
		return append(list, v), true, nil
	})
	unlock()
	if err != nil {
		return nil, fmt.Errorf("save ledger %s: %w", documentID, err)
	}

	metrics.VersionsSaved.WithLabelValues(strconv.FormatBool(!in.KeepOthersCurrent)).Inc()
	l.notify(ctx, v)
	return &v, nil
}

func (l *Ledger) notify(ctx context.Context, v Version) {
	if l.notifier == nil {
		return
	}
	_, err := l.notifier.Create(ctx, notifications.Input{
		Title:             "New version saved",
		Message:           fmt.Sprintf("%s saved version %q", v.AuthorName, v.Name),
		Kind:              notifications.KindDocument,
		Severity:          notifications.SeveritySuccess,
		RelatedDocumentID: v.DocumentID,
		Link:              "/documents/" + v.DocumentID + "/versions",
	})
	if err != nil {
		log.Warnf("notify version %s: %v", v.ID, err)
	}
}

// ListVersions returns every version, oldest first. Unreadable ledgers read
// as empty.
func (l *Ledger) ListVersions(ctx context.Context, documentID string) []Version {
	list, err := l.load(ctx, documentID)
	if err != nil {
		log.Warnf("list %s: %v", documentID, err)
		metrics.StorageErrors.WithLabelValues("versions").Inc()
		return []Version{}
	}
	return list
}

// Current returns the newest version flagged current.
func (l *Ledger) Current(ctx context.Context, documentID string) (*Version, bool) {
	list := l.ListVersions(ctx, documentID)
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].IsCurrent {
			v := list[i]
			return &v, true
		}
	}
	return nil, false
}

// Get looks up one version by id.
func (l *Ledger) Get(ctx context.Context, documentID, versionID string) (*Version, bool) {
	for _, v := range l.ListVersions(ctx, documentID) {
		if v.ID == versionID {
			return &v, true
		}
	}
	return nil, false
}

// Restore saves a copy of an earlier version as the new current version.
// An unknown versionID returns (nil, nil).
func (l *Ledger) Restore(ctx context.Context, documentID, versionID string, author identity.Identity) (*Version, error) {
	src, ok := l.Get(ctx, documentID, versionID)
	if !ok {
		return nil, nil
	}
	return l.SaveVersion(ctx, documentID, SaveInput{
		Name:    "Restored: " + src.Name,
		Content: src.Content,
	}, author)
}

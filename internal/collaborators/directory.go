// Package collaborators keeps each document's roster. Displayed status is
// derived on read from the invitation state and the presence store; the
// directory never writes presence.
package collaborators

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
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

var log = logger.Named("collaborators")

// DefaultInviteLatency approximates the round trip of the invitation mailer.
const DefaultInviteLatency = 800 * time.Millisecond

// Presence is the read-only view of the presence store the directory needs.
type Presence interface {
	LastActive(ctx context.Context, documentID, editorID string) (time.Time, bool)
}

type Notifier interface {
	Create(ctx context.Context, in notifications.Input) (*notifications.Notification, error)
}

type InviteResult struct {
	Collaborator *Collaborator
	Err          error
}

type Directory struct {
	store    kv.Store
	locks    *kv.KeyedMutex
	presence Presence
	notifier Notifier
	now      func() time.Time
	latency  time.Duration
}

type Option func(*Directory)

func WithClock(now func() time.Time) Option { return func(d *Directory) { d.now = now } }

func WithNotifier(n Notifier) Option { return func(d *Directory) { d.notifier = n } }

func WithInviteLatency(latency time.Duration) Option {
	return func(d *Directory) { d.latency = latency }
}

func NewDirectory(store kv.Store, presence Presence, opts ...Option) *Directory {
	d := &Directory{
		store:    store,
		locks:    kv.NewKeyedMutex(),
		presence: presence,
		now:      time.Now,
		latency:  DefaultInviteLatency,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Directory) load(ctx context.Context, documentID string) ([]Collaborator, error) {
	list, err := kv.ReadList[Collaborator](ctx, d.store, kv.CollaboratorsKey(documentID))
	if errors.Is(err, kv.ErrCorrupt) {
		log.Warnf("roster for %s unreadable, starting empty: %v", documentID, err)
		metrics.StorageErrors.WithLabelValues("collaborators").Inc()
		return []Collaborator{}, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range list {
		migrateLegacy(&list[i])
	}
	return list, nil
}

func (d *Directory) mutate(ctx context.Context, documentID string, fn func([]Collaborator) ([]Collaborator, bool, error)) error {
	unlock := d.locks.Lock(documentID)
	defer unlock()

	onCorrupt := func(err error) {
		log.Warnf("roster for %s unreadable, starting empty: %v", documentID, err)
		metrics.StorageErrors.WithLabelValues("collaborators").Inc()
	}
	err := kv.UpdateList(ctx, d.store, kv.CollaboratorsKey(documentID), onCorrupt, func(list []Collaborator) ([]Collaborator, bool, error) {
		for i := range list {
			migrateLegacy(&list[i])
		}
		return fn(list)
	})
	if err != nil && !apperr.IsValidation(err) {
		return fmt.Errorf("update roster %s: %w", documentID, err)
	}
	return err
}

// List returns the roster with derived status. Pending invitations always
// display as pending; accepted collaborators are online while the presence
// store holds a live record for their id or email.
func (d *Directory) List(ctx context.Context, documentID string) []View {
	list, err := d.load(ctx, documentID)
	if err != nil {
		log.Warnf("list %s: %v", documentID, err)
		metrics.StorageErrors.WithLabelValues("collaborators").Inc()
		return []View{}
	}
	now := d.now().UTC()
	out := make([]View, 0, len(list))
	for _, c := range list {
		out = append(out, d.view(ctx, c, now))
	}
	return out
}

func (d *Directory) view(ctx context.Context, c Collaborator, now time.Time) View {
	v := View{Collaborator: c, Initials: initials(c.Name)}
	if c.InvitationState == InvitationPending {
		v.DisplayStatus = StatusPending
		v.Detail = "Invitation sent to " + c.Email
		return v
	}
	if at, ok := d.livePresence(ctx, c); ok {
		v.DisplayStatus = StatusOnline
		v.Detail = "Currently active"
		v.LastActiveAt = at
		return v
	}
	v.DisplayStatus = c.Status
	if v.DisplayStatus == StatusOnline || !v.DisplayStatus.Storable() {
		// stored "online" without a live presence record is stale
		v.DisplayStatus = StatusOffline
	}
	v.Detail = "Last seen " + relative(now, c.LastActiveAt)
	return v
}

func (d *Directory) livePresence(ctx context.Context, c Collaborator) (time.Time, bool) {
	if d.presence == nil {
		return time.Time{}, false
	}
	if at, ok := d.presence.LastActive(ctx, c.DocumentID, c.ID); ok {
		return at, true
	}
	if c.Email != "" {
		return d.presence.LastActive(ctx, c.DocumentID, c.Email)
	}
	return time.Time{}, false
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperr.Invalid("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", apperr.Invalid("email", "please enter a valid email address")
	}
	return strings.ToLower(email), nil
}

// InviteAsync starts an invitation and returns immediately. The result is
// delivered on the returned channel once the mailer round trip has elapsed.
// No lock is held while waiting, so reads of the roster proceed normally.
func (d *Directory) InviteAsync(ctx context.Context, documentID, email string, inviter identity.Identity) <-chan InviteResult {
	out := make(chan InviteResult, 1)
	go func() {
		defer close(out)
		c, err := d.invite(ctx, documentID, email, inviter)
		out <- InviteResult{Collaborator: c, Err: err}
	}()
	return out
}

// Invite blocks until the invitation resolves.
func (d *Directory) Invite(ctx context.Context, documentID, email string, inviter identity.Identity) (*Collaborator, error) {
	res := <-d.InviteAsync(ctx, documentID, email, inviter)
	return res.Collaborator, res.Err
}

func (d *Directory) invite(ctx context.Context, documentID, email string, inviter identity.Identity) (*Collaborator, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, apperr.Invalid("documentId", "document id is required")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		metrics.Invitations.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if d.latency > 0 {
		timer := time.NewTimer(d.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			metrics.Invitations.WithLabelValues("cancelled").Inc()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	now := d.now().UTC()
	c := Collaborator{
		ID:              uuid.NewString(),
		DocumentID:      documentID,
		Name:            email[:strings.Index(email, "@")],
		Email:           email,
		InvitationState: InvitationPending,
		Status:          StatusOffline,
		LastActiveAt:    now,
		InvitedBy:       inviter.ID,
		InvitedAt:       now,
	}
	err = d.mutate(ctx, documentID, func(list []Collaborator) ([]Collaborator, bool, error) {
		for _, existing := range list {
			if strings.EqualFold(existing.Email, email) {
				return nil, false, apperr.Invalid("email", email+" is already a collaborator on this document")
			}
		}
		return append(list, c), true, nil
	})
	if err != nil {
		outcome := "failed"
		if apperr.IsValidation(err) {
			outcome = "duplicate"
		}
		metrics.Invitations.WithLabelValues(outcome).Inc()
		return nil, err
	}
	metrics.Invitations.WithLabelValues("sent").Inc()
	return &c, nil
}

// Accept moves a pending invitation to accepted. Unknown ids return
// (nil, nil); accepting twice is harmless.
func (d *Directory) Accept(ctx context.Context, documentID, collaboratorID string, who identity.Identity) (*Collaborator, error) {
	var accepted *Collaborator
	flipped := false
	err := d.mutate(ctx, documentID, func(list []Collaborator) ([]Collaborator, bool, error) {
		accepted, flipped = nil, false
		for i := range list {
			if list[i].ID != collaboratorID {
				continue
			}
			if list[i].InvitationState != InvitationAccepted {
				list[i].InvitationState = InvitationAccepted
				list[i].LastActiveAt = d.now().UTC()
				if name := strings.TrimSpace(who.Name); name != "" {
					list[i].Name = name
				}
				flipped = true
			}
			c := list[i]
			accepted = &c
			return list, flipped, nil
		}
		return list, false, nil
	})
	if err != nil {
		return nil, err
	}
	if flipped {
		metrics.Invitations.WithLabelValues("accepted").Inc()
		d.notifyAccepted(ctx, *accepted)
	}
	return accepted, nil
}

func (d *Directory) notifyAccepted(ctx context.Context, c Collaborator) {
	if d.notifier == nil {
		return
	}
	_, err := d.notifier.Create(ctx, notifications.Input{
		Title:             "Invitation accepted",
		Message:           fmt.Sprintf("%s joined the document", c.Name),
		Kind:              notifications.KindSystem,
		Severity:          notifications.SeverityInfo,
		RelatedDocumentID: c.DocumentID,
		Link:              "/documents/" + c.DocumentID,
	})
	if err != nil {
		log.Warnf("notify accepted %s: %v", c.ID, err)
	}
}

// SetStatus records an accepted collaborator's availability. Pending
// invitations and unknown ids are left alone.
func (d *Directory) SetStatus(ctx context.Context, documentID, collaboratorID string, status Status) error {
	if !status.Storable() {
		return apperr.Invalid("status", "status must be online, away or offline")
	}
	return d.mutate(ctx, documentID, func(list []Collaborator) ([]Collaborator, bool, error) {
		for i := range list {
			if list[i].ID == collaboratorID && list[i].InvitationState == InvitationAccepted {
				list[i].Status = status
				list[i].LastActiveAt = d.now().UTC()
				return list, true, nil
			}
		}
		return list, false, nil
	})
}

// Remove drops a collaborator or a pending invitation and reports whether
// one was found.
func (d *Directory) Remove(ctx context.Context, documentID, collaboratorID string) (bool, error) {
	removed := false
	err := d.mutate(ctx, documentID, func(list []Collaborator) ([]Collaborator, bool, error) {
		removed = false
		out := list[:0]
		for _, c := range list {
			if c.ID == collaboratorID {
				removed = true
				continue
			}
			out = append(out, c)
		}
		return out, removed, nil
	})
	return removed, err
}

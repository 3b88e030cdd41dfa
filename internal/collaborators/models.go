package collaborators

import (
	"fmt"
	"strings"
	"time"
)

type InvitationState string

const (
	InvitationPending  InvitationState = "pending"
	InvitationAccepted InvitationState = "accepted"
)

// Status is the stored availability of an accepted collaborator.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
	// StatusPending only appears on views of collaborators that have not
	// accepted their invitation; it is never stored.
	StatusPending Status = "pending"
)

func (s Status) Storable() bool {
	switch s {
	case StatusOnline, StatusAway, StatusOffline:
		return true
	}
	return false
}

type Collaborator struct {
	ID              string          `json:"id"`
	DocumentID      string          `json:"documentId"`
	Name            string          `json:"name"`
	Email           string          `json:"email,omitempty"`
	InvitationState InvitationState `json:"invitationState"`
	Status          Status          `json:"status"`
	LastActiveAt    time.Time       `json:"lastActiveAt"`
	InvitedBy       string          `json:"invitedBy,omitempty"`
	InvitedAt       time.Time       `json:"invitedAt"`
}

// View is a collaborator as the roster displays it.
type View struct {
	Collaborator
	DisplayStatus Status `json:"displayStatus"`
	Detail        string `json:"detail"`
	Initials      string `json:"initials"`
}

const legacyPendingMarker = "(pending)"

// migrateLegacy upgrades records written before InvitationState existed,
// when a pending invitation was marked by a suffix on the display name.
func migrateLegacy(c *Collaborator) bool {
	if c.InvitationState != "" {
		return false
	}
	if strings.Contains(c.Name, legacyPendingMarker) {
		c.Name = strings.TrimSpace(strings.ReplaceAll(c.Name, legacyPendingMarker, ""))
		c.InvitationState = InvitationPending
	} else {
		c.InvitationState = InvitationAccepted
	}
	if !c.Status.Storable() {
		c.Status = StatusOffline
	}
	return true
}

// relative renders the time elapsed since value in the compact form used by
// the roster ("5m ago", "3h ago", "2d ago").
func relative(now, value time.Time) string {
	minutes := int(now.Sub(value).Minutes())
	if minutes < 1 {
		minutes = 1
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	return fmt.Sprintf("%dd ago", hours/24)
}

func initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "NA"
	}
	if len(parts) == 1 {
		r := []rune(parts[0])
		if len(r) == 1 {
			return strings.ToUpper(string(r[0]))
		}
		return strings.ToUpper(string(r[:2]))
	}
	first := []rune(parts[0])
	last := []rune(parts[len(parts)-1])
	return strings.ToUpper(string(first[0]) + string(last[0]))
}

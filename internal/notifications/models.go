package notifications

import "time"

// Kind is the producer category of a notification.
type Kind string

const (
	KindDeadline Kind = "deadline"
	KindDocument Kind = "document"
	KindComment  Kind = "comment"
	KindSystem   Kind = "system"
)

func (k Kind) Valid() bool {
	switch k {
	case KindDeadline, KindDocument, KindComment, KindSystem:
		return true
	}
	return false
}

// Severity controls how the display surface styles a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// Notification is one entry of the installation-wide notification list.
// Only Read ever changes after creation, and only from false to true.
type Notification struct {
	ID                string    `json:"id"`
	Kind              Kind      `json:"kind"`
	Severity          Severity  `json:"severity"`
	Title             string    `json:"title"`
	Message           string    `json:"message"`
	CreatedAt         time.Time `json:"createdAt"`
	Read              bool      `json:"read"`
	Link              string    `json:"link,omitempty"`
	RelatedDocumentID string    `json:"relatedDocumentId,omitempty"`
	RelatedCaseID     string    `json:"relatedCaseId,omitempty"`
}

// Input is what a producer supplies to Create.
type Input struct {
	Title             string
	Message           string
	Kind              Kind
	Severity          Severity
	RelatedDocumentID string
	RelatedCaseID     string
	Link              string
}

package presence

import "time"

// Record is one editor's presence on one document.
type Record struct {
	EditorID     string    `json:"editorId"`
	DisplayName  string    `json:"displayName"`
	DocumentID   string    `json:"documentId"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

type Status string

const (
	StatusActive Status = "active"
	StatusIdle   Status = "idle"
)

// Entry is a live record annotated with its derived status.
type Entry struct {
	Record
	Status Status `json:"status"`
}

package document

import "time"

// Document is the registry entry every collab route resolves before touching
// per-document state. Unknown ids never reach the stores.
type Document struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	CaseID    string    `json:"caseId,omitempty" bson:"caseId,omitempty"`
	OwnerID   string    `json:"ownerId,omitempty" bson:"ownerId,omitempty"`
	Content   string    `json:"content,omitempty" bson:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Patch carries the optional fields of an update.
type Patch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	CaseID  *string `json:"caseId,omitempty"`
}

package kv

// Key layout shared by every backend.
const (
	NotificationsKey    = "notifications"
	CaseDeadlinesKey    = "case_deadlines"
	DeadlineNotifiedKey = "deadline_notifications_sent"
	versionsPrefix      = "document_versions_"
	commentsPrefix      = "document_comments_"
	collaboratorsPrefix = "document_collaborators_"
)

func VersionsKey(documentID string) string      { return versionsPrefix + documentID }
func CommentsKey(documentID string) string      { return commentsPrefix + documentID }
func CollaboratorsKey(documentID string) string { return collaboratorsPrefix + documentID }

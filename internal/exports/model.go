// Package exports records realm export tarballs published to the public bucket.
package exports

import "time"

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusDeleted   = "deleted"
)

type Export struct {
	ID           int64      `json:"id"`
	RealmID      int64      `json:"realmId"`
	ActingUserID int64      `json:"actingUserId"`
	Status       string     `json:"status"`
	ExportPath   string     `json:"exportPath,omitempty"`
	URL          string     `json:"exportUrl,omitempty"`
	Size         int64      `json:"size"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

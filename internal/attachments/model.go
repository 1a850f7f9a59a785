// Package attachments handles message file uploads kept in the private bucket.
package attachments

import "time"

type Attachment struct {
	ID          int64     `json:"id"`
	RealmID     int64     `json:"realmId"`
	OwnerID     int64     `json:"ownerId"`
	PathID      string    `json:"pathId"`
	FileName    string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// URI is the stable, authenticated path messages link to.
func (a Attachment) URI() string {
	return "/user_uploads/" + a.PathID
}

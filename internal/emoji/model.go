// Package emoji manages custom realm emoji images.
package emoji

import (
	"regexp"
	"strconv"
	"time"
)

const maxNameLength = 60

var validName = regexp.MustCompile(`^[0-9a-z]([0-9a-z_-]*[0-9a-z])?$`)

type Emoji struct {
	ID          int64     `json:"id"`
	RealmID     int64     `json:"realmId"`
	AuthorID    int64     `json:"authorId"`
	Name        string    `json:"name"`
	FileName    string    `json:"fileName"`
	IsAnimated  bool      `json:"isAnimated"`
	Deactivated bool      `json:"deactivated"`
	CreatedAt   time.Time `json:"createdAt"`
}

// View is an emoji as clients see it.
type View struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SourceURL   string `json:"source_url"`
	StillURL    string `json:"still_url,omitempty"`
	Deactivated bool   `json:"deactivated"`
	AuthorID    int64  `json:"author_id"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

package users

import "time"

// Avatar sources.
const (
	AvatarFromGravatar = "G"
	AvatarFromUser     = "U"
)

type User struct {
	ID            int64     `json:"id"`
	RealmID       int64     `json:"realmId"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarSource  string    `json:"avatarSource"`
	AvatarVersion int       `json:"avatarVersion"`
	AvatarHash    string    `json:"-"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HasUploadedAvatar reports whether the avatar lives in object storage.
func (u User) HasUploadedAvatar() bool {
	return u.AvatarSource == AvatarFromUser
}

// Package avatars resolves user avatar URLs and manages uploaded avatars.
package avatars

import (
	"fmt"
	"net/url"
	"strings"

	"realm-uploads/internal/shared/storage/object"
	"realm-uploads/internal/shared/util"
	"realm-uploads/internal/thumbnail"
	"realm-uploads/internal/users"
)

const gravatarBase = "https://secure.gravatar.com/avatar/"

// URLBuilder maps a stored avatar to its public URL.
type URLBuilder interface {
	AvatarURL(hashKey string, medium bool, version int) string
}

// Resolver computes avatar URLs without touching storage.
type Resolver struct {
	Store            URLBuilder
	EnableGravatar   bool
	DefaultAvatarURI string
	StaticURLPrefix  string
	Salt             string
}

// AvatarField returns the avatar URL to send to a client. ok is false when
// the client asked to compute gravatar URLs itself and the user has no
// uploaded avatar.
func (r *Resolver) AvatarField(u users.User, medium, clientGravatar bool) (string, bool) {
	if r.EnableGravatar && clientGravatar && !u.HasUploadedAvatar() {
		return "", false
	}
	return r.URL(u, medium), true
}

// URL returns the versioned avatar URL for u.
func (r *Resolver) URL(u users.User, medium bool) string {
	if u.HasUploadedAvatar() {
		return r.Store.AvatarURL(r.HashKey(u, u.AvatarVersion), medium, u.AvatarVersion)
	}
	return appendQuery(r.fallbackURL(u.Email, medium), fmt.Sprintf("version=%d", u.AvatarVersion))
}

// HashKey returns the storage key of u's avatar at version.
func (r *Resolver) HashKey(u users.User, version int) string {
	return object.AvatarBasePath(u.ID, u.RealmID, version, r.Salt)
}

// AbsoluteURL resolves the avatar URL against the realm URL when it is relative.
func (r *Resolver) AbsoluteURL(u users.User, realmURL string, medium bool) string {
	raw := r.URL(u, medium)
	ref, err := url.Parse(raw)
	if err != nil || ref.IsAbs() {
		return raw
	}
	base, err := url.Parse(realmURL)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

// InaccessibleUserURL is shown for users the viewer is not allowed to see.
func (r *Resolver) InaccessibleUserURL() string {
	return r.StaticURLPrefix + "images/unknown-user-avatar.png"
}

// IsAvatarNew reports whether data differs from the avatar u last uploaded.
func IsAvatarNew(data []byte, u users.User) bool {
	return u.AvatarHash == "" || u.AvatarHash != util.ContentHash(data)
}

func (r *Resolver) fallbackURL(email string, medium bool) string {
	if r.EnableGravatar {
		suffix := ""
		if medium {
			suffix = fmt.Sprintf("&s=%d", thumbnail.MediumAvatarSize)
		}
		return gravatarBase + util.GravatarHash(email) + "?d=identicon" + suffix
	}
	if r.DefaultAvatarURI != "" {
		return r.DefaultAvatarURI
	}
	return r.StaticURLPrefix + "images/default-avatar.png"
}

func appendQuery(raw, query string) string {
	if strings.Contains(raw, "?") {
		return raw + "&" + query
	}
	return raw + "?" + query
}

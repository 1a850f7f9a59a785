package object

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"realm-uploads/internal/shared/util"
)

// Category names a kind of stored content. Every category except
// attachments lives in the public (avatar) bucket.
type Category string

const (
	CategoryAttachment Category = "attachment"
	CategoryAvatar     Category = "avatar"
	CategoryRealmIcon  Category = "realm_icon"
	CategoryRealmLogo  Category = "realm_logo"
	CategoryEmoji      Category = "emoji"
	CategoryExport     Category = "export"
)

// ThumbnailPrefix is where generated attachment thumbnails are stored.
const ThumbnailPrefix = "thumbnail/"

const (
	originalSuffix     = ".original"
	mediumAvatarSuffix = "-medium.png"
	exportsPrefix      = "exports/"
	messageTokenBytes  = 18
	exportTokenBytes   = 16
)

// ParseCategory validates a category name.
func ParseCategory(raw string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case CategoryAttachment, CategoryAvatar, CategoryRealmIcon, CategoryRealmLogo, CategoryEmoji, CategoryExport:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", raw)
	}
}

// Public reports whether objects of this category are served from the public base URL.
func (c Category) Public() bool {
	return c != CategoryAttachment
}

// Matches reports whether key belongs to the category's namespace.
func (c Category) Matches(key string) bool {
	segments := strings.Split(key, "/")
	second := ""
	if len(segments) > 1 {
		second = segments[1]
	}
	base := path.Base(key)
	switch c {
	case CategoryAttachment:
		return true
	case CategoryExport:
		return strings.HasPrefix(key, exportsPrefix)
	case CategoryEmoji:
		return second == "emoji"
	case CategoryRealmIcon:
		return second == "realm" && strings.HasPrefix(base, "icon.")
	case CategoryRealmLogo:
		return second == "realm" && (strings.HasPrefix(base, "logo.") || strings.HasPrefix(base, "night_logo."))
	case CategoryAvatar:
		return !strings.HasPrefix(key, exportsPrefix) && len(segments) == 2
	default:
		return false
	}
}

// Derived reports whether key is a generated variant rather than an original upload.
func (c Category) Derived(key string) bool {
	switch c {
	case CategoryAttachment:
		return strings.HasPrefix(key, ThumbnailPrefix)
	case CategoryExport:
		return false
	default:
		return !strings.HasSuffix(key, originalSuffix)
	}
}

// Uploader identifies the user an object is written on behalf of.
type Uploader struct {
	UserID  int64
	RealmID int64
}

func (u *Uploader) metadata(extra map[string]string) map[string]string {
	md := make(map[string]string, len(extra)+2)
	if u != nil {
		md["user_profile_id"] = fmt.Sprintf("%d", u.UserID)
		md["realm_id"] = fmt.Sprintf("%d", u.RealmID)
	}
	for k, v := range extra {
		md[k] = v
	}
	return md
}

// GenerateMessageUploadPath returns {realm_id}/{token}/{sanitized_file_name}.
func GenerateMessageUploadPath(realmID int64, sanitizedFileName string) (string, error) {
	token, err := urlSafeToken(messageTokenBytes)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{fmt.Sprintf("%d", realmID), token, sanitizedFileName}, "/"), nil
}

// AvatarBasePath derives the storage hash key for a user's avatar at a
// given avatar version. The salt keeps the key unguessable from ids alone.
func AvatarBasePath(userID, realmID int64, version int, salt string) string {
	hash := util.HashUserKey(fmt.Sprintf("%d:%d:%s", userID, version, salt))
	return fmt.Sprintf("%d/%s", realmID, hash[:40])
}

// AvatarPath returns the rendition key for hashKey: medium or small (bare).
func AvatarPath(hashKey string, medium bool) string {
	if medium {
		return hashKey + mediumAvatarSuffix
	}
	return hashKey
}

// OriginalPath returns the key the unmodified upload is kept under.
func OriginalPath(key string) string {
	return key + originalSuffix
}

// RealmBrandingPath returns {realm_id}/realm/{basename} without extension.
func RealmBrandingPath(realmID int64, basename string) string {
	return fmt.Sprintf("%d/realm/%s", realmID, basename)
}

// EmojiPath returns {realm_id}/emoji/images/{file_name}.
func EmojiPath(realmID int64, fileName string) string {
	return fmt.Sprintf("%d/emoji/images/%s", realmID, fileName)
}

// EmojiStillPath returns the static preview key for an animated emoji.
func EmojiStillPath(realmID int64, fileName string) string {
	stem := strings.TrimSuffix(fileName, path.Ext(fileName))
	return fmt.Sprintf("%d/emoji/images/still/%s.png", realmID, stem)
}

// GenerateExportPath returns exports/{token}/{basename}.
func GenerateExportPath(basename string) (string, error) {
	var b [exportTokenBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate export token: %w", err)
	}
	return exportsPrefix + hex.EncodeToString(b[:]) + "/" + path.Base(basename), nil
}

func urlSafeToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate upload token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

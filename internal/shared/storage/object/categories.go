package object

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Message attachments.

// UploadMessageAttachment stores an attachment in the private bucket using
// the configured storage class.
func (b *Backend) UploadMessageAttachment(ctx context.Context, pathID, contentType string, data []byte, uploader *Uploader) error {
	return b.Upload(ctx, UploadInput{
		Category:     CategoryAttachment,
		Path:         pathID,
		Body:         bytes.NewReader(data),
		Size:         int64(len(data)),
		ContentType:  contentType,
		Uploader:     uploader,
		StorageClass: b.storageClass,
	})
}

// SaveAttachmentContents streams an attachment into w.
func (b *Backend) SaveAttachmentContents(ctx context.Context, pathID string, w io.Writer) error {
	obj, err := b.uploads.GetObject(ctx, pathID)
	if err != nil {
		return err
	}
	defer obj.Body.Close()
	if _, err := io.Copy(w, obj.Body); err != nil {
		return &StorageError{Op: "read", Bucket: b.uploads.Name(), Key: pathID, Err: err}
	}
	return nil
}

func (b *Backend) DeleteMessageAttachment(ctx context.Context, pathID string) (bool, error) {
	return b.Delete(ctx, CategoryAttachment, pathID)
}

func (b *Backend) DeleteMessageAttachments(ctx context.Context, pathIDs []string) error {
	return b.DeleteBatch(ctx, CategoryAttachment, pathIDs)
}

// AllMessageAttachments yields (path_id, last_modified) for every attachment.
func (b *Backend) AllMessageAttachments(ctx context.Context, includeThumbnails bool) iter.Seq2[ObjectInfo, error] {
	return b.List(ctx, CategoryAttachment, includeThumbnails)
}

// Avatars.

// AvatarURL returns the public URL of an avatar rendition.
func (b *Backend) AvatarURL(hashKey string, medium bool, version int) string {
	return b.ResolveVersionedURL(AvatarPath(hashKey, medium), version)
}

// AvatarContents reads the original upload kept next to the renditions.
func (b *Backend) AvatarContents(ctx context.Context, hashKey string) ([]byte, string, error) {
	return b.Fetch(ctx, CategoryAvatar, OriginalPath(hashKey))
}

// UploadSingleAvatarImage writes one avatar object. avatarVersion is the
// version the object belongs to and is recorded in its metadata.
func (b *Backend) UploadSingleAvatarImage(ctx context.Context, filePath string, uploader *Uploader, data []byte, contentType string, avatarVersion int) error {
	extra := map[string]string{"avatar_version": strconv.Itoa(avatarVersion)}
	return b.uploadBytes(ctx, CategoryAvatar, filePath, data, contentType, uploader, extra, ImmutableCacheControl)
}

// DeleteAvatarImage removes the original and both renditions.
func (b *Backend) DeleteAvatarImage(ctx context.Context, hashKey string) error {
	for _, key := range []string{OriginalPath(hashKey), AvatarPath(hashKey, true), AvatarPath(hashKey, false)} {
		if _, err := b.Delete(ctx, CategoryAvatar, key); err != nil {
			return err
		}
	}
	return nil
}

// Realm icon and logos.

func (b *Backend) RealmIconURL(realmID int64, version int) string {
	return b.ResolveVersionedURL(RealmBrandingPath(realmID, "icon")+".png", version)
}

func (b *Backend) RealmLogoURL(realmID int64, version int, night bool) string {
	return b.ResolveVersionedURL(RealmBrandingPath(realmID, logoBasename(night))+".png", version)
}

// UploadRealmIconImage stores the original icon and its resized png.
func (b *Backend) UploadRealmIconImage(ctx context.Context, realmID int64, uploader *Uploader, original []byte, contentType string, resized []byte) error {
	return b.uploadBranding(ctx, CategoryRealmIcon, RealmBrandingPath(realmID, "icon"), uploader, original, contentType, resized)
}

// UploadRealmLogoImage stores the original day or night logo and its resized png.
func (b *Backend) UploadRealmLogoImage(ctx context.Context, realmID int64, uploader *Uploader, night bool, original []byte, contentType string, resized []byte) error {
	return b.uploadBranding(ctx, CategoryRealmLogo, RealmBrandingPath(realmID, logoBasename(night)), uploader, original, contentType, resized)
}

func (b *Backend) uploadBranding(ctx context.Context, c Category, base string, uploader *Uploader, original []byte, contentType string, resized []byte) error {
	if err := b.uploadBytes(ctx, c, OriginalPath(base), original, contentType, uploader, nil, ""); err != nil {
		return err
	}
	return b.uploadBytes(ctx, c, base+".png", resized, "image/png", uploader, nil, "")
}

func logoBasename(night bool) string {
	if night {
		return "night_logo"
	}
	return "logo"
}

// Custom emoji.

// EmojiURL returns the public URL of an emoji or of its still preview.
func (b *Backend) EmojiURL(fileName string, realmID int64, still bool) string {
	if still {
		return b.ResolvePublicURL(EmojiStillPath(realmID, fileName))
	}
	return b.ResolvePublicURL(EmojiPath(realmID, fileName))
}

func (b *Backend) UploadSingleEmojiImage(ctx context.Context, path, contentType string, uploader *Uploader, data []byte) error {
	return b.uploadBytes(ctx, CategoryEmoji, path, data, contentType, uploader, nil, ImmutableCacheControl)
}

// Export tarballs.

// ExportProgress receives the cumulative number of bytes sent.
type ExportProgress func(sent int64)

// UploadExportTarball copies a local tarball into the public bucket under an
// unguessable key and returns its public URL and export path.
func (b *Backend) UploadExportTarball(ctx context.Context, realmID int64, tarballPath string, progress ExportProgress) (string, string, error) {
	f, err := os.Open(tarballPath)
	if err != nil {
		return "", "", fmt.Errorf("open tarball: %w", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return "", "", fmt.Errorf("stat tarball: %w", err)
	}

	key, err := GenerateExportPath(filepath.Base(tarballPath))
	if err != nil {
		return "", "", err
	}

	var body io.Reader = f
	if progress != nil {
		body = &progressReader{r: f, fn: progress}
	}
	err = b.Upload(ctx, UploadInput{
		Category:    CategoryExport,
		Path:        key,
		Body:        body,
		Size:        st.Size(),
		ContentType: "application/gzip",
		Uploader:    &Uploader{RealmID: realmID},
		Metadata:    map[string]string{"exported_at": time.Now().UTC().Format(time.RFC3339)},
	})
	if err != nil {
		return "", "", err
	}
	return b.ResolvePublicURL(key), "/" + key, nil
}

// ExportTarballURL maps an export path (with its leading slash) to a URL.
func (b *Backend) ExportTarballURL(exportPath string) string {
	return b.ResolvePublicURL(strings.TrimPrefix(exportPath, "/"))
}

// DeleteExportTarball deletes the tarball and returns the export path when
// it existed.
func (b *Backend) DeleteExportTarball(ctx context.Context, exportPath string) (string, bool, error) {
	if !strings.HasPrefix(exportPath, "/") {
		return "", false, fmt.Errorf("export path %q must start with /", exportPath)
	}
	existed, err := b.Delete(ctx, CategoryExport, exportPath[1:])
	if err != nil || !existed {
		return "", false, err
	}
	return exportPath, true, nil
}

type progressReader struct {
	r  io.Reader
	n  int64
	fn ExportProgress
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.n += int64(n)
		p.fn(p.n)
	}
	return n, err
}

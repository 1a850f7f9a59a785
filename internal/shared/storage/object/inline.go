package object

import (
	"mime"
	"strings"
)

// inlineMIMETypes may be rendered by the browser. Types that can execute
// script (text/html, image/svg+xml, application/xhtml+xml, text/xml, ...)
// must never be added here.
var inlineMIMETypes = map[string]struct{}{
	"application/pdf": {},
	"audio/aac":       {},
	"audio/flac":      {},
	"audio/mp4":       {},
	"audio/mpeg":      {},
	"audio/wav":       {},
	"audio/webm":      {},
	"image/apng":      {},
	"image/avif":      {},
	"image/gif":       {},
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"text/plain":      {},
	"video/mp4":       {},
	"video/webm":      {},
}

// IsInlineContentType reports whether contentType may be served inline.
func IsInlineContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(contentType)
	}
	_, ok := inlineMIMETypes[strings.ToLower(mediaType)]
	return ok
}

func dispositionFor(contentType string) string {
	if IsInlineContentType(contentType) {
		return ""
	}
	return "attachment"
}

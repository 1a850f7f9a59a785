package util

import (
	"errors"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}_.\-\s]`)
	fileWhitespace  = regexp.MustCompile(`[-\s]+`)
)

// ErrInvalidFileName is returned when nothing usable is left after sanitising.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName turns a user supplied name into a safe final path
// segment: NFKC normalised, only letters, digits, '_', '.', '-' kept,
// whitespace collapsed to '-', and never "." or "..".
func SanitizeFileName(name string) (string, error) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "/" || name == "." {
		return "", ErrInvalidFileName
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	stem = sanitizePart(stem)
	ext = sanitizePart(ext)

	out := stem + ext
	out = strings.TrimLeft(out, ".")
	if out == "" || strings.Trim(out, ".") == "" {
		return "", ErrInvalidFileName
	}
	return out, nil
}

func sanitizePart(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = unsafeFileChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return fileWhitespace.ReplaceAllString(s, "-")
}

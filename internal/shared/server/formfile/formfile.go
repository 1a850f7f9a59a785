// Package formfile reads a single uploaded file from a multipart request.
package formfile

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrMissing  = errors.New("file is required")
	ErrTooLarge = errors.New("file too large")
)

// multipartOverhead leaves room for boundaries and part headers.
const multipartOverhead = 1 << 20

// File is an uploaded file held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Read reads the form file named field. limit bounds the file size; zero
// means no limit.
func Read(c *gin.Context, field string, limit int64) (File, error) {
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}
	header, err := c.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return File{}, ErrTooLarge
		}
		return File{}, ErrMissing
	}
	if limit > 0 && header.Size > limit {
		return File{}, ErrTooLarge
	}
	f, err := header.Open()
	if err != nil {
		return File{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return File{}, err
	}
	return File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// Package media holds locally selected files and checks what they contain.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type Kind string

const (
	Image Kind = "image"
	Video Kind = "video"
)

var (
	ErrEmpty    = errors.New("media: empty file")
	ErrTooLarge = errors.New("media: file too large")
)

// File is a file chosen by the operator that has not been uploaded yet.
type File struct {
	Name string
	// DeclaredType is what the client said; MIME is what the bytes look like.
	DeclaredType string
	MIME         string
	Data         []byte
}

// Read loads a multipart upload, refusing anything over max bytes (0 = unlimited).
func Read(fh *multipart.FileHeader, max int64) (File, error) {
	if fh == nil || fh.Size == 0 {
		return File{}, ErrEmpty
	}
	if max > 0 && fh.Size > max {
		return File{}, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, fh.Filename, fh.Size)
	}
	r, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return New(fh.Filename, fh.Header.Get("Content-Type"), data), nil
}

func New(name, declared string, data []byte) File {
	return File{
		Name:         name,
		DeclaredType: declared,
		MIME:         mimetype.Detect(data).String(),
		Data:         data,
	}
}

// Check reports an error unless the content is of the given kind.
func Check(f File, kind Kind) error {
	if len(f.Data) == 0 {
		return ErrEmpty
	}
	if !strings.HasPrefix(f.MIME, string(kind)+"/") {
		return fmt.Errorf("%s is not a valid %s file (detected %s)", f.Name, kind, f.MIME)
	}
	return nil
}

// ContentType is the type sent upstream: the sniffed type unless detection fell back
// to a generic one.
func (f File) ContentType() string {
	if f.MIME == "" || f.MIME == "application/octet-stream" {
		if f.DeclaredType != "" {
			return f.DeclaredType
		}
		return "application/octet-stream"
	}
	return f.MIME
}

package validate

import (
	"errors"
	"fmt"
	"strings"
)

// MaxFileSize is the upload ceiling: 10 MiB.
const MaxFileSize = 10 << 20

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrFileTooLarge    = errors.New("file exceeds the size limit")
)

// allowedTypes is the fixed media type allow-list for uploads.
var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// Error is a user-visible validation failure for a single candidate file.
type Error struct {
	Filename string
	Reason   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Filename, e.Reason)
}

func (e *Error) Unwrap() error { return e.Reason }

// FileInfo describes one candidate file as declared by the client.
type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Gate filters candidate uploads by declared media type and size.
type Gate struct{}

func NewGate() *Gate { return &Gate{} }

// Check validates a single candidate. The type check runs first, so an
// oversized file of a disallowed type reports the type error.
func (g *Gate) Check(f FileInfo) error {
	mediaType := f.ContentType
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	if _, ok := allowedTypes[mediaType]; !ok {
		return &Error{Filename: f.Filename, Reason: fmt.Errorf("%w: %q", ErrUnsupportedType, mediaType)}
	}
	if f.Size > MaxFileSize {
		return &Error{Filename: f.Filename, Reason: fmt.Errorf("%w: %d bytes", ErrFileTooLarge, f.Size)}
	}

	return nil
}

// BatchError aggregates every rejection in a submitted batch.
type BatchError struct {
	Total    int
	Rejected []*Error
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Rejected))
	for _, r := range e.Rejected {
		msgs = append(msgs, r.Error())
	}
	return fmt.Sprintf("rejected %d of %d files: %s", len(e.Rejected), e.Total, strings.Join(msgs, "; "))
}

// CheckAll validates a batch. It returns the indexes of the accepted files
// in submission order; rejections are collected into a single aggregate
// BatchError naming every bad file. A rejected file never blocks the files
// that passed.
func (g *Gate) CheckAll(files []FileInfo) (accepted []int, berr *BatchError) {
	var rejected []*Error
	for i, f := range files {
		if err := g.Check(f); err != nil {
			var verr *Error
			if errors.As(err, &verr) {
				rejected = append(rejected, verr)
			}
			continue
		}
		accepted = append(accepted, i)
	}
	if len(rejected) > 0 {
		berr = &BatchError{Total: len(files), Rejected: rejected}
	}

	return accepted, berr
}

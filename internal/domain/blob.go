package domain

import (
	"fmt"
	"io"
)

// Blob is a stored chunk of bytes: an original capture, its metadata or a
// scaled copy.
type Blob struct {
	ID   BlobID
	Body []byte
}

var _ io.WriterTo = (*Blob)(nil)

func NewBlob(id BlobID, body []byte) *Blob {
	return &Blob{ID: id, Body: body}
}

// Size is the length of Body in bytes.
func (blob *Blob) Size() int64 {
	return int64(len(blob.Body))
}

func (blob *Blob) Bytes() []byte {
	return blob.Body
}

// WriteTo implements io.WriterTo.
func (blob *Blob) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(blob.Body)
	if err != nil {
		return int64(n), fmt.Errorf("write blob %s: %w", blob.ID, err)
	}

	return int64(n), nil
}

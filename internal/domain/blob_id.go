package domain

// BlobID is a string-based identifier for blob objects.
// Captured images use the Crockford Base32 encoded SHA-256 of their content.
type BlobID string

// String returns the string representation of the BlobID.
func (id BlobID) String() string {
	return string(id)
}

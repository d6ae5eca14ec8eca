package picstash

import "time"

// DefaultSignedURLExpiry is the validity window applied to signed URLs when no
// override is configured.
const DefaultSignedURLExpiry = 15 * time.Minute

// BlobInfo describes one blob as reported by a store's enumeration.
// A zero Updated means the store has no modification time for the blob.
type BlobInfo struct {
	Name        string
	Size        int64
	ContentType string
	Updated     time.Time
}

// Image is one entry of a metadata listing. URL is nil when signed-URL
// issuance failed for the blob, and Updated is nil when the store has no
// modification time.
type Image struct {
	Name     string  `json:"name"`
	Filename string  `json:"filename"`
	URL      *string `json:"url"`
	Size     int64   `json:"size"`
	Updated  *string `json:"updated"`
}

package transcript

import "context"

// DefaultMaxBytes caps uploads at 5 MiB.
const DefaultMaxBytes int64 = 5 << 20

// Config drives transcript intake.
type Config struct {
	MaxBytes int64
}

// Upload is a raw file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Result is the extracted transcript text.
type Result struct {
	Transcript string `json:"transcript"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}

// Archive keeps a copy of raw uploads in object storage.
type Archive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

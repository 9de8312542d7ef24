package domain

import (
	"fmt"
	"time"
)

// MaxDocumentBytes is the per-file upload ceiling for identity documents.
const MaxDocumentBytes = 5 * 1024 * 1024 // 5 MB

// Accepted identity-document MIME types. image/jpg is not a registered type
// but some clients send it for JPEGs, so it is tolerated.
var allowedDocumentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

type DocumentSide string

const (
	DocumentFront DocumentSide = "front"
	DocumentBack  DocumentSide = "back"
)

// IdentityDocument is a stored record of one uploaded ID image. Status is
// recorded for forward compatibility with a manual review queue; uploads in
// this service are accepted as verified once both sides pass validation.
type IdentityDocument struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"user_id"`
	Side        DocumentSide `json:"side"`
	Filename    string       `json:"filename"`
	ContentType string       `json:"content_type"`
	SizeBytes   int64        `json:"size_bytes"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Document review statuses.
const (
	DocumentPending  = "pending"
	DocumentVerified = "verified"
	DocumentRejected = "rejected"
)

// DocumentUpload is one side of an ID received from a multipart form.
type DocumentUpload struct {
	Side        DocumentSide
	Filename    string
	ContentType string
	SizeBytes   int64
}

// Validate checks one upload against the type and size limits.
func (d *DocumentUpload) Validate(maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = MaxDocumentBytes
	}
	if d.Side != DocumentFront && d.Side != DocumentBack {
		return fmt.Errorf("invalid document side: %q", d.Side)
	}
	if d.Filename == "" {
		return fmt.Errorf("%s image is required", d.Side)
	}
	if !allowedDocumentTypes[d.ContentType] {
		return fmt.Errorf("%s image must be a JPEG or PNG, got %q", d.Side, d.ContentType)
	}
	if d.SizeBytes <= 0 {
		return fmt.Errorf("%s image is empty", d.Side)
	}
	if d.SizeBytes > maxBytes {
		return fmt.Errorf("%s image exceeds the %d byte limit", d.Side, maxBytes)
	}
	return nil
}

// ValidateDocumentPair checks that both sides are present and individually
// valid. Submission is rejected unless both pass.
func ValidateDocumentPair(front, back *DocumentUpload, maxBytes int64) error {
	if front == nil {
		return fmt.Errorf("front image is required")
	}
	if back == nil {
		return fmt.Errorf("back image is required")
	}
	if err := front.Validate(maxBytes); err != nil {
		return err
	}
	return back.Validate(maxBytes)
}

// Package archive copies chat transcripts to Cloud Storage before they are
// deleted. Objects are written as JSON Lines under
// transcripts/{user_id}/{timestamp}.jsonl.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/conversation"
)

const objectTimeFormat = "20060102T150405Z"

// GCSArchiver writes transcripts to a Cloud Storage bucket.
type GCSArchiver struct {
	bucket string

	// now is swappable so tests can pin the object name.
	now func() time.Time
}

// NewGCSArchiver creates an archiver targeting the given bucket.
func NewGCSArchiver(bucket string) *GCSArchiver {
	return &GCSArchiver{
		bucket: bucket,
		now:    time.Now,
	}
}

// Archive uploads the turns as one JSONL object, one turn per line. The
// object name embeds the user id and the upload time in UTC.
func (a *GCSArchiver) Archive(ctx context.Context, userID string, turns []conversation.Turn) error {
	objectName := fmt.Sprintf("transcripts/%s/%s.jsonl",
		userID, a.now().UTC().Format(objectTimeFormat))

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("Archive: create storage client: %w", err)
	}
	defer client.Close()

	w := client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/jsonl"

	enc := json.NewEncoder(w)
	for _, turn := range turns {
		if err := enc.Encode(turn); err != nil {
			_ = w.Close()
			return fmt.Errorf("Archive: encode turn %s: %w", turn.ID, err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("Archive: close writer: %w", err)
	}
	return nil
}

// Ensure GCSArchiver implements the orchestrator's contract.
var _ assistant.TranscriptArchiver = (*GCSArchiver)(nil)

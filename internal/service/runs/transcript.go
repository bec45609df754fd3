package runs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/loftcad-labs/loftcad-go/internal/cad"
)

// TranscriptEntry is one recorded gateway exchange, in submission order.
type TranscriptEntry struct {
	Index    int             `json:"index"`
	Method   string          `json:"method"`
	Path     string          `json:"path"`
	Request  any             `json:"request,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// recordingGateway decorates a gateway with an ordered transcript of every
// call it relayed. Owned by exactly one run.
type recordingGateway struct {
	inner   interface {
		Do(ctx context.Context, req cad.Request, out any) error
	}
	entries []TranscriptEntry
}

func (g *recordingGateway) Do(ctx context.Context, req cad.Request, out any) error {
	entry := TranscriptEntry{
		Index:   len(g.entries),
		Method:  req.Method,
		Path:    req.Path,
		Request: req.Body,
	}

	var raw json.RawMessage
	err := g.inner.Do(ctx, req, &raw)
	if err != nil {
		entry.Error = err.Error()
		g.entries = append(g.entries, entry)
		return err
	}
	entry.Response = raw
	g.entries = append(g.entries, entry)

	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// Transcript returns the recorded entries in call order.
func (g *recordingGateway) Transcript() []TranscriptEntry {
	return append([]TranscriptEntry(nil), g.entries...)
}

// TranscriptExporter persists a run transcript and returns its storage key.
type TranscriptExporter interface {
	Export(ctx context.Context, runID string, entries []TranscriptEntry) (string, error)
}

// ObjectStoreExporter writes transcripts as JSON objects to the configured
// bucket.
type ObjectStoreExporter struct {
	Client *minio.Client
	Bucket string
}

func (e *ObjectStoreExporter) Export(ctx context.Context, runID string, entries []TranscriptEntry) (string, error) {
	if e == nil || e.Client == nil {
		return "", fmt.Errorf("object store exporter not initialized")
	}
	body := struct {
		RunID      string            `json:"run_id"`
		ExportedAt time.Time         `json:"exported_at"`
		Entries    []TranscriptEntry `json:"entries"`
	}{
		RunID:      runID,
		ExportedAt: time.Now().UTC(),
		Entries:    entries,
	}
	blob, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	key := fmt.Sprintf("runs/%s/transcript.json", runID)
	_, err = e.Client.PutObject(ctx, e.Bucket, key, bytes.NewReader(blob), int64(len(blob)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("put transcript: %w", err)
	}
	return key, nil
}

package ingest

import (
	"context"
	"strconv"
	"time"

	"github.com/casemellow/chatbot/engine/catalog"
	"github.com/casemellow/chatbot/engine/semantic"
	"github.com/google/uuid"
)

// Embedder maps text to a fixed-length vector. A nil vector with a nil
// error means "no embedding" (blank input) and the record is skipped.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Upserter stores vector records into a named collection.
type Upserter interface {
	Upsert(ctx context.Context, collection string, records []semantic.VectorRecord) error
}

// Report summarizes one ingestion run.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Options tunes batch pacing. After every BatchSize successful records the
// pipeline pauses for Pause to stay under embedding API rate limits.
type Options struct {
	BatchSize int
	Pause     time.Duration
}

// DefaultOptions matches the production ingestion pacing.
func DefaultOptions() Options {
	return Options{BatchSize: 10, Pause: time.Second}
}

// entry is a normalized record ready for embedding.
type entry struct {
	Key  string
	Kind catalog.Kind
	Text string
	Meta map[string]any
}

// embeddedEntry is an entry with its vector.
type embeddedEntry struct {
	entry
	Vector []float32
}

// EntryKey derives the deterministic entry id for a record: "<prefix>_<idx>".
// Re-ingesting the same dataset reproduces the same keys, so upserts
// overwrite rather than append.
func EntryKey(kind catalog.Kind, idx int) string {
	return kind.Prefix() + "_" + strconv.Itoa(idx)
}

// PointID maps an entry key to the stable UUID used as the vector store
// point id.
func PointID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

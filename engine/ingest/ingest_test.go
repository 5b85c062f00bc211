package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/casemellow/chatbot/engine/catalog"
	"github.com/casemellow/chatbot/engine/semantic"
)

// --- fakes ---

type fakeEmbedder struct {
	mu    sync.Mutex
	calls []string
	fn    func(text string) ([]float32, error)
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeStore struct {
	mu      sync.Mutex
	entries map[string]map[string]semantic.VectorRecord // collection -> id -> record
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]map[string]semantic.VectorRecord)}
}

func (f *fakeStore) Upsert(_ context.Context, collection string, records []semantic.VectorRecord) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries[collection] == nil {
		f.entries[collection] = make(map[string]semantic.VectorRecord)
	}
	for _, r := range records {
		f.entries[collection][r.ID] = r
	}
	return nil
}

func (f *fakeStore) count(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries[collection])
}

func newTestPipeline(embed Embedder, store Upserter, opts Options) *Pipeline {
	p := New(embed, store, opts, slog.Default())
	p.sleep = func(context.Context, time.Duration) {}
	return p
}

func sampleFAQs() []catalog.FAQ {
	return []catalog.FAQ{
		{Question: "What is your return policy?", Answer: "30 days."},
		{Question: "Do you ship internationally?", Answer: "Yes, worldwide."},
	}
}

// --- tests ---

func TestRunFAQs_Success(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(&fakeEmbedder{}, store, Options{})

	rep := p.RunFAQs(context.Background(), sampleFAQs())

	if rep.Succeeded != 2 || rep.Failed != 0 || rep.Skipped != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if store.count("faqs") != 2 {
		t.Fatalf("expected 2 stored entries, got %d", store.count("faqs"))
	}

	rec, ok := store.entries["faqs"][PointID(EntryKey(catalog.KindFAQs, 0))]
	if !ok {
		t.Fatal("first FAQ not stored under its deterministic id")
	}
	if rec.Payload["question"] != "What is your return policy?" {
		t.Errorf("question payload: %v", rec.Payload["question"])
	}
	if rec.Payload["answer"] != "30 days." {
		t.Errorf("answer payload: %v", rec.Payload["answer"])
	}
	if rec.Payload["text"] != "Q: What is your return policy?\nA: 30 days." {
		t.Errorf("canonical text payload: %v", rec.Payload["text"])
	}
}

func TestRunProducts_MetadataStringified(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(&fakeEmbedder{}, store, Options{})

	products := []catalog.Product{{
		Name:     "Mellow Armor Case",
		Brand:    "Casemellow",
		Model:    "iPhone 15 Pro",
		Price:    "599",
		Category: "cases",
		URL:      "http://localhost:3000/products/cases/x",
	}}
	rep := p.RunProducts(context.Background(), products)
	if rep.Succeeded != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	rec := store.entries["products"][PointID("product_0")]
	for key, want := range map[string]string{
		"productName":     "Mellow Armor Case",
		"productPrice":    "599",
		"brandName":       "Casemellow",
		"phoneModel":      "iPhone 15 Pro",
		"productCategory": "cases",
		"entry_id":        "product_0",
	} {
		got, ok := rec.Payload[key].(string)
		if !ok || got != want {
			t.Errorf("payload[%s] = %v, want %q", key, rec.Payload[key], want)
		}
	}
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	store := newFakeStore()
	embed := &fakeEmbedder{fn: func(text string) ([]float32, error) {
		if text == "Q: bad\nA: record" {
			return nil, errors.New("quota exceeded")
		}
		return []float32{1}, nil
	}}
	p := newTestPipeline(embed, store, Options{})

	faqs := []catalog.FAQ{
		{Question: "ok one", Answer: "a"},
		{Question: "bad", Answer: "record"},
		{Question: "ok two", Answer: "b"},
	}
	rep := p.RunFAQs(context.Background(), faqs)

	if rep.Succeeded != 2 {
		t.Errorf("succeeded = %d, want 2", rep.Succeeded)
	}
	if rep.Failed != 1 {
		t.Errorf("failed = %d, want 1", rep.Failed)
	}
	if store.count("faqs") != 2 {
		t.Errorf("stored = %d, want 2", store.count("faqs"))
	}
}

func TestRun_BlankRecordSkippedWithoutEmbedCall(t *testing.T) {
	store := newFakeStore()
	embed := &fakeEmbedder{}
	p := newTestPipeline(embed, store, Options{})

	faqs := []catalog.FAQ{
		{Question: "real", Answer: "answer"},
		{}, // blank, normalizes to ""
	}
	rep := p.RunFAQs(context.Background(), faqs)

	if rep.Succeeded != 1 || rep.Skipped != 1 || rep.Failed != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	for _, call := range embed.calls {
		if call == "" {
			t.Error("embedder must never be called with blank text")
		}
	}
}

func TestRun_IdempotentReingestion(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(&fakeEmbedder{}, store, Options{})

	faqs := sampleFAQs()
	p.RunFAQs(context.Background(), faqs)
	first := store.count("faqs")
	p.RunFAQs(context.Background(), faqs)

	if store.count("faqs") != first {
		t.Errorf("re-ingestion grew the collection: %d -> %d", first, store.count("faqs"))
	}
}

func TestRun_PacingAfterEachBatch(t *testing.T) {
	store := newFakeStore()
	p := New(&fakeEmbedder{}, store, Options{BatchSize: 2, Pause: time.Second}, slog.Default())

	var pauses int
	p.sleep = func(context.Context, time.Duration) { pauses++ }

	faqs := make([]catalog.FAQ, 5)
	for i := range faqs {
		faqs[i] = catalog.FAQ{Question: "q", Answer: "a"}
	}
	p.RunFAQs(context.Background(), faqs)

	if pauses != 2 {
		t.Errorf("pauses = %d, want 2 (after records 2 and 4)", pauses)
	}
}

func TestRun_StoreErrorCountsAsFailure(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("store unavailable")
	p := newTestPipeline(&fakeEmbedder{}, store, Options{})

	rep := p.RunFAQs(context.Background(), sampleFAQs())
	if rep.Succeeded != 0 || rep.Failed != 2 {
		t.Errorf("unexpected report: %+v", rep)
	}
}

func TestPointID_Deterministic(t *testing.T) {
	a := PointID("faq_0")
	b := PointID("faq_0")
	if a != b {
		t.Error("same key must map to same point id")
	}
	if a == PointID("faq_1") {
		t.Error("different keys must map to different point ids")
	}
}

func TestEntryKey(t *testing.T) {
	if got := EntryKey(catalog.KindProducts, 12); got != "product_12" {
		t.Errorf("got %q", got)
	}
	if got := EntryKey(catalog.KindFAQs, 0); got != "faq_0" {
		t.Errorf("got %q", got)
	}
}

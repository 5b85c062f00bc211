// Package ingest populates the vector store from the catalog datasets.
// Each record is normalized, embedded, and upserted with deterministic
// ids; a bad record never aborts the batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/casemellow/chatbot/engine/catalog"
	"github.com/casemellow/chatbot/engine/semantic"
	"github.com/casemellow/chatbot/pkg/fn"
)

// Pipeline runs records through normalize → embed → upsert.
type Pipeline struct {
	embed  Embedder
	store  Upserter
	opts   Options
	logger *slog.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a Pipeline.
func New(embed Embedder, store Upserter, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultOptions().BatchSize
	}
	if opts.Pause <= 0 {
		opts.Pause = DefaultOptions().Pause
	}
	return &Pipeline{
		embed:  embed,
		store:  store,
		opts:   opts,
		logger: logger,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// embedStage turns an entry into an embeddedEntry. Blank text surfaces as
// ErrNoEmbedding so the caller can count it as a skip, not a failure.
func (p *Pipeline) embedStage() fn.Stage[entry, embeddedEntry] {
	return fn.Traced("ingest.embed", func(ctx context.Context, e entry) fn.Result[embeddedEntry] {
		vec, err := p.embed.Embed(ctx, e.Text)
		if err != nil {
			return fn.Err[embeddedEntry](fmt.Errorf("embed %s: %w", e.Key, err))
		}
		if len(vec) == 0 {
			return fn.Err[embeddedEntry](fmt.Errorf("%s: %w", e.Key, catalog.ErrNoEmbedding))
		}
		return fn.Ok(embeddedEntry{entry: e, Vector: vec})
	})
}

// storeStage upserts an embedded entry into its kind's collection.
func (p *Pipeline) storeStage() fn.Stage[embeddedEntry, string] {
	return fn.Traced("ingest.store", func(ctx context.Context, e embeddedEntry) fn.Result[string] {
		rec := semantic.VectorRecord{
			ID:        PointID(e.Key),
			Embedding: e.Vector,
			Payload:   e.Meta,
		}
		if err := p.store.Upsert(ctx, string(e.Kind), []semantic.VectorRecord{rec}); err != nil {
			return fn.Err[string](fmt.Errorf("upsert %s: %w", e.Key, err))
		}
		return fn.Ok(e.Key)
	})
}

// upsertOne runs one entry through the composed pipeline.
func (p *Pipeline) upsertOne(ctx context.Context, e entry) error {
	if e.Text == "" {
		return fmt.Errorf("%s: %w", e.Key, catalog.ErrNoEmbedding)
	}
	stage := fn.Then(p.embedStage(), p.storeStage())
	_, err := stage(ctx, e).Unwrap()
	return err
}

// UpsertProduct embeds and stores a single product under its positional id.
func (p *Pipeline) UpsertProduct(ctx context.Context, idx int, prod catalog.Product) error {
	return p.upsertOne(ctx, productEntry(idx, prod))
}

// UpsertFAQ embeds and stores a single FAQ under its positional id.
func (p *Pipeline) UpsertFAQ(ctx context.Context, idx int, faq catalog.FAQ) error {
	return p.upsertOne(ctx, faqEntry(idx, faq))
}

// RunProducts ingests the product dataset in input order.
func (p *Pipeline) RunProducts(ctx context.Context, products []catalog.Product) Report {
	entries := make([]entry, len(products))
	for i, prod := range products {
		entries[i] = productEntry(i, prod)
	}
	return p.run(ctx, catalog.KindProducts, entries)
}

// RunFAQs ingests the FAQ dataset in input order.
func (p *Pipeline) RunFAQs(ctx context.Context, faqs []catalog.FAQ) Report {
	entries := make([]entry, len(faqs))
	for i, f := range faqs {
		entries[i] = faqEntry(i, f)
	}
	return p.run(ctx, catalog.KindFAQs, entries)
}

// run processes entries with per-record error isolation and batch pacing.
func (p *Pipeline) run(ctx context.Context, kind catalog.Kind, entries []entry) Report {
	rep := Report{Total: len(entries)}
	for _, e := range entries {
		if ctx.Err() != nil {
			p.logger.Warn("ingest: cancelled", "kind", kind, "done", rep.Succeeded)
			break
		}
		err := p.upsertOne(ctx, e)
		switch {
		case err == nil:
			rep.Succeeded++
			p.logger.Info("ingest: stored", "kind", kind, "key", e.Key,
				"progress", fmt.Sprintf("%d/%d", rep.Succeeded, len(entries)))
			if rep.Succeeded%p.opts.BatchSize == 0 {
				p.logger.Info("ingest: pausing", "kind", kind, "after", rep.Succeeded)
				p.sleep(ctx, p.opts.Pause)
			}
		case errors.Is(err, catalog.ErrNoEmbedding):
			rep.Skipped++
			p.logger.Warn("ingest: skipped blank record", "kind", kind, "key", e.Key)
		default:
			rep.Failed++
			p.logger.Error("ingest: record failed", "kind", kind, "key", e.Key, "error", err)
		}
	}
	p.logger.Info("ingest: done", "kind", kind,
		"succeeded", rep.Succeeded, "failed", rep.Failed, "skipped", rep.Skipped)
	return rep
}

// productEntry builds the normalized entry and stringified metadata for a
// product. The canonical text rides along in the payload under "text".
func productEntry(idx int, p catalog.Product) entry {
	key := EntryKey(catalog.KindProducts, idx)
	text := catalog.ProductText(p)
	return entry{
		Key:  key,
		Kind: catalog.KindProducts,
		Text: text,
		Meta: map[string]any{
			"entry_id":        key,
			"text":            text,
			"productName":     p.Name,
			"productUrl":      p.URL,
			"productImage":    p.Image,
			"productPrice":    p.Price.String(),
			"brandName":       p.Brand,
			"phoneModel":      p.Model,
			"productCategory": p.Category,
		},
	}
}

// faqEntry builds the normalized entry and metadata for a FAQ.
func faqEntry(idx int, f catalog.FAQ) entry {
	key := EntryKey(catalog.KindFAQs, idx)
	text := catalog.FAQText(f)
	return entry{
		Key:  key,
		Kind: catalog.KindFAQs,
		Text: text,
		Meta: map[string]any{
			"entry_id": key,
			"text":     text,
			"question": f.Question,
			"answer":   f.Answer,
		},
	}
}

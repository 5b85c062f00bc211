// Command ingest populates the vector store from the catalog datasets,
// optionally cleaning a raw storefront dump first. With -subscribe it
// stays running and applies single-record catalog updates from NATS.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/casemellow/chatbot/engine/catalog"
	"github.com/casemellow/chatbot/engine/ingest"
	"github.com/casemellow/chatbot/engine/semantic"
	"github.com/casemellow/chatbot/pkg/gemini"
	"github.com/casemellow/chatbot/pkg/metrics"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
)

// gemini-embedding-001 output dimensionality.
const vectorDims = 3072

var met = metrics.New()

var (
	mSucceeded = func(kind string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("casemellow_ingest_records_total", "kind", kind), "Records embedded and stored")
	}
	mFailed = func(kind string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("casemellow_ingest_errors_total", "kind", kind), "Records that failed ingestion")
	}
	mSkipped = func(kind string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("casemellow_ingest_skipped_total", "kind", kind), "Blank records skipped")
	}
)

func main() {
	var (
		productsPath = flag.String("products", "data/cleaned_products.json", "cleaned products dataset")
		faqsPath     = flag.String("faqs", "data/faqs.json", "FAQ dataset")
		rawPath      = flag.String("raw", "", "raw storefront dump to clean before ingesting")
		baseURL      = flag.String("base-url", "http://localhost:3000", "store base URL for product links")
		qdrantAddr   = flag.String("qdrant", "localhost:6334", "Qdrant gRPC address")
		batchSize    = flag.Int("batch", 10, "successful records between pauses")
		pause        = flag.Duration("pause", time.Second, "pause duration between batches")
		subscribe    = flag.Bool("subscribe", false, "stay running and consume catalog updates")
		natsURL      = flag.String("nats", nats.DefaultURL, "NATS server URL for -subscribe")
		metricsPort  = flag.Int("metrics-port", 9091, "metrics port")
	)
	flag.Parse()

	_ = godotenv.Load()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	met.ServeAsync(*metricsPort)

	// Embedder is required: without it there is nothing to ingest.
	gem, err := gemini.NewClient(ctx, os.Getenv("GOOGLE_API_KEY"), gemini.DefaultOptions())
	if err != nil {
		log.Error("gemini init failed", "error", err)
		os.Exit(1)
	}

	store, err := semantic.New(*qdrantAddr)
	if err != nil {
		log.Error("qdrant connect failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Missing collections are fatal here: the API has nothing to query
	// until both exist.
	for _, kind := range []catalog.Kind{catalog.KindProducts, catalog.KindFAQs} {
		if err := store.EnsureCollection(ctx, string(kind), vectorDims); err != nil {
			log.Error("ensure collection failed", "collection", kind, "error", err)
			os.Exit(1)
		}
	}
	log.Info("connected to Qdrant", "addr", *qdrantAddr, "dims", vectorDims)

	pipeline := ingest.New(gem, store, ingest.Options{BatchSize: *batchSize, Pause: *pause}, log)

	if *rawPath != "" {
		raws, err := ingest.LoadRawProducts(*rawPath)
		if err != nil {
			log.Error("raw dump load failed, aborting", "error", err)
			os.Exit(1)
		}
		cleaned := catalog.CleanProducts(raws, *baseURL)
		if err := ingest.SaveProducts(*productsPath, cleaned); err != nil {
			log.Error("cleaned products save failed", "error", err)
			os.Exit(1)
		}
		log.Info("cleaned raw dump", "records", len(cleaned), "out", *productsPath)
	}

	// A missing dataset aborts the whole run with zero successes.
	products, err := ingest.LoadProducts(*productsPath)
	if err != nil {
		log.Error("product dataset load failed, nothing ingested", "error", err)
		os.Exit(1)
	}
	faqs, err := ingest.LoadFAQs(*faqsPath)
	if err != nil {
		log.Error("faq dataset load failed, nothing ingested", "error", err)
		os.Exit(1)
	}

	prodReport := pipeline.RunProducts(ctx, products)
	record(catalog.KindProducts, prodReport)
	faqReport := pipeline.RunFAQs(ctx, faqs)
	record(catalog.KindFAQs, faqReport)

	log.Info("ingestion complete",
		"products_ok", prodReport.Succeeded, "products_failed", prodReport.Failed,
		"faqs_ok", faqReport.Succeeded, "faqs_failed", faqReport.Failed)

	if !*subscribe {
		return
	}

	nc, err := nats.Connect(*natsURL)
	if err != nil {
		log.Error("nats connect failed", "error", err)
		os.Exit(1)
	}
	defer nc.Close()

	sub, err := ingest.StartConsumer(nc, pipeline, log)
	if err != nil {
		log.Error("consumer start failed", "error", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	log.Info("listening for catalog updates", "subject", ingest.UpdateSubject)
	<-ctx.Done()
	log.Info("shutting down")
}

func record(kind catalog.Kind, rep ingest.Report) {
	mSucceeded(string(kind)).Add(int64(rep.Succeeded))
	mFailed(string(kind)).Add(int64(rep.Failed))
	mSkipped(string(kind)).Add(int64(rep.Skipped))
}

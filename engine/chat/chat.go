// Package chat orchestrates the retrieval-augmented answer pipeline: it
// embeds the user's query, retrieves nearest products and FAQs from the
// vector store, and asks the generative model for a conversational answer
// grounded in that context. Generation failures are masked with a
// deterministic fallback so retrieval results always reach the user.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/casemellow/chatbot/engine/catalog"
	"github.com/casemellow/chatbot/engine/semantic"
	"github.com/casemellow/chatbot/pkg/resilience"
)

// Embedder maps query text to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces answer text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher abstracts nearest-neighbor search over a named collection.
type Searcher interface {
	Search(ctx context.Context, collection string, embedding []float32, topK int) ([]semantic.SearchResult, error)
}

// Options configures retrieval and context assembly.
type Options struct {
	// Defaults applied when the caller passes k <= 0.
	TopKProducts int `yaml:"top_k_products"`
	TopKFAQs     int `yaml:"top_k_faqs"`
	// Hard per-collection caps; requested k is clamped to these.
	MaxTopKProducts int `yaml:"max_top_k_products"`
	MaxTopKFAQs     int `yaml:"max_top_k_faqs"`
	// Context caps: retrieval may fetch more than is shown to the model.
	ContextProducts int `yaml:"context_products"`
	ContextFAQs     int `yaml:"context_faqs"`
	// Bound on each vector store call.
	SearchTimeout time.Duration `yaml:"search_timeout"`
}

// DefaultOptions returns the production retrieval parameters.
func DefaultOptions() Options {
	return Options{
		TopKProducts:    3,
		TopKFAQs:        2,
		MaxTopKProducts: 10,
		MaxTopKFAQs:     5,
		ContextProducts: 5,
		ContextFAQs:     3,
		SearchTimeout:   5 * time.Second,
	}
}

// Service assembles chat responses. All collaborators are injected; a nil
// collaborator reports as unavailable rather than panicking.
type Service struct {
	embed   Embedder
	gen     Generator
	search  Searcher
	breaker *resilience.Breaker
	opts    Options
	logger  *slog.Logger
}

// New creates a chat Service.
func New(embed Embedder, gen Generator, search Searcher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if opts.TopKProducts <= 0 {
		opts.TopKProducts = def.TopKProducts
	}
	if opts.TopKFAQs <= 0 {
		opts.TopKFAQs = def.TopKFAQs
	}
	if opts.MaxTopKProducts <= 0 {
		opts.MaxTopKProducts = def.MaxTopKProducts
	}
	if opts.MaxTopKFAQs <= 0 {
		opts.MaxTopKFAQs = def.MaxTopKFAQs
	}
	if opts.ContextProducts <= 0 {
		opts.ContextProducts = def.ContextProducts
	}
	if opts.ContextFAQs <= 0 {
		opts.ContextFAQs = def.ContextFAQs
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = def.SearchTimeout
	}
	return &Service{
		embed:   embed,
		gen:     gen,
		search:  search,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		opts:    opts,
		logger:  logger,
	}
}

// Ready reports which collaborators are wired, for health checks.
func (s *Service) Ready() (store bool, model bool) {
	return s.search != nil && s.embed != nil, s.gen != nil
}

// Query runs the full pipeline for one user query. Validation and
// availability errors propagate; retrieval and generation errors degrade.
func (s *Service) Query(ctx context.Context, text string, topKProducts, topKFAQs int) (*Response, error) {
	query, err := catalog.ValidateQuery(text)
	if err != nil {
		return nil, err
	}
	if s.search == nil || s.embed == nil {
		return nil, catalog.ErrStoreUnavailable
	}
	if s.gen == nil {
		return nil, catalog.ErrModelUnavailable
	}

	if topKProducts <= 0 {
		topKProducts = s.opts.TopKProducts
	}
	if topKFAQs <= 0 {
		topKFAQs = s.opts.TopKFAQs
	}
	topKProducts = min(topKProducts, s.opts.MaxTopKProducts)
	topKFAQs = min(topKFAQs, s.opts.MaxTopKFAQs)

	// Embed once; both retrievals share the vector. An embedding failure
	// degrades to empty retrieval, not a request failure.
	var products []ProductResult
	var faqs []FAQResult
	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		s.logger.Error("chat: query embed failed", "error", err)
	} else if len(vec) > 0 {
		products = s.retrieveProducts(ctx, vec, topKProducts)
		faqs = s.retrieveFAQs(ctx, vec, topKFAQs)
	}

	answer := s.generate(ctx, query, products, faqs)

	return &Response{
		Query:      query,
		Text:       answer,
		Products:   products,
		FAQs:       faqs,
		HasResults: len(products) > 0 || len(faqs) > 0,
		Context:    fmt.Sprintf("Found %d products and %d FAQs", len(products), len(faqs)),
	}, nil
}

// retrieveProducts searches the products collection and keeps hits that
// carry the required display fields.
func (s *Service) retrieveProducts(ctx context.Context, vec []float32, topK int) []ProductResult {
	hits, err := s.searchCollection(ctx, catalog.KindProducts, vec, topK)
	if err != nil {
		s.logger.Error("chat: product retrieval failed", "error", err)
		return nil
	}
	var out []ProductResult
	for _, h := range hits {
		if h.Field("productName") == "" || h.Field("productPrice") == "" {
			continue
		}
		out = append(out, ProductResult{
			Name:     h.Field("productName"),
			URL:      h.Field("productUrl"),
			Image:    h.Field("productImage"),
			Price:    h.Field("productPrice"),
			Brand:    h.Field("brandName"),
			Model:    h.Field("phoneModel"),
			Category: h.Field("productCategory"),
		})
	}
	return out
}

// retrieveFAQs searches the faqs collection, dropping incomplete pairs.
func (s *Service) retrieveFAQs(ctx context.Context, vec []float32, topK int) []FAQResult {
	hits, err := s.searchCollection(ctx, catalog.KindFAQs, vec, topK)
	if err != nil {
		s.logger.Error("chat: faq retrieval failed", "error", err)
		return nil
	}
	var out []FAQResult
	for _, h := range hits {
		if h.Field("question") == "" || h.Field("answer") == "" {
			continue
		}
		out = append(out, FAQResult{
			Question: h.Field("question"),
			Answer:   h.Field("answer"),
		})
	}
	return out
}

func (s *Service) searchCollection(ctx context.Context, kind catalog.Kind, vec []float32, topK int) ([]semantic.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()
	return s.search.Search(ctx, string(kind), vec, topK)
}

// generate asks the model for an answer, falling back to a deterministic
// sentence derived from the retrieval counts on any failure. The circuit
// breaker short-circuits a flapping model straight to the fallback.
func (s *Service) generate(ctx context.Context, query string, products []ProductResult, faqs []FAQResult) string {
	prompt := buildPrompt(query, capProducts(products, s.opts.ContextProducts), capFAQs(faqs, s.opts.ContextFAQs))

	var answer string
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		var genErr error
		answer, genErr = s.gen.Generate(ctx, prompt)
		return genErr
	})
	if err != nil {
		s.logger.Error("chat: generation failed, using fallback", "error", err)
		return fallbackText(len(products), len(faqs))
	}
	if answer == "" {
		return fallbackText(len(products), len(faqs))
	}
	return answer
}

func capProducts(p []ProductResult, n int) []ProductResult {
	if len(p) > n {
		return p[:n]
	}
	return p
}

func capFAQs(f []FAQResult, n int) []FAQResult {
	if len(f) > n {
		return f[:n]
	}
	return f
}

// fallbackText is the masked-failure answer: the user always gets some
// text reflecting what retrieval actually found.
func fallbackText(products, faqs int) string {
	switch {
	case products > 0:
		return fmt.Sprintf("I found %d product(s) that match your query. Check them out below!", products)
	case faqs > 0:
		return "I found some helpful information that might answer your question."
	default:
		return "I couldn't find exactly what you're looking for. Try rephrasing your question or browse our categories!"
	}
}

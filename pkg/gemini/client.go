// Package gemini wraps the Google Gemini API for embeddings and text
// generation behind the two small interfaces the engine consumes.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Model identifiers and generation parameters.
const (
	DefaultEmbedModel = "gemini-embedding-001"
	DefaultChatModel  = "gemini-2.0-flash-exp"
)

// Options configures the Gemini client.
type Options struct {
	EmbedModel      string  `yaml:"embed_model"`
	ChatModel       string  `yaml:"chat_model"`
	Temperature     float32 `yaml:"temperature"`
	TopP            float32 `yaml:"top_p"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// DefaultOptions returns the production generation parameters.
func DefaultOptions() Options {
	return Options{
		EmbedModel:      DefaultEmbedModel,
		ChatModel:       DefaultChatModel,
		Temperature:     0.7,
		TopP:            0.9,
		MaxOutputTokens: 1000,
	}
}

// Client is a Gemini-backed embedder and generator.
type Client struct {
	client *genai.Client
	opts   Options
}

// NewClient creates a Client authenticated with the given API key.
func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: missing API key")
	}
	if opts.EmbedModel == "" {
		opts.EmbedModel = DefaultEmbedModel
	}
	if opts.ChatModel == "" {
		opts.ChatModel = DefaultChatModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Client{client: c, opts: opts}, nil
}

// Embed maps text to a fixed-length vector. Blank input returns (nil, nil)
// without calling the API; callers treat a nil vector as "skip".
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	resp, err := c.client.Models.EmbedContent(ctx, c.opts.EmbedModel,
		genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: embed: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, nil
	}
	return resp.Embeddings[0].Values, nil
}

// Generate produces answer text for a prompt using the configured chat
// model and generation parameters.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.opts.Temperature),
		TopP:            genai.Ptr(c.opts.TopP),
		MaxOutputTokens: c.opts.MaxOutputTokens,
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.opts.ChatModel,
		genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

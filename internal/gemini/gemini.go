// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gemini wraps the Generative AI API behind a small Collaborator
// interface so workflow stages can be tested against a mock. Three call
// shapes are supported: free text, JSON constrained by a response schema,
// and search-grounded text that carries grounding chunks.
package gemini

import (
	"context"
	"fmt"
	"math"
	"time"

	"google.golang.org/genai"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Collaborator abstracts the Generative AI API. Each workflow stage holds a
// Collaborator rather than a concrete client so tests can supply a mock.
type Collaborator interface {
	// GenerateText returns the sanitized text response for a prompt.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateJSON returns the raw JSON payload for a schema-constrained
	// call. Callers decode it with DecodeJSON and substitute fallbacks on
	// malformed payloads.
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) ([]byte, error)

	// GenerateGrounded runs the prompt with web-search grounding enabled
	// and returns the sanitized text plus the grounding chunks.
	GenerateGrounded(ctx context.Context, prompt string) (GroundedResult, error)
}

// GroundingChunk is one search-result citation returned alongside a
// grounded response.
type GroundingChunk struct {
	Title string `json:"title" yaml:"title"`
	URI   string `json:"uri" yaml:"uri"`
}

// GroundedResult holds the text of a grounded response and its citations.
type GroundedResult struct {
	Text   string           `json:"text" yaml:"text"`
	Chunks []GroundingChunk `json:"chunks" yaml:"chunks"`
}

// Client is the production Collaborator backed by google.golang.org/genai.
type Client struct {
	client     *genai.Client
	model      string
	maxRetries int
	timeout    time.Duration
}

// NewClient builds a Client from AI configuration. The API key is required.
func NewClient(ctx context.Context, cfg types.AIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Client{
		client:     client,
		model:      model,
		maxRetries: maxRetries,
		timeout:    cfg.Timeout,
	}, nil
}

// GenerateText implements Collaborator.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.generate(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	return Sanitize(resp.Text()), nil
}

// GenerateJSON implements Collaborator. The response MIME type is forced to
// application/json and constrained by the given schema.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) ([]byte, error) {
	resp, err := c.generate(ctx, prompt, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return nil, err
	}
	return []byte(resp.Text()), nil
}

// GenerateGrounded implements Collaborator.
func (c *Client) GenerateGrounded(ctx context.Context, prompt string) (GroundedResult, error) {
	resp, err := c.generate(ctx, prompt, &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return GroundedResult{}, err
	}

	result := GroundedResult{Text: Sanitize(resp.Text())}
	for _, cand := range resp.Candidates {
		if cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil {
				continue
			}
			result.Chunks = append(result.Chunks, GroundingChunk{
				Title: chunk.Web.Title,
				URI:   chunk.Web.URI,
			})
		}
	}
	return result, nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// generate calls the API with exponential backoff. The delay doubles each
// attempt: 1 s, 2 s, 4 s. A cancelled context aborts the wait.
func (c *Client) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

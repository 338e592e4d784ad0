// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm holds the boundaries to the hosted completion service and
// the structured-extraction service. Both are reached through the same
// OpenAI-compatible chat API (OpenRouter in the default configuration).
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Message roles, mirroring the chat API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a transcript sent to the completion boundary.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionClient is the completion boundary: an ordered transcript in,
// one text block out.
type CompletionClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Sentinel errors for the boundary.
var (
	// ErrService indicates the external service failed after all
	// retries were exhausted.
	ErrService = errors.New("completion service error")

	// ErrEmptyResponse indicates the service answered with no choices.
	ErrEmptyResponse = errors.New("completion service returned no choices")
)

// Options configures an OpenAIClient.
type Options struct {
	// Model is the completion model identifier.
	Model string

	// BaseURL overrides the API endpoint (OpenRouter-compatible).
	BaseURL string

	// APIKey, or empty to resolve from OPENROUTER_API_KEY /
	// OPENAI_API_KEY.
	APIKey string

	// Temperature for completions.
	Temperature float32

	// MaxTokens caps the completion length (0 = provider default).
	MaxTokens int

	// RequestTimeout bounds each individual API call.
	RequestTimeout time.Duration

	// MaxRetries bounds retry attempts after the first call.
	MaxRetries int

	// RetryBackoff is the initial backoff, doubled per attempt.
	RetryBackoff time.Duration

	// RequestsPerSecond rate-limits outbound calls (0 = unlimited).
	RequestsPerSecond float64
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Model:             "anthropic/claude-sonnet-4",
		BaseURL:           "https://openrouter.ai/api/v1",
		Temperature:       0.1,
		RequestTimeout:    120 * time.Second,
		MaxRetries:        2,
		RetryBackoff:      2 * time.Second,
		RequestsPerSecond: 2,
	}
}

// OpenAIClient implements CompletionClient over the go-openai SDK.
//
// Thread Safety: safe for concurrent use.
type OpenAIClient struct {
	client  *openai.Client
	opts    Options
	limiter *rate.Limiter
}

// NewOpenAIClient creates a client, resolving the API key from the
// environment when not set in opts.
func NewOpenAIClient(opts Options) (*OpenAIClient, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		slog.Error("No API key: set OPENROUTER_API_KEY or OPENAI_API_KEY")
		return nil, fmt.Errorf("API key not configured")
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	slog.Info("Initializing completion client",
		slog.String("model", opts.Model),
		slog.String("base_url", cfg.BaseURL),
	)

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		opts:    opts,
		limiter: limiter,
	}, nil
}

// Complete implements CompletionClient.
//
// Description:
//
//	Sends the transcript as a chat completion request. Each attempt has
//	its own timeout; transient failures are retried with doubling
//	backoff up to MaxRetries. Exhaustion surfaces as ErrService so the
//	caller can degrade instead of crashing.
//
// Thread Safety: safe for concurrent use.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Temperature: c.opts.Temperature,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	if c.opts.MaxTokens > 0 {
		req.MaxCompletionTokens = c.opts.MaxTokens
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	backoff := c.opts.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying completion call",
				slog.Int("attempt", attempt),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= 2
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if c.opts.RequestTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
		}

		resp, err := c.client.CreateChatCompletion(callCtx, req)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = ErrEmptyResponse
			continue
		}

		slog.Debug("Completion received",
			slog.String("finish_reason", string(resp.Choices[0].FinishReason)),
			slog.Int("total_tokens", resp.Usage.TotalTokens),
		)
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("%w: %v", ErrService, lastErr)
}

// TruncateToBudget trims text to roughly the given token budget using
// the ~4 characters per token approximation, cutting at a line boundary
// when possible.
func TruncateToBudget(text string, tokenBudget int) string {
	if tokenBudget <= 0 {
		return text
	}
	maxChars := tokenBudget * 4
	if len(text) <= maxChars {
		return text
	}
	cut := text[:maxChars]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut + "\n... [truncated]"
}

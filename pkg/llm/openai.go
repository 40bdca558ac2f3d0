// Package llm wraps the text generation provider used for clinical summaries.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	openai "github.com/sashabaranov/go-openai"

	"github.com/jwalitptl/anamnese-api/pkg/circuitbreaker"
)

// Config is read from LLM_* environment variables.
type Config struct {
	APIKey  string        `envconfig:"API_KEY"`
	BaseURL string        `envconfig:"BASE_URL"`
	Model   string        `envconfig:"MODEL" default:"gpt-4o-mini"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"60s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("llm", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load llm config: %w", err)
	}
	return cfg, nil
}

// Request is a single-turn generation.
type Request struct {
	System string
	Prompt string
	// SessionKey groups calls belonging to the same record on the provider side.
	SessionKey string
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

var ErrEmptyResponse = errors.New("provider returned no content")

type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	cb      *circuitbreaker.CircuitBreaker
}

func NewClient(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:     openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "llm",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
	}
}

func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var text string
	err := c.cb.Execute(func() error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: req.System},
				{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
			},
			User: req.SessionKey,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return ErrEmptyResponse
		}
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			return ErrEmptyResponse
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return text, nil
}

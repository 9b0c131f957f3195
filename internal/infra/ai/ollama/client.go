// Package ollama asks a local Ollama model for improvement advice.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/JexSrs/go-ollama"

	"github.com/bryanwahyu/pyaudit/internal/domain/analysis"
	"github.com/bryanwahyu/pyaudit/internal/infra/ai/prompt"
)

const (
	DefaultHost  = "http://127.0.0.1:11434"
	DefaultModel = "gemma3:latest"

	maxPromptLength = 7500
)

type Client struct {
	client *ollama.Ollama
	model  string
}

func NewClient(host, model string) (*Client, error) {
	if host == "" {
		host = DefaultHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ollama host %q: want scheme://host:port", host)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: ollama.New(*u), model: model}, nil
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string { return c.model }

type result struct {
	text string
	err  error
}

// Advise sends the report prompt with Generate. The library call takes no
// context, so cancellation returns early and the request finishes in the
// background.
func (c *Client) Advise(ctx context.Context, r analysis.FileReport) (string, error) {
	userPrompt := prompt.GetUserPrompt(r)
	if len(userPrompt) > maxPromptLength {
		userPrompt = userPrompt[:maxPromptLength]
	}

	done := make(chan result, 1)
	go func() {
		res, err := c.client.Generate(
			c.client.Generate.WithModel(c.model),
			c.client.Generate.WithSystem(prompt.GetSystemPrompt()),
			c.client.Generate.WithPrompt(userPrompt),
		)
		if err != nil {
			done <- result{err: fmt.Errorf("ollama generate: %w", err)}
			return
		}
		if !res.Done {
			done <- result{err: errors.New("ollama generate did not finish")}
			return
		}
		text := cleanResponse(res.Response)
		if text == "" {
			done <- result{err: errors.New("ollama returned an empty response")}
			return
		}
		done <- result{text: text}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.text, res.err
	}
}

// cleanResponse strips the code fences models sometimes wrap JSON in.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.Trim(s, "`")
	return strings.TrimSpace(s)
}

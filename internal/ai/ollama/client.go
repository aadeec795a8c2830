// Package ollama adapts a local Ollama server to ai.Generator.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/spigell/ats-scorer/internal/ai"
)

const (
	Provider     = "ollama"
	defaultModel = "llama3.1"
)

type chatAPI interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// Generator sends prompts to an Ollama chat endpoint.
type Generator struct {
	client chatAPI
	model  string
}

// NewGenerator connects to host, or to OLLAMA_HOST when host is empty.
func NewGenerator(host, model string) (*Generator, error) {
	var (
		client *api.Client
		err    error
	)

	if host = strings.TrimSpace(host); host == "" {
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
	} else {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("parse ollama host %q: %w", host, err)
		}
		client = api.NewClient(u, http.DefaultClient)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Generator{client: client, model: model}, nil
}

func (g *Generator) Name() string {
	return Provider + "/" + g.model
}

func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt must not be empty")
	}

	model := g.model
	if m := strings.TrimSpace(req.Model); m != "" {
		model = m
	}

	var messages []api.Message
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, api.Message{Role: "system", Content: system})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt})

	stream := false
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options:  map[string]any{},
	}
	if req.Temperature > 0 {
		chatReq.Options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		chatReq.Options["num_predict"] = req.MaxTokens
	}

	var builder strings.Builder
	err := g.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		builder.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", fmt.Errorf("ollama: %w", ai.ErrEmptyResponse)
	}

	return output, nil
}

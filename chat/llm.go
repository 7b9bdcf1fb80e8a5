package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// LLMClient wraps an OpenAI-compatible chat completion endpoint for the
// generative response path.
type LLMClient struct {
	client *openai.Client
	model  string
	log    *zap.Logger
}

// NewLLMClient creates a client for the given endpoint and model. The API
// key may be empty for local endpoints.
func NewLLMClient(endpoint, model, apiKey string, log *zap.Logger) (*LLMClient, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(endpoint, "/")
	return &LLMClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    log.Named("llm"),
	}, nil
}

// Generate produces a reply grounded in the portfolio context and the
// knowledge entries already matched against the message.
func (c *LLMClient) Generate(ctx context.Context, message string, pctx Context, relevant []KnowledgeEntry) (string, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(pctx, relevant)},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		Temperature: 0.7,
	})
	if err != nil {
		c.log.Warn("chat completion failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	c.log.Debug("chat completion ok",
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)))
	return resp.Choices[0].Message.Content, nil
}

// systemPrompt condenses the portfolio context into grounding for the
// model. The caps keep the prompt small; the bot only needs highlights.
func systemPrompt(pctx Context, relevant []KnowledgeEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a friendly assistant on the portfolio site of %s", pctx.who())
	if pctx.Title != "" {
		fmt.Fprintf(&b, ", a %s", pctx.Title)
	}
	b.WriteString(".\n")
	if pctx.Bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", pctx.Bio)
	}
	if pctx.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", pctx.Location)
	}

	if len(pctx.Skills) > 0 {
		b.WriteString("\nKey skills:\n")
		for i, s := range pctx.Skills {
			if i >= 8 {
				break
			}
			fmt.Fprintf(&b, "- %s (%s)\n", s.Name, s.Category)
		}
	}
	if len(pctx.Projects) > 0 {
		b.WriteString("\nNotable projects:\n")
		for i, p := range pctx.Projects {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", p.Title, p.Description)
		}
	}
	if len(pctx.Certificates) > 0 {
		b.WriteString("\nCertificates:\n")
		for i, c := range pctx.Certificates {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "- %s (%s)\n", c.Title, c.Issuer)
		}
	}
	if len(relevant) > 0 {
		b.WriteString("\nKnowledge base:\n")
		for i, e := range relevant {
			if i >= 2 {
				break
			}
			fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", e.Question, e.Answer)
		}
	}

	b.WriteString("\nAnswer in the language the visitor writes in. Keep replies under 150 words, warm and professional. If you don't know something, suggest the contact form.")
	return b.String()
}

// Package translate rewrites advisory titles and summaries into the
// configured target language before they are persisted.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"feedsync/internal/domain"
)

// Noop passes articles through unchanged. Used when translation is disabled.
type Noop struct{}

func (Noop) Translate(_ context.Context, article domain.Article) (domain.Article, error) {
	return article, nil
}

// Config holds OpenAI translator configuration.
type Config struct {
	APIKey         string
	Model          string
	TargetLanguage string
}

// OpenAI translates title and summary via the chat completion API.
type OpenAI struct {
	client *openai.Client
	model  string
	lang   string
	logger *slog.Logger
}

func NewOpenAI(cfg Config, logger *slog.Logger) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(cfg.APIKey),
		model:  cfg.Model,
		lang:   cfg.TargetLanguage,
		logger: logger.With("component", "translator"),
	}
}

type translation struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Translate asks the model for a translated title and summary. Any failure
// returns the article unchanged along with the error; callers treat
// translation as best effort.
func (t *OpenAI) Translate(ctx context.Context, article domain.Article) (domain.Article, error) {
	systemPrompt := fmt.Sprintf(
		"You translate security advisory headlines into %s. "+
			"Reply with JSON only: {\"title\": ..., \"summary\": ...}. "+
			"Keep product names, CVE identifiers and version numbers as-is.",
		t.lang,
	)
	userPrompt := fmt.Sprintf("Title: %s\nSummary: %s", article.Title, article.Summary)

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return article, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return article, fmt.Errorf("chat completion: empty response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "` \n")

	var tr translation
	if err := json.Unmarshal([]byte(content), &tr); err != nil {
		return article, fmt.Errorf("decode translation: %w", err)
	}

	if tr.Title != "" {
		article.Title = tr.Title
	}
	if tr.Summary != "" {
		article.Summary = tr.Summary
	}

	t.logger.Debug("translated article", "id", article.ID)

	return article, nil
}

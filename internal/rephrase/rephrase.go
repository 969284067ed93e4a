// Package rephrase asks a chat model for shorter wordings of sections that
// push a page past its height budget.
package rephrase

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jackzampolin/pagefit/internal/audit"
	"github.com/jackzampolin/pagefit/internal/preview"
	"github.com/jackzampolin/pagefit/internal/types"
)

// ErrNoAPIKey is returned when the advisor is built without credentials.
var ErrNoAPIKey = errors.New("rephrase: api key is required")

const (
	defaultModel          = "gpt-4o-mini"
	defaultMaxSuggestions = 3
	// maxExcerpt bounds how much of the proposed wording goes into the
	// suggestion description.
	maxExcerpt = 280
)

const systemPrompt = `You edit résumés. Rewrite the section you are given so it says the same thing in noticeably fewer words. Keep facts, dates, names and numbers. Keep the original markup style. Reply with the rewritten section only.`

// Config configures an Advisor.
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string
	MaxSuggestions int
	MaxRetries     int
	Timeout        time.Duration
	HTTPClient     *http.Client // Optional (tests)
	Logger         *slog.Logger
}

// Advisor proposes rephrasings for overflowing pages.
type Advisor struct {
	client openai.Client
	model  string
	max    int
	logger *slog.Logger
}

// New creates an advisor.
func New(cfg Config) (*Advisor, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = defaultMaxSuggestions
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Advisor{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		max:    cfg.MaxSuggestions,
		logger: cfg.Logger,
	}, nil
}

// Advise proposes a shorter wording for the tallest section of each
// overflowing page, up to the configured limit. A page whose request fails
// is logged and skipped.
func (a *Advisor) Advise(ctx context.Context, r preview.Result) ([]audit.Suggestion, error) {
	var out []audit.Suggestion
	for _, p := range r.Pages {
		if len(out) >= a.max {
			break
		}
		if !p.HasOverflow || len(p.Sections) == 0 {
			continue
		}
		target := tallest(p.Sections)
		if strings.TrimSpace(target.Content) == "" {
			continue
		}

		text, err := a.rephrase(ctx, target.Content)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			a.logger.Warn("rephrase request failed", "page_id", p.ID, "section_id", target.SectionID, "error", err)
			continue
		}
		a.logger.Debug("rephrase proposed", "page_id", p.ID, "section_id", target.SectionID,
			"from_chars", len(target.Content), "to_chars", len(text))

		out = append(out, audit.Suggestion{
			Type:        audit.SuggestRephrase,
			Priority:    types.LevelMedium,
			SectionID:   target.SectionID,
			Description: fmt.Sprintf("Rephrase %s on %s: %s", target.SectionID, p.ID, excerpt(text)),
		})
	}
	return out, nil
}

func (a *Advisor) rephrase(ctx context.Context, content string) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(content),
		},
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("rephrase: empty response")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("rephrase: empty response")
	}
	return text, nil
}

func tallest(ms []types.Measurement) types.Measurement {
	return slices.MaxFunc(ms, func(a, b types.Measurement) int {
		return cmp.Compare(a.Height, b.Height)
	})
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxExcerpt {
		return s
	}
	return string(r[:maxExcerpt]) + "…"
}

func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Errorf("openai error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("openai error (status %d)", apiErr.StatusCode)
	}
	return err
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/umputun/newsdraft/pkg/config"
	"github.com/umputun/newsdraft/pkg/domain"
	"github.com/umputun/newsdraft/pkg/style"
)

// defaults applied when the request leaves them empty
const (
	DefaultTitle    = "Daily Digest"
	DefaultMaxItems = 5
)

const maxPromptSummary = 500

var errStopRetry = errors.New("stop retry")

// Generator writes newsletter drafts with an OpenAI-compatible chat completion API
type Generator struct {
	client    *openai.Client
	config    config.LLMConfig
	systemMsg string
	now       func() time.Time
}

// Request describes the draft to generate
type Request struct {
	Owner      string
	Title      string
	Topic      string
	Tone       string
	Candidates []domain.RankedCandidate
	Trends     []domain.Trend
	Style      *domain.StyleProfile // nil means neutral tone
	MaxItems   int
}

// NewGenerator creates a new draft generator
func NewGenerator(cfg config.LLMConfig) *Generator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}

	// use custom system prompt if provided, otherwise use default
	systemMsg := cfg.SystemPrompt
	if systemMsg == "" {
		systemMsg = defaultSystemPrompt
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	if cfg.MaxContentSize <= 0 {
		cfg.MaxContentSize = 64 * 1024
	}

	return &Generator{
		client:    openai.NewClientWithConfig(clientConfig),
		config:    cfg,
		systemMsg: systemMsg,
		now:       time.Now,
	}
}

// default system prompt for newsletter drafting
const defaultSystemPrompt = `You are a newsletter editor writing a short, scannable daily newsletter.

Structure of the newsletter:
- an engaging introduction of 50-75 words naming the key themes of the day
- one section per story: the linked story title as <h3><a href="LINK">TITLE</a></h3>, followed by a 2-3 sentence summary in a <p>
- a "Trending today" paragraph mentioning the trending keywords, when provided
- a brief closing of 1-2 sentences

Rules:
- write directly about the subject matter, never "the article discusses" or "this piece explores"
- keep every link exactly as given, never invent stories or links
- follow the writing style instructions closely
- respond with the HTML body only: no <html>, <head> or <body> tags, no markdown, no code fences`

// Generate produces a draft from ranked candidates. Transient API failures are retried with backoff,
// rejected requests and invalid content fail immediately.
func (g *Generator) Generate(ctx context.Context, req Request) (*domain.Draft, error) {
	if len(req.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates for %s: %w", req.Owner, domain.ErrNoContent)
	}
	req = withDefaults(req)

	content, attempt, err := g.completeWithRetry(ctx, req.Owner, g.systemMsg, g.buildPrompt(req))
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] draft for %s generated in %d attempt(s), %d bytes", req.Owner, attempt, len(content))

	return &domain.Draft{
		Owner:        req.Owner,
		Title:        CombinedTitle(req.Title, req.Topic),
		Content:      content,
		Status:       domain.DraftStatusDraft,
		Topic:        req.Topic,
		Tone:         req.Tone,
		SourceTrends: req.Trends,
		CreatedAt:    g.now().UTC(),
	}, nil
}

// completeWithRetry retries transient completion failures with backoff, rejected requests and invalid content
// fail immediately. Returns the content and the number of attempts made.
func (g *Generator) completeWithRetry(ctx context.Context, owner, system, prompt string) (content string, attempt int, err error) {
	var lastErr error
	retrier := repeater.NewBackoff(g.config.Retries, g.config.RetryDelay, repeater.WithMaxDelay(30*time.Second))
	err = retrier.Do(ctx, func() error {
		attempt++
		res, err := g.complete(ctx, system, prompt)
		if err != nil {
			lastErr = err
			if errors.Is(err, domain.ErrGenerationRejected) || errors.Is(err, domain.ErrInvalidContent) {
				return errStopRetry
			}
			log.Printf("[DEBUG] generation attempt %d for %s failed: %v", attempt, owner, err)
			return err
		}
		content, lastErr = res, nil
		return nil
	}, errStopRetry)

	switch {
	case lastErr != nil && (errors.Is(lastErr, domain.ErrGenerationRejected) || errors.Is(lastErr, domain.ErrInvalidContent)):
		log.Printf("[WARN] generation for %s failed after %d attempt(s): %v", owner, attempt, lastErr)
		return "", attempt, lastErr
	case lastErr != nil:
		log.Printf("[WARN] generation for %s failed after %d attempt(s): %v", owner, attempt, lastErr)
		return "", attempt, fmt.Errorf("%w after %d attempts: %v", domain.ErrGenerationTransient, attempt, lastErr)
	case err != nil:
		return "", attempt, fmt.Errorf("%w: %v", domain.ErrGenerationTransient, err)
	}
	return content, attempt, nil
}

// complete makes a single completion call and validates the returned content
func (g *Generator) complete(ctx context.Context, system, prompt string) (string, error) {
	callCtx := ctx
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       g.config.Model,
		Temperature: float32(g.config.Temperature),
		MaxTokens:   g.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in llm response: %w", domain.ErrInvalidContent)
	}

	content := stripFences(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty llm response: %w", domain.ErrInvalidContent)
	}
	if len(content) > g.config.MaxContentSize {
		return "", fmt.Errorf("llm response of %d bytes exceeds %d: %w", len(content), g.config.MaxContentSize, domain.ErrInvalidContent)
	}
	return content, nil
}

// classify maps api errors to rejected ones, everything else stays retryable
func classify(err error) error {
	code := 0
	quota := false
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
		quota = isQuota(apiErr)
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	}

	switch {
	case code == 0: // network error or timeout
		return fmt.Errorf("llm request failed: %w", err)
	case quota, code == http.StatusUnauthorized, code == http.StatusPaymentRequired, code == http.StatusForbidden:
		return fmt.Errorf("%w: %v", domain.ErrGenerationRejected, err)
	case code == http.StatusRequestTimeout, code == http.StatusConflict, code == http.StatusTooManyRequests, code >= 500:
		return fmt.Errorf("llm request failed with status %d: %w", code, err)
	default:
		// other client errors won't succeed on retry
		return fmt.Errorf("%w: status %d: %v", domain.ErrGenerationRejected, code, err)
	}
}

func isQuota(e *openai.APIError) bool {
	for _, s := range []string{fmt.Sprint(e.Code), e.Type} {
		if s == "insufficient_quota" || s == "quota_exceeded" {
			return true
		}
	}
	return false
}

// stripFences trims the content and removes a markdown code fence wrapping it
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// buildPrompt creates the user prompt with the style guidance, trends and candidates
func (g *Generator) buildPrompt(req Request) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Newsletter title: %s\n", CombinedTitle(req.Title, req.Topic)))
	if req.Topic != "" {
		sb.WriteString(fmt.Sprintf("Topic: %s\n", req.Topic))
	}
	sb.WriteString(fmt.Sprintf("Tone: %s\n\n", req.Tone))

	sb.WriteString("Writing style:\n")
	sb.WriteString(styleInstructions(req.Style))
	sb.WriteString("\n\n")

	if len(req.Trends) > 0 {
		sb.WriteString("Trending today:\n")
		for _, t := range req.Trends {
			sb.WriteString(fmt.Sprintf("- %s (mentioned %d times)\n", t.Keyword, t.Frequency))
		}
		sb.WriteString("\n")
	}

	candidates := req.Candidates
	if len(candidates) > req.MaxItems {
		candidates = candidates[:req.MaxItems]
	}
	sb.WriteString(fmt.Sprintf("Write the newsletter about these %d stories, in this order:\n\n", len(candidates)))
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("%d. Title: %s\n", i+1, c.Item.Title))
		if c.Item.SourceName != "" {
			sb.WriteString(fmt.Sprintf("   Source: %s\n", c.Item.SourceName))
		}
		sb.WriteString(fmt.Sprintf("   Link: %s\n", c.Item.Link))
		if summary := c.Item.Summary; summary != "" {
			if r := []rune(summary); len(r) > maxPromptSummary {
				summary = string(r[:maxPromptSummary]) + "..."
			}
			sb.WriteString(fmt.Sprintf("   Summary: %s\n", summary))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Respond with the HTML body of the newsletter.")
	return sb.String()
}

// styleInstructions picks custom instructions first, then the fingerprint guidance
func styleInstructions(p *domain.StyleProfile) string {
	switch {
	case p == nil:
		return style.NeutralInstructions
	case strings.TrimSpace(p.CustomInstructions) != "":
		return strings.TrimSpace(p.CustomInstructions)
	default:
		return style.Instructions(p.Fingerprint)
	}
}

// CombinedTitle appends the topic to the title unless the title already mentions it
func CombinedTitle(title, topic string) string {
	title, topic = strings.TrimSpace(title), strings.TrimSpace(topic)
	if title == "" {
		title = DefaultTitle
	}
	if topic == "" || strings.Contains(strings.ToLower(title), strings.ToLower(topic)) {
		return title
	}
	return title + ": " + topic
}

func withDefaults(req Request) Request {
	if strings.TrimSpace(req.Tone) == "" {
		req.Tone = domain.DefaultTone
	}
	if req.MaxItems <= 0 {
		req.MaxItems = DefaultMaxItems
	}
	return req
}

package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	log "github.com/go-pkgz/lgr"

	"github.com/umputun/newsdraft/pkg/domain"
)

// MaxChatMessage is the maximum length of a single chat message
const MaxChatMessage = 4096

// ChatParams configures the chat bot transport
type ChatParams struct {
	Token   string
	APIURL  string
	Timeout time.Duration
	Verbose bool
}

// ChatTransport posts drafts to a chat through the telegram bot api.
// Html is converted to markdown and split into messages of MaxChatMessage chars at most.
type ChatTransport struct {
	token   string
	apiURL  string
	verbose bool
	client  *http.Client
	conv    *md.Converter
}

type sendMessageReq struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type botResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// NewChatTransport makes chat transport for the given bot
func NewChatTransport(p ChatParams) *ChatTransport {
	if p.APIURL == "" {
		p.APIURL = "https://api.telegram.org"
	}
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
	conv := md.NewConverter("", true, &md.Options{StrongDelimiter: "*", EmDelimiter: "_"})
	return &ChatTransport{
		token:   p.Token,
		apiURL:  strings.TrimSuffix(p.APIURL, "/"),
		verbose: p.Verbose,
		client:  &http.Client{Timeout: p.Timeout},
		conv:    conv,
	}
}

// Name returns transport name
func (c *ChatTransport) Name() string { return domain.TransportChat }

// Deliver converts the draft to markdown and posts it to chat msg.To in one or more messages
func (c *ChatTransport) Deliver(ctx context.Context, msg Message) error {
	chatID := strings.TrimSpace(msg.To)
	if chatID == "" {
		return ErrNoRecipient
	}
	if c.token == "" {
		return &permanentError{err: fmt.Errorf("chat transport has no bot token")}
	}

	text, err := c.conv.ConvertString(msg.HTML)
	if err != nil {
		return fmt.Errorf("convert html to markdown: %w", err)
	}
	if msg.Subject != "" {
		text = "*" + msg.Subject + "*\n\n" + text
	}

	chunks := SplitMessage(text, MaxChatMessage)
	for i, chunk := range chunks {
		if err := c.send(ctx, chatID, chunk); err != nil {
			return fmt.Errorf("send part %d/%d to chat %s: %w", i+1, len(chunks), chatID, err)
		}
	}
	return nil
}

// send posts one message, falling back to plain text if the markdown can't be parsed by the api
func (c *ChatTransport) send(ctx context.Context, chatID, text string) error {
	resp, err := c.post(ctx, sendMessageReq{ChatID: chatID, Text: text, ParseMode: "Markdown", DisableWebPagePreview: true})
	if err != nil {
		return err
	}
	if resp.OK {
		return nil
	}
	if resp.ErrorCode == http.StatusBadRequest && strings.Contains(resp.Description, "can't parse entities") {
		log.Printf("[DEBUG] chat %s rejected markdown, sending plain text", chatID)
		if resp, err = c.post(ctx, sendMessageReq{ChatID: chatID, Text: text, DisableWebPagePreview: true}); err != nil {
			return err
		}
		if resp.OK {
			return nil
		}
	}
	err = fmt.Errorf("bot api error %d: %s", resp.ErrorCode, resp.Description)
	if resp.ErrorCode == http.StatusTooManyRequests || resp.ErrorCode >= 500 {
		return err
	}
	return &permanentError{err: err} // bad request, unauthorized bot, blocked or unknown chat
}

func (c *ChatTransport) post(ctx context.Context, payload sendMessageReq) (*botResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.apiURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// the error message contains the url with bot token
		return nil, fmt.Errorf("bot api request failed: %w", redact(err, c.token))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("read bot api response: %w", err)
	}
	if c.verbose {
		log.Printf("[DEBUG] bot api response %d: %s", resp.StatusCode, string(data))
	}

	res := botResponse{}
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("bot api status %s: unexpected response", resp.Status)
	}
	if !res.OK && res.ErrorCode == 0 {
		res.ErrorCode = resp.StatusCode
	}
	return &res, nil
}

// SplitMessage splits text into chunks of at most limit runes, breaking at paragraphs and lines where possible
func SplitMessage(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var res []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			res = append(res, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, line := range strings.Split(text, "\n") {
		lineLen := utf8.RuneCountInString(line)
		if lineLen > limit {
			flush()
			runes := []rune(line)
			for len(runes) > limit {
				res = append(res, string(runes[:limit]))
				runes = runes[limit:]
			}
			cur.WriteString(string(runes))
			curLen = len(runes)
			continue
		}
		sep := 0
		if curLen > 0 {
			sep = 1
		}
		if curLen+sep+lineLen > limit {
			flush()
			sep = 0
		}
		if sep == 1 {
			cur.WriteString("\n")
		}
		cur.WriteString(line)
		curLen += sep + lineLen
	}
	flush()
	return res
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), secret, "****"), err: err}
}

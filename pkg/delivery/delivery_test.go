package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-pkgz/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsdraft/pkg/domain"
)

type senderMock struct {
	mu     sync.Mutex
	err    error
	delay  time.Duration
	texts  []string
	params []email.Params
}

func (s *senderMock) Send(text string, params email.Params) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	s.params = append(s.params, params)
	return s.err
}

func TestEmailTransport_Deliver(t *testing.T) {
	sm := &senderMock{}
	tr := NewEmailTransport(EmailParams{Host: "smtp.example.com", Port: 25, From: "news@example.com"})
	tr.sender = sm
	assert.Equal(t, "email", tr.Name())

	err := tr.Deliver(context.Background(), Message{To: "alice@example.com", Subject: "Daily",
		HTML: `<h3><a href="https://example.com/a">Story</a></h3><script>alert(1)</script><p onclick="x()">text</p>`})
	require.NoError(t, err)

	require.Len(t, sm.texts, 1)
	assert.Contains(t, sm.texts[0], `<a href="https://example.com/a"`)
	assert.Contains(t, sm.texts[0], "<p>text</p>")
	assert.NotContains(t, sm.texts[0], "script")
	assert.NotContains(t, sm.texts[0], "onclick")
	assert.Equal(t, email.Params{From: "news@example.com", To: []string{"alice@example.com"}, Subject: "Daily"}, sm.params[0])
}

func TestEmailTransport_Errors(t *testing.T) {
	t.Run("no recipient", func(t *testing.T) {
		tr := NewEmailTransport(EmailParams{Host: "smtp.example.com"})
		tr.sender = &senderMock{}
		assert.ErrorIs(t, tr.Deliver(context.Background(), Message{To: " "}), ErrNoRecipient)
	})

	t.Run("send failed", func(t *testing.T) {
		tr := NewEmailTransport(EmailParams{Host: "smtp.example.com"})
		tr.sender = &senderMock{err: errors.New("relay down")}
		err := tr.Deliver(context.Background(), Message{To: "bob@example.com", HTML: "<p>hi</p>"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "relay down")
	})

	t.Run("context timeout", func(t *testing.T) {
		tr := NewEmailTransport(EmailParams{Host: "smtp.example.com"})
		tr.sender = &senderMock{delay: 200 * time.Millisecond}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := tr.Deliver(ctx, Message{To: "bob@example.com", HTML: "<p>hi</p>"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestChatTransport_Deliver(t *testing.T) {
	var mu sync.Mutex
	var reqs []sendMessageReq
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botsecret-token/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req sendMessageReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		reqs = append(reqs, req)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	tr := NewChatTransport(ChatParams{Token: "secret-token", APIURL: server.URL + "/", Timeout: time.Second})
	assert.Equal(t, "chat", tr.Name())

	err := tr.Deliver(context.Background(), Message{To: "12345", Subject: "Daily",
		HTML: `<p>Hello <strong>world</strong></p><p><a href="https://example.com/a">Story</a></p>`})
	require.NoError(t, err)

	require.Len(t, reqs, 1)
	assert.Equal(t, "12345", reqs[0].ChatID)
	assert.Equal(t, "Markdown", reqs[0].ParseMode)
	assert.True(t, reqs[0].DisableWebPagePreview)
	assert.True(t, strings.HasPrefix(reqs[0].Text, "*Daily*\n\n"), reqs[0].Text)
	assert.Contains(t, reqs[0].Text, "Hello *world*")
	assert.Contains(t, reqs[0].Text, "[Story](https://example.com/a)")
	assert.NotContains(t, reqs[0].Text, "<p>")
}

func TestChatTransport_LongMessageSplit(t *testing.T) {
	var texts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		texts = append(texts, req.Text)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var sb strings.Builder
	for range 100 {
		sb.WriteString("<p>" + strings.Repeat("word ", 20) + "</p>")
	}
	tr := NewChatTransport(ChatParams{Token: "t", APIURL: server.URL})
	require.NoError(t, tr.Deliver(context.Background(), Message{To: "1", HTML: sb.String()}))

	require.Greater(t, len(texts), 1)
	for _, txt := range texts {
		assert.LessOrEqual(t, utf8.RuneCountInString(txt), MaxChatMessage)
	}
}

func TestChatTransport_MarkdownFallback(t *testing.T) {
	var modes []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		modes = append(modes, req.ParseMode)
		if req.ParseMode != "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr := NewChatTransport(ChatParams{Token: "t", APIURL: server.URL})
	require.NoError(t, tr.Deliver(context.Background(), Message{To: "1", HTML: "<p>snake_case_name</p>"}))
	assert.Equal(t, []string{"Markdown", ""}, modes)
}

func TestChatTransport_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer server.Close()

	tr := NewChatTransport(ChatParams{Token: "t", APIURL: server.URL})
	err := tr.Deliver(context.Background(), Message{To: "1", HTML: "<p>hi</p>"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot was blocked")
	assert.False(t, retryable(err), "blocked bot is permanent")

	assert.ErrorIs(t, tr.Deliver(context.Background(), Message{HTML: "<p>hi</p>"}), ErrNoRecipient)

	noToken := NewChatTransport(ChatParams{APIURL: server.URL})
	assert.Error(t, noToken.Deliver(context.Background(), Message{To: "1", HTML: "<p>hi</p>"}))

	// unreachable api, token must not leak into the error
	down := NewChatTransport(ChatParams{Token: "very-secret", APIURL: "http://127.0.0.1:1", Timeout: time.Second})
	err = down.Deliver(context.Background(), Message{To: "1", HTML: "<p>hi</p>"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "very-secret")
}

func TestChatTransport_ThrottledIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 5"}`))
	}))
	defer server.Close()

	tr := NewChatTransport(ChatParams{Token: "t", APIURL: server.URL})
	err := tr.Deliver(context.Background(), Message{To: "1", HTML: "<p>hi</p>"})
	require.Error(t, err)
	assert.True(t, retryable(err))
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "plain error", err: errors.New("connection reset"), want: true},
		{name: "no recipient", err: ErrNoRecipient, want: false},
		{name: "permanent", err: fmt.Errorf("send: %w", &permanentError{err: errors.New("bad request")}), want: false},
		{name: "smtp auth", err: fmt.Errorf("failed to auth to smtp: %w", &textproto.Error{Code: 535, Msg: "bad credentials"}), want: false},
		{name: "smtp mailbox busy", err: &textproto.Error{Code: 450, Msg: "mailbox busy"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{name: "empty", text: "  ", limit: 10, want: nil},
		{name: "fits", text: "hello", limit: 10, want: []string{"hello"}},
		{name: "split at lines", text: "aaaa\nbbbb\ncccc", limit: 9, want: []string{"aaaa\nbbbb", "cccc"}},
		{name: "long line hard split", text: "abcdefghij", limit: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "runes", text: "привет\nмир", limit: 6, want: []string{"привет", "мир"}},
		{name: "blank lines dropped at edges", text: "aaaa\n\nbbbb", limit: 5, want: []string{"aaaa", "bbbb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitMessage(tt.text, tt.limit))
		})
	}
}

type transportMock struct {
	name     string
	failures int32 // number of failing calls before success, -1 for always
	err      error // returned instead of the default failure if set
	calls    int32
	mu       sync.Mutex
	msgs     []Message
}

func (m *transportMock) Name() string { return m.name }

func (m *transportMock) Deliver(_ context.Context, msg Message) error {
	n := atomic.AddInt32(&m.calls, 1)
	m.mu.Lock()
	m.msgs = append(m.msgs, msg)
	m.mu.Unlock()
	if m.failures < 0 || n <= m.failures {
		if m.err != nil {
			return m.err
		}
		return errors.New(m.name + " failed")
	}
	return nil
}

func TestDispatcher_Dispatch(t *testing.T) {
	cfg := Config{Retries: 2, RetryDelay: time.Millisecond, Timeout: time.Second}
	sched := domain.Schedule{Owner: "alice", Email: "alice@example.com", ChatID: "42"}
	msg := Message{Subject: "s", HTML: "<p>x</p>"}

	t.Run("both succeed", func(t *testing.T) {
		em, ch := &transportMock{name: "email"}, &transportMock{name: "chat"}
		out := NewDispatcher(cfg, em, ch).Dispatch(context.Background(), domain.DeliveryBoth, sched, msg)
		assert.True(t, out.Delivered())
		assert.Equal(t, []string{"email", "chat"}, out.Succeeded)
		assert.Empty(t, out.Failed)
		assert.NoError(t, out.Err)
		assert.Equal(t, "alice@example.com", em.msgs[0].To)
		assert.Equal(t, "42", ch.msgs[0].To)
	})

	t.Run("retried until success", func(t *testing.T) {
		em := &transportMock{name: "email", failures: 2}
		out := NewDispatcher(cfg, em).Dispatch(context.Background(), domain.DeliveryEmail, sched, msg)
		assert.True(t, out.Delivered())
		assert.Equal(t, int32(3), atomic.LoadInt32(&em.calls))
	})

	t.Run("one fails, other delivers", func(t *testing.T) {
		em, ch := &transportMock{name: "email", failures: -1}, &transportMock{name: "chat"}
		out := NewDispatcher(cfg, em, ch).Dispatch(context.Background(), domain.DeliveryBoth, sched, msg)
		assert.True(t, out.Delivered())
		assert.Equal(t, []string{"chat"}, out.Succeeded)
		assert.Equal(t, []string{"email"}, out.Failed)
		assert.ErrorIs(t, out.Err, domain.ErrTransportFailure)
		assert.Equal(t, int32(3), atomic.LoadInt32(&em.calls), "1 attempt + 2 retries")
	})

	t.Run("all fail", func(t *testing.T) {
		em, ch := &transportMock{name: "email", failures: -1}, &transportMock{name: "chat", failures: -1}
		out := NewDispatcher(cfg, em, ch).Dispatch(context.Background(), domain.DeliveryBoth, sched, msg)
		assert.False(t, out.Delivered())
		assert.Equal(t, []string{"email", "chat"}, out.Failed)
		var terr *domain.TransportError
		require.ErrorAs(t, out.Err, &terr)
	})

	t.Run("transport not configured", func(t *testing.T) {
		out := NewDispatcher(cfg, &transportMock{name: "email"}).Dispatch(context.Background(), domain.DeliveryChat, sched, msg)
		assert.False(t, out.Delivered())
		assert.Equal(t, []string{"chat"}, out.Failed)
	})

	t.Run("missing recipient", func(t *testing.T) {
		ch := &transportMock{name: "chat"}
		out := NewDispatcher(cfg, ch).Dispatch(context.Background(), domain.DeliveryChat, domain.Schedule{Owner: "bob"}, msg)
		assert.False(t, out.Delivered())
		assert.ErrorIs(t, out.Err, ErrNoRecipient)
		assert.Zero(t, atomic.LoadInt32(&ch.calls))
	})

	t.Run("permanent failure is not retried", func(t *testing.T) {
		ch := &transportMock{name: "chat", failures: -1, err: &permanentError{err: errors.New("bot api error 400: chat not found")}}
		em := &transportMock{name: "email", failures: -1, err: &textproto.Error{Code: 535, Msg: "authentication failed"}}
		out := NewDispatcher(cfg, em, ch).Dispatch(context.Background(), domain.DeliveryBoth, sched, msg)
		assert.False(t, out.Delivered())
		assert.Equal(t, int32(1), atomic.LoadInt32(&ch.calls))
		assert.Equal(t, int32(1), atomic.LoadInt32(&em.calls))
		assert.Contains(t, out.Err.Error(), "chat not found")
		assert.Contains(t, out.Err.Error(), "authentication failed")
	})

	t.Run("transient smtp reply is retried", func(t *testing.T) {
		em := &transportMock{name: "email", failures: 1, err: &textproto.Error{Code: 421, Msg: "try again later"}}
		out := NewDispatcher(cfg, em).Dispatch(context.Background(), domain.DeliveryEmail, sched, msg)
		assert.True(t, out.Delivered())
		assert.Equal(t, int32(2), atomic.LoadInt32(&em.calls))
	})

	t.Run("unknown method", func(t *testing.T) {
		out := NewDispatcher(cfg).Dispatch(context.Background(), "pigeon", sched, msg)
		assert.False(t, out.Delivered())
		assert.ErrorIs(t, out.Err, domain.ErrTransportFailure)
	})
}

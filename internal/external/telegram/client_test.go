package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/pkg/config"
	"github.com/nicholaslie90/stck-scanner/pkg/httputil"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

type recorder struct {
	mu       sync.Mutex
	requests []sendMessageRequest
}

func (r *recorder) add(req sendMessageRequest) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return len(r.requests)
}

func newTestClient(t *testing.T, maxChunk int, handler func(http.ResponseWriter, sendMessageRequest, int)) (*Client, *recorder) {
	t.Helper()

	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		var req sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req, rec.add(req))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{GoAPI: config.GoAPIConfig{Timeout: 2 * time.Second}}
	client := NewClient(httputil.New(cfg, logger.Nop()).DisableRetry(), srv.URL, "TOKEN", "42", maxChunk, logger.Nop())
	return client, rec
}

func TestSend(t *testing.T) {
	client, rec := newTestClient(t, 0, func(w http.ResponseWriter, req sendMessageRequest, n int) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, client.Send(context.Background(), "<b>BBCA</b> 🐳"))
	require.Len(t, rec.requests, 1)

	req := rec.requests[0]
	assert.Equal(t, "42", req.ChatID)
	assert.Equal(t, "HTML", req.ParseMode)
	assert.True(t, req.DisableWebPagePreview)
	assert.Equal(t, "<b>BBCA</b> 🐳", req.Text)
}

func TestSendChunks(t *testing.T) {
	client, rec := newTestClient(t, 12, func(w http.ResponseWriter, req sendMessageRequest, n int) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, client.Send(context.Background(), "line one\nline two\nline three\n"))
	assert.Len(t, rec.requests, 3)
}

func TestSendPlainTextFallback(t *testing.T) {
	client, rec := newTestClient(t, 0, func(w http.ResponseWriter, req sendMessageRequest, n int) {
		if req.ParseMode == "HTML" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities: unclosed tag"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, client.Send(context.Background(), "<b>BBCA &amp; BBRI"))
	require.Len(t, rec.requests, 2)
	assert.Empty(t, rec.requests[1].ParseMode)
	assert.Equal(t, "BBCA & BBRI", rec.requests[1].Text)
}

func TestSendErrors(t *testing.T) {
	client, rec := newTestClient(t, 0, func(w http.ResponseWriter, req sendMessageRequest, n int) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	})

	err := client.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, contracts.ErrUnauthorized)
	assert.Len(t, rec.requests, 1, "non-parse errors are not retried as plain text")
}

func TestSendDisabled(t *testing.T) {
	client := NewClient(nil, "http://unused", "", "", 0, logger.Nop())
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Send(context.Background(), "dropped"))
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"short"}, Split("short", 100))

	chunks := Split("aaaa\nbbbb\ncccc\n", 10)
	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc\n"}, chunks)

	// one long line is cut by runes, never inside a multi-byte character
	long := strings.Repeat("🐳", 25)
	chunks = Split(long, 10)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
	}
	assert.Equal(t, long, strings.Join(chunks, ""))
}

func TestSplitPreservesContent(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 500; i++ {
		b.WriteString("<b>BBCA</b> 💰 Net: +1.5 M\n")
	}
	text := b.String()

	chunks := Split(text, DefaultMaxChunk)
	assert.Greater(t, len(chunks), 1)
	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), DefaultMaxChunk)
	}
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "BBCA 🐳\nNet: +1.5 M", PlainText("<b>BBCA</b> 🐳\nNet: <i>+1.5 M</i>"))
	assert.Equal(t, "a < b", PlainText("a &lt; b"))
}

func TestSplitKeepsBlocks(t *testing.T) {
	var b strings.Builder
	b.WriteString("📡 <b>SMART BANDAR DETECTOR</b>\n=====\n\n")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "<b>T%02d</b> 🟢\n💰 Net: <b>+1.5 M</b>\n🛒 Buy: <b>BK-JP Morgan</b>\n📊 Akumulasi | Skor 5\n--------------------\n\n", i)
	}
	b.WriteString("Scan 40 | Masuk 40 | Skip 0\n")
	text := b.String()

	chunks := Split(text, 300)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, text, strings.Join(chunks, ""))

	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 300)
		if i < len(chunks)-1 {
			assert.True(t, strings.HasSuffix(c, "--------------------\n\n") || strings.HasSuffix(c, "=====\n\n"),
				"chunk %d must end on a block boundary: %q", i, c)
		}
		if i > 0 {
			assert.True(t, strings.HasPrefix(c, "<b>T") || strings.HasPrefix(c, "Scan"),
				"chunk %d must start a block: %q", i, c)
		}
	}
}

func TestSplitOversizedBlockFallsBackToLines(t *testing.T) {
	block := strings.Repeat("line of text\n", 10) + "\n"
	text := "head\n\n" + block

	chunks := Split(text, 40)
	assert.Equal(t, text, strings.Join(chunks, ""))
	assert.Equal(t, "head\n\n", chunks[0])
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 40)
	}
}

package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/isotrack/internal/notify"
)

type mockSession struct {
	mu        sync.Mutex
	sent      map[string][]*discordgo.MessageSend
	failCount int // first failCount calls return 429
	err       error
	calls     int
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failCount {
		return nil, rateLimited()
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.sent == nil {
		m.sent = make(map[string][]*discordgo.MessageSend)
	}
	m.sent[channelID] = append(m.sent[channelID], data)
	return &discordgo.Message{ChannelID: channelID}, nil
}

func rateLimited() error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}
}

func newTestAdapter(t *testing.T, sess *mockSession) *Adapter {
	t.Helper()
	a, err := New(AdapterOpts{ChannelID: "998877", Session: sess})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.baseBackoff = time.Millisecond
	a.maxBackoff = 2 * time.Millisecond
	return a
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(AdapterOpts{ChannelID: "1"})
	if err == nil || !strings.Contains(err.Error(), "bot token is required") {
		t.Errorf("err = %v, want bot token error", err)
	}
}

func TestNew_WithToken(t *testing.T) {
	a, err := New(AdapterOpts{BotToken: "abc", ChannelID: "1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Name() != "discord" {
		t.Errorf("Name = %q", a.Name())
	}
}

func TestSend_Embeds(t *testing.T) {
	sess := &mockSession{}
	a := newTestAdapter(t, sess)

	msg := notify.FormatImpactSummary(notify.ImpactSummary{Isometric: "ISO-1", Revision: "2", Removed: 2})
	if err := a.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got := sess.sent["998877"]
	if len(got) != 1 {
		t.Fatalf("sent %d messages to default channel, want 1", len(got))
	}
	if len(got[0].Embeds) != 1 || got[0].Embeds[0].Color != 0xe8a317 {
		t.Errorf("embeds = %+v", got[0].Embeds)
	}
	if !strings.Contains(got[0].Content, "ISO-1") {
		t.Errorf("Content = %q", got[0].Content)
	}
}

func TestSend_NoChannel(t *testing.T) {
	a, _ := New(AdapterOpts{Session: &mockSession{}})
	if err := a.Send(context.Background(), notify.Message{Text: "x"}); err == nil {
		t.Fatal("expected no channel error")
	}
}

func TestSend_RetriesRateLimit(t *testing.T) {
	sess := &mockSession{failCount: 2}
	a := newTestAdapter(t, sess)

	if err := a.Send(context.Background(), notify.Message{Text: "x"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sess.calls != 3 {
		t.Errorf("calls = %d, want 3", sess.calls)
	}
}

func TestSend_OtherErrorNotRetried(t *testing.T) {
	sess := &mockSession{err: errors.New("missing access")}
	a := newTestAdapter(t, sess)

	err := a.Send(context.Background(), notify.Message{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "discord: send message") {
		t.Errorf("err = %v", err)
	}
	if sess.calls != 1 {
		t.Errorf("calls = %d, want 1", sess.calls)
	}
}

func TestRetryOnRateLimit_Exhausted(t *testing.T) {
	a := newTestAdapter(t, &mockSession{})
	calls := 0
	err := a.retryOnRateLimit(context.Background(), func() error {
		calls++
		return rateLimited()
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != maxRetries+1 {
		t.Errorf("calls = %d, want %d", calls, maxRetries+1)
	}
}

func TestRetryOnRateLimit_ContextCancelled(t *testing.T) {
	a := newTestAdapter(t, &mockSession{})
	a.baseBackoff = time.Minute
	a.maxBackoff = time.Minute
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := a.retryOnRateLimit(ctx, func() error {
		calls++
		return rateLimited()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"#36a64f", 0x36a64f},
		{"E8A317", 0xe8a317},
		{"", 0},
		{"#fff", 0xfff},
	}
	for _, tt := range tests {
		if got := parseHexColor(tt.in); got != tt.want {
			t.Errorf("parseHexColor(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

package slack

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/isotrack/internal/notify"
)

type mockSlackClient struct {
	mu        sync.Mutex
	posted    []string // channel IDs
	postErrs  []error  // returned in order, then nil
	postCalls int
}

func (m *mockSlackClient) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postCalls++
	if len(m.postErrs) > 0 {
		err := m.postErrs[0]
		m.postErrs = m.postErrs[1:]
		if err != nil {
			return "", "", err
		}
	}
	m.posted = append(m.posted, channelID)
	return channelID, "1700000000.000100", nil
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(AdapterOpts{ChannelID: "C01"})
	if err == nil || !strings.Contains(err.Error(), "bot token is required") {
		t.Errorf("err = %v, want bot token error", err)
	}
}

func TestSend_DefaultChannel(t *testing.T) {
	mock := &mockSlackClient{}
	a, err := New(AdapterOpts{ChannelID: "C01", Client: mock})
	if err != nil {
		t.Fatal(err)
	}
	if a.Name() != "slack" {
		t.Errorf("Name = %q", a.Name())
	}

	if err := a.Send(context.Background(), notify.Message{Text: "hello"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := a.Send(context.Background(), notify.Message{ChannelID: "C02", Text: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(mock.posted) != 2 || mock.posted[0] != "C01" || mock.posted[1] != "C02" {
		t.Errorf("posted = %v, want [C01 C02]", mock.posted)
	}
}

func TestSend_NoChannel(t *testing.T) {
	a, _ := New(AdapterOpts{Client: &mockSlackClient{}})
	err := a.Send(context.Background(), notify.Message{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "no channel") {
		t.Errorf("err = %v, want no channel error", err)
	}
}

func TestSend_RetriesRateLimit(t *testing.T) {
	mock := &mockSlackClient{postErrs: []error{
		&slackapi.RateLimitedError{RetryAfter: time.Millisecond},
		&slackapi.RateLimitedError{RetryAfter: time.Millisecond},
	}}
	a, _ := New(AdapterOpts{ChannelID: "C01", Client: mock})

	if err := a.Send(context.Background(), notify.Message{Text: "x"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if mock.postCalls != 3 {
		t.Errorf("postCalls = %d, want 3", mock.postCalls)
	}
}

func TestSend_NonRateLimitErrorNotRetried(t *testing.T) {
	mock := &mockSlackClient{postErrs: []error{errors.New("channel_not_found")}}
	a, _ := New(AdapterOpts{ChannelID: "C01", Client: mock})

	err := a.Send(context.Background(), notify.Message{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "slack: post message") {
		t.Errorf("err = %v, want wrapped post error", err)
	}
	if mock.postCalls != 1 {
		t.Errorf("postCalls = %d, want 1", mock.postCalls)
	}
}

func TestRetryOnRateLimit_Exhausted(t *testing.T) {
	a, _ := New(AdapterOpts{Client: &mockSlackClient{}})
	calls := 0
	err := a.retryOnRateLimit(context.Background(), func() error {
		calls++
		return &slackapi.RateLimitedError{RetryAfter: time.Millisecond}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != maxRetries+1 {
		t.Errorf("calls = %d, want %d", calls, maxRetries+1)
	}
}

func TestRetryOnRateLimit_ContextCancelled(t *testing.T) {
	a, _ := New(AdapterOpts{Client: &mockSlackClient{}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.retryOnRateLimit(ctx, func() error {
		return &slackapi.RateLimitedError{RetryAfter: time.Minute}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestEventToAttachment(t *testing.T) {
	att := eventToAttachment(notify.Event{
		Title: "3 impacts", Body: "body", Color: "#e8a317",
		Fields: []notify.Field{{Name: "Added", Value: "1", Short: true}},
	})
	if att.Title != "3 impacts" || att.Fallback != "3 impacts" || att.Color != "#e8a317" {
		t.Errorf("attachment = %+v", att)
	}
	if len(att.Fields) != 1 || att.Fields[0].Title != "Added" || !att.Fields[0].Short {
		t.Errorf("fields = %+v", att.Fields)
	}
}

func TestBuildMessageOptions(t *testing.T) {
	if got := len(buildMessageOptions(notify.Message{Text: "plain"})); got != 1 {
		t.Errorf("plain message options = %d, want 1", got)
	}
	msg := notify.FormatImpactSummary(notify.ImpactSummary{Isometric: "ISO-1", Added: 1})
	if got := len(buildMessageOptions(msg)); got != 2 {
		t.Errorf("event message options = %d, want 2", got)
	}
}

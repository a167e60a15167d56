// Package notify posts impact summaries to chat platforms (Slack, Discord).
// Delivery is best-effort: failures are logged and never reach the caller.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/zulandar/isotrack/internal/logger"
	"github.com/zulandar/isotrack/internal/models"
)

// sendTimeout bounds one delivery attempt across all adapters.
const sendTimeout = 15 * time.Second

// Adapter is the interface that platform-specific implementations must satisfy.
type Adapter interface {
	// Name identifies the platform in logs, e.g. "slack".
	Name() string

	// Send delivers a message. An empty ChannelID means the adapter's
	// default channel.
	Send(ctx context.Context, msg Message) error
}

// Message is a chat message with optional structured attachments.
type Message struct {
	ChannelID string
	Text      string  // plain-text body, also the fallback for attachments
	Events    []Event // rendered as Slack attachments or Discord embeds
}

// Event is a titled attachment with key/value fields.
type Event struct {
	Title  string
	Body   string
	Color  string // hex sidebar color, e.g. "#e01e5a"
	Fields []Field
}

// Field is a key-value pair displayed in an event attachment.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}

// ImpactSummary describes one batch of impacts detected by a detail import.
type ImpactSummary struct {
	ProjectID        string
	Isometric        string
	Revision         string
	PreviousRevision string
	RevisionID       uint
	BatchID          string
	Added            int
	Removed          int
	Modified         int
}

// Total is the number of impacts in the batch.
func (s ImpactSummary) Total() int { return s.Added + s.Removed + s.Modified }

// CountKinds tallies impacts by change kind into s.
func (s *ImpactSummary) CountKinds(impacts []models.Impact) {
	s.Added, s.Removed, s.Modified = 0, 0, 0
	for _, imp := range impacts {
		switch imp.ChangeKind {
		case models.ChangeAdded:
			s.Added++
		case models.ChangeRemoved:
			s.Removed++
		case models.ChangeModified:
			s.Modified++
		}
	}
}

// FormatImpactSummary renders a summary as a chat message.
func FormatImpactSummary(s ImpactSummary) Message {
	title := fmt.Sprintf("%d impacts pending review on %s rev %s", s.Total(), s.Isometric, s.Revision)
	body := fmt.Sprintf("Revision %s replaced revision %s in project %s.", s.Revision, s.PreviousRevision, s.ProjectID)
	return Message{
		Text: title,
		Events: []Event{{
			Title: title,
			Body:  body,
			Color: "#e8a317",
			Fields: []Field{
				{Name: "Added", Value: fmt.Sprint(s.Added), Short: true},
				{Name: "Removed", Value: fmt.Sprint(s.Removed), Short: true},
				{Name: "Modified", Value: fmt.Sprint(s.Modified), Short: true},
				{Name: "Batch", Value: s.BatchID},
			},
		}},
	}
}

// Notifier fans a message out to every configured adapter.
type Notifier struct {
	adapters []Adapter
	log      *logger.Logger
}

// New builds a Notifier. With no adapters every call is a no-op.
func New(log *logger.Logger, adapters ...Adapter) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{adapters: adapters, log: log}
}

// Enabled reports whether at least one adapter is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && len(n.adapters) > 0
}

// ImpactsDetected announces a batch of impacts. Empty batches are ignored.
func (n *Notifier) ImpactsDetected(ctx context.Context, s ImpactSummary) {
	if !n.Enabled() || s.Total() == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	msg := FormatImpactSummary(s)
	for _, a := range n.adapters {
		if err := a.Send(ctx, msg); err != nil {
			n.log.Warn("impact notification failed",
				"adapter", a.Name(), "isometric", s.Isometric, "revision", s.Revision, "error", err)
			continue
		}
		n.log.Debug("impact notification sent", "adapter", a.Name(), "isometric", s.Isometric)
	}
}

// Package security carries audit events from the auth core to operator-facing
// sinks. The one high-severity event in this service is reuse of a revoked
// refresh token, which indicates either token theft or a stale client
// replaying a consumed credential.
package security

import (
	"context"
	"time"

	"github.com/avdeevdm/auth-service/internal/logging"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityCritical Severity = "critical"
)

// Event types emitted by the token lifecycle.
const (
	EventRevokedTokenReuse = "revoked_token_reuse"
)

// Event is a single audit record.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Severity  Severity  `json:"severity"`
	UserID    int64     `json:"user_id,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// MultiSink fans an event out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, event Event) {
	for _, s := range m {
		s.Emit(ctx, event)
	}
}

// LogSink writes events to the structured log. Critical events are logged
// at error level so they stand out in operator alerting.
type LogSink struct {
	log logging.Logger
}

func NewLogSink(log logging.Logger) *LogSink {
	return &LogSink{log: log.With("component", "security")}
}

func (s *LogSink) Emit(ctx context.Context, event Event) {
	args := []any{
		"event", event.Type,
		"severity", string(event.Severity),
		"user_id", event.UserID,
	}
	if event.IP != "" {
		args = append(args, "ip", event.IP)
	}
	if event.Detail != "" {
		args = append(args, "detail", event.Detail)
	}

	if event.Severity == SeverityCritical {
		s.log.Error(ctx, "SECURITY ALERT", args...)
		return
	}
	s.log.Info(ctx, "security event", args...)
}

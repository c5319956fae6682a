package email

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/avdeevdm/auth-service/internal/security"
	"github.com/stretchr/testify/assert"
)

func TestAlertNotifier_WritesCriticalEvents(t *testing.T) {
	var buf bytes.Buffer
	n := NewAlertNotifier(&buf)

	n.Emit(context.Background(), security.Event{
		Timestamp: time.Now(),
		Type:      security.EventRevokedTokenReuse,
		Severity:  security.SeverityCritical,
		UserID:    42,
		IP:        "203.0.113.9",
	})

	out := buf.String()
	assert.Contains(t, out, security.EventRevokedTokenReuse)
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "203.0.113.9")
}

func TestAlertNotifier_IgnoresInfoEvents(t *testing.T) {
	var buf bytes.Buffer
	n := NewAlertNotifier(&buf)

	n.Emit(context.Background(), security.Event{Severity: security.SeverityInfo})

	assert.Empty(t, buf.String())
}

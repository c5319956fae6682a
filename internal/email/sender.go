// Package email delivers operator notifications for critical security
// events. The transport is a plain writer for now; swapping in a real
// mail gateway only touches this package.
package email

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/avdeevdm/auth-service/internal/security"
)

// AlertNotifier is a security.Sink that writes an email-style notification
// for every critical event and ignores the rest.
type AlertNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewAlertNotifier(out io.Writer) *AlertNotifier {
	return &AlertNotifier{out: out}
}

func (n *AlertNotifier) Emit(_ context.Context, event security.Event) {
	if event.Severity != security.SeverityCritical {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "Email notification! Security alert: %s, user id %d", event.Type, event.UserID)
	if event.IP != "" {
		fmt.Fprintf(n.out, ", ip %s", event.IP)
	}
	fmt.Fprintln(n.out)
}

package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity of a notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// DefaultLifetime is how long a notification stays before it removes itself
const DefaultLifetime = 3 * time.Second

// Notification is a transient, dismissible status message
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	BgClass   string    `json:"bg_class"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
	Dismissed bool      `json:"dismissed"`
}

type entry struct {
	Notification
	timer *time.Timer
}

// Notifier keeps the stack of live notifications. Each one owns its timer and is
// removed when the lifetime elapses, whether or not it was dismissed.
type Notifier struct {
	mu       sync.Mutex
	lifetime time.Duration
	entries  []*entry
	closed   bool
}

// Option configures a Notifier
type Option func(*Notifier)

// WithLifetime overrides DefaultLifetime
func WithLifetime(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.lifetime = d
		}
	}
}

func NewNotifier(opts ...Option) *Notifier {
	n := &Notifier{lifetime: DefaultLifetime}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify pushes a message; an empty severity means info
func (n *Notifier) Notify(message string, severity Severity) Notification {
	if severity == "" {
		severity = SeverityInfo
	}

	e := &entry{Notification: Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		BgClass:   bgClass(severity),
		Icon:      icon(severity),
		CreatedAt: time.Now(),
	}}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return e.Notification
	}
	id := e.ID
	e.timer = time.AfterFunc(n.lifetime, func() { n.remove(id) })
	n.entries = append(n.entries, e)
	return e.Notification
}

// Dismiss hides a notification. It still expires on its own timer.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, e := range n.entries {
		if e.ID == id {
			e.Dismissed = true
			return true
		}
	}
	return false
}

// Active returns the live, non-dismissed notifications, oldest first
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	active := make([]Notification, 0, len(n.entries))
	for _, e := range n.entries {
		if !e.Dismissed {
			active = append(active, e.Notification)
		}
	}
	return active
}

// Len returns the number of live notifications, dismissed or not
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// Close stops every pending timer and drops all notifications
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, e := range n.entries {
		e.timer.Stop()
	}
	n.entries = nil
	n.closed = true
}

func (n *Notifier) remove(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, e := range n.entries {
		if e.ID == id {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			return
		}
	}
}

func bgClass(severity Severity) string {
	switch severity {
	case SeverityError:
		return "bg-danger"
	case SeveritySuccess:
		return "bg-success"
	default:
		return "bg-primary"
	}
}

func icon(severity Severity) string {
	switch severity {
	case SeverityError:
		return "exclamation-circle"
	case SeveritySuccess:
		return "check-circle"
	default:
		return "info-circle"
	}
}

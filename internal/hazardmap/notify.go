package hazardmap

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// NotificationKind selects the styling of a notification.
type NotificationKind string

const (
	KindInfo    NotificationKind = "info"
	KindSuccess NotificationKind = "success"
	KindWarning NotificationKind = "warning"
	KindError   NotificationKind = "error"
)

// DefaultNotificationTTL is how long a notification stays visible.
const DefaultNotificationTTL = 3 * time.Second

// maxNotifications bounds the feed when nobody reads it.
const maxNotifications = 50

// Notification is a transient, dismissible message.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// Notifications is the non-blocking message feed. Entries expire after the
// TTL measured on the feed's clock and can be dismissed early.
type Notifications struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu    sync.Mutex
	items []Notification
}

// NewNotifications creates an empty feed. A non-positive ttl uses
// DefaultNotificationTTL.
func NewNotifications(clock clockwork.Clock, ttl time.Duration) *Notifications {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Notifications{clock: clock, ttl: ttl}
}

// Push adds a notification with the feed's TTL and returns it.
func (n *Notifications) Push(kind NotificationKind, message string) Notification {
	return n.PushFor(kind, message, n.ttl)
}

// PushFor adds a notification that stays visible for ttl.
func (n *Notifications) PushFor(kind NotificationKind, message string, ttl time.Duration) Notification {
	now := n.clock.Now()
	note := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.pruneLocked(now)
	n.items = append(n.items, note)
	if len(n.items) > maxNotifications {
		n.items = n.items[len(n.items)-maxNotifications:]
	}
	return note
}

// Active returns the unexpired notifications, oldest first.
func (n *Notifications) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pruneLocked(n.clock.Now())
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Dismiss removes a notification. It reports whether the ID was active.
func (n *Notifications) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	return false
}

func (n *Notifications) pruneLocked(now time.Time) {
	kept := n.items[:0]
	for _, item := range n.items {
		if now.Before(item.ExpiresAt) {
			kept = append(kept, item)
		}
	}
	n.items = kept
}

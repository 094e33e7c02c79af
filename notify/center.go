package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"certgate/models"
)

// DedupeWindow suppresses a repeat alert with the same (message, type) pair.
// Redundant upstream handlers firing for one logical action land within this
// window; genuinely new alerts do not.
const DedupeWindow = 1000 * time.Millisecond

// DefaultDurationMs is applied when a caller gives no duration.
const DefaultDurationMs = 5000

// Options tune a single notification.
type Options struct {
	Title      string
	DurationMs int64 // <= 0 means persistent
}

// Center is the process-wide notification queue. The center is the only
// mutator; readers get snapshots.
type Center struct {
	mu     sync.Mutex
	items  []models.Notification
	lastAt map[string]time.Time // (type|message) -> creation time
	timers map[string]*time.Timer
	now    func() time.Time
	expiry bool
}

// NewCenter creates a notification center with auto-expiry enabled.
func NewCenter() *Center {
	return &Center{
		lastAt: make(map[string]time.Time),
		timers: make(map[string]*time.Timer),
		now:    time.Now,
		expiry: true,
	}
}

// Notify enqueues an alert and returns its id. A repeat (message, type) pair
// within the dedupe window is rejected and returns the empty id. A zero
// duration in opts falls back to the default; negative durations are
// persistent.
func (c *Center) Notify(notifType, message string, opts *Options) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	key := notifType + "|" + message
	if last, ok := c.lastAt[key]; ok && now.Sub(last) < DedupeWindow {
		return ""
	}
	// Entries past the window can never suppress anything again; drop them
	// so the map does not grow with every distinct message.
	for k, last := range c.lastAt {
		if now.Sub(last) >= DedupeWindow {
			delete(c.lastAt, k)
		}
	}
	c.lastAt[key] = now

	duration := int64(DefaultDurationMs)
	title := ""
	if opts != nil {
		title = opts.Title
		if opts.DurationMs != 0 {
			duration = opts.DurationMs
		}
	}

	notification := models.Notification{
		ID:         uuid.NewString(),
		Type:       notifType,
		Message:    message,
		Title:      title,
		DurationMs: duration,
		CreatedAt:  now.UnixMilli(),
	}
	c.items = append(c.items, notification)

	if duration > 0 && c.expiry {
		id := notification.ID
		c.timers[id] = time.AfterFunc(time.Duration(duration)*time.Millisecond, func() {
			c.Remove(id)
		})
	}
	return notification.ID
}

// Success enqueues a success alert.
func (c *Center) Success(message string) string {
	return c.Notify(models.NotifySuccess, message, nil)
}

// Error enqueues an error alert.
func (c *Center) Error(message string) string {
	return c.Notify(models.NotifyError, message, nil)
}

// Info enqueues an info alert.
func (c *Center) Info(message string) string {
	return c.Notify(models.NotifyInfo, message, nil)
}

// Remove dismisses a notification. Idempotent: removing an unknown or
// already-expired id is a no-op.
func (c *Center) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}
	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// List returns a snapshot of the active notifications, oldest first.
func (c *Center) List() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Notification, len(c.items))
	copy(out, c.items)
	return out
}

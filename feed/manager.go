package feed

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"certgate/ledger"
	"certgate/models"
)

const (
	// MaxActivities bounds the activity log; the oldest entry is evicted
	// once the log is full.
	MaxActivities = 1000
	// heartbeatEvery throttles the synthesized "new block" activity so fast
	// chains do not flood the log.
	heartbeatEvery = 10
	// backfillLimit caps how much history seeds the log at startup.
	backfillLimit = 50
)

// Applier reconciles raw ledger events into the certificate mirror. The feed
// manager invokes it for every live event regardless of pause state; pausing
// stops observation of the feed, not reconciliation of records.
type Applier interface {
	Apply(raw ledger.RawEvent)
}

// Manager owns the live subscriptions to the ledger event streams and the
// bounded, most-recent-first activity log. All mutation goes through the
// manager; readers get snapshots.
type Manager struct {
	mu         sync.Mutex
	source     ledger.EventSource
	subs       []ledger.Subscription
	generation int

	paused     bool
	filter     string
	activities []models.Activity // most-recent-first
	nextSeq    uint64
	blockCount int64

	applier Applier
	now     func() time.Time
}

// NewManager creates a feed manager. applier may be nil when no certificate
// mirror is attached.
func NewManager(applier Applier) *Manager {
	return &Manager{
		applier: applier,
		now:     time.Now,
	}
}

// Start installs live subscriptions on the source. Idempotent: any previously
// installed subscriptions are torn down first, so reconnecting never stacks
// duplicate listeners. A single failing subscription is logged and skipped;
// the rest still install.
func (m *Manager) Start(source ledger.EventSource) {
	m.mu.Lock()
	m.teardownLocked()
	m.source = source
	gen := m.generation
	m.mu.Unlock()

	for _, name := range ledger.KnownEvents {
		eventName := name
		sub, err := source.Subscribe(eventName, func(raw ledger.RawEvent) {
			m.onEvent(gen, raw)
		})
		if err != nil {
			log.Printf("[FEED] subscribe %s failed: %v", eventName, err)
			continue
		}
		m.mu.Lock()
		if m.generation != gen {
			// Stopped while installing; this listener is already stale.
			m.mu.Unlock()
			sub.Unsubscribe()
			continue
		}
		m.subs = append(m.subs, sub)
		m.mu.Unlock()
	}

	blockSub, err := source.SubscribeBlocks(func(blockNumber int64) {
		m.onBlock(gen, blockNumber)
	})
	if err != nil {
		log.Printf("[FEED] block subscription failed: %v", err)
		return
	}
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		blockSub.Unsubscribe()
		return
	}
	m.subs = append(m.subs, blockSub)
	m.mu.Unlock()
}

// Stop removes every installed subscription. Safe to call repeatedly and on
// a manager that never fully started; any in-flight callback from a removed
// listener becomes a no-op through the generation counter.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}

func (m *Manager) teardownLocked() {
	m.generation++
	for _, sub := range m.subs {
		sub.Unsubscribe()
	}
	m.subs = nil
}

// Backfill seeds the activity log with history from the most recent
// lookbackBlocks blocks (most-recent-first, truncated to the newest 50).
// A single failing historical query is excluded rather than failing the
// whole backfill.
func (m *Manager) Backfill(ctx context.Context, source ledger.EventSource, lookbackBlocks int64) {
	head, err := source.LatestBlock(ctx)
	if err != nil {
		log.Printf("[FEED] backfill skipped, head unavailable: %v", err)
		return
	}
	from := head - lookbackBlocks
	if from < 0 {
		from = 0
	}

	var raws []ledger.RawEvent
	for _, name := range ledger.KnownEvents {
		events, err := source.QueryFilter(ctx, name, from, head)
		if err != nil {
			log.Printf("[FEED] backfill query %s failed: %v", name, err)
			continue
		}
		raws = append(raws, events...)
	}

	// Reconcile the full history into the mirror before the log is trimmed:
	// the mirror must reflect every record the window saw, not just the
	// newest entries shown in the feed. Oldest first, so issuance lands
	// before later lifecycle flags.
	if m.applier != nil {
		sort.SliceStable(raws, func(i, j int) bool {
			return raws[i].BlockNumber < raws[j].BlockNumber
		})
		for _, raw := range raws {
			m.applier.Apply(raw)
		}
	}

	sort.SliceStable(raws, func(i, j int) bool {
		return raws[i].BlockNumber > raws[j].BlockNumber
	})
	if len(raws) > backfillLimit {
		raws = raws[:backfillLimit]
	}

	// Block timestamps are best-effort; a failed lookup falls back to now.
	timestamps := make(map[int64]int64)
	for _, raw := range raws {
		if _, ok := timestamps[raw.BlockNumber]; ok {
			continue
		}
		block, err := source.GetBlock(ctx, raw.BlockNumber)
		if err != nil {
			timestamps[raw.BlockNumber] = m.now().UnixMilli()
			continue
		}
		timestamps[raw.BlockNumber] = block.Timestamp * 1000
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	seeded := make([]models.Activity, 0, len(raws))
	for _, raw := range raws {
		activity := FormatEvent(raw.Name, raw.Args, raw.BlockNumber, raw.TxHash, timestamps[raw.BlockNumber])
		m.nextSeq++
		activity.Seq = m.nextSeq
		seeded = append(seeded, activity)
	}
	// History goes behind anything the live phase already delivered.
	m.activities = append(m.activities, seeded...)
	m.trimLocked()
}

func (m *Manager) onEvent(gen int, raw ledger.RawEvent) {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	paused := m.paused
	m.mu.Unlock()

	if m.applier != nil {
		m.applier.Apply(raw)
	}
	if paused {
		// Paused means "do not observe": the event is dropped, not queued.
		return
	}

	activity := FormatEvent(raw.Name, raw.Args, raw.BlockNumber, raw.TxHash, m.now().UnixMilli())

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen || m.paused {
		return
	}
	m.prependLocked(activity)
}

func (m *Manager) onBlock(gen int, blockNumber int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen || m.paused {
		return
	}
	m.blockCount++
	if m.blockCount%heartbeatEvery != 0 {
		return
	}
	m.prependLocked(models.Activity{
		Category:    models.CategorySystem,
		Title:       "New Block",
		Description: "Ledger advanced to a new block",
		Details:     map[string]any{"blockNumber": blockNumber},
		Icon:        "cube",
		Color:       "gray",
		Priority:    models.PriorityLow,
		BlockNumber: blockNumber,
		Timestamp:   m.now().UnixMilli(),
	})
}

func (m *Manager) prependLocked(activity models.Activity) {
	m.nextSeq++
	activity.Seq = m.nextSeq
	m.activities = append([]models.Activity{activity}, m.activities...)
	m.trimLocked()
}

func (m *Manager) trimLocked() {
	if len(m.activities) > MaxActivities {
		m.activities = m.activities[:MaxActivities]
	}
}

// Pause stops live events from entering the log. Events arriving while
// paused are not replayed on resume.
func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
}

// Resume re-enables live observation.
func (m *Manager) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
}

// Paused reports whether the feed is paused.
func (m *Manager) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// SetFilter sets the read-side category filter. Storage is unaffected.
func (m *Manager) SetFilter(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = category
}

// Clear empties the activity log.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = nil
}

// Activities returns a snapshot of the log filtered by category. An empty
// category means the stored filter; the stored filter empty or "all" means
// everything.
func (m *Manager) Activities(category string) []models.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if category == "" {
		category = m.filter
	}
	out := make([]models.Activity, 0, len(m.activities))
	for _, activity := range m.activities {
		if category != "" && category != "all" && activity.Category != category {
			continue
		}
		// The Details map must not alias the stored entry; callers may
		// annotate their copy.
		if activity.Details != nil {
			details := make(map[string]any, len(activity.Details))
			for k, v := range activity.Details {
				details[k] = v
			}
			activity.Details = details
		}
		out = append(out, activity)
	}
	return out
}

// Counts returns the number of stored activities per category.
func (m *Manager) Counts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{
		models.CategoryCertificates: 0,
		models.CategoryInstitutions: 0,
		models.CategorySystem:       0,
	}
	for _, activity := range m.activities {
		counts[activity.Category]++
	}
	return counts
}

// CountSince returns how many activities have timestamps at or after cutoff.
func (m *Manager) CountSince(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms := cutoff.UnixMilli()
	count := 0
	for _, activity := range m.activities {
		if activity.Timestamp >= ms {
			count++
		}
	}
	return count
}

// Len returns the current size of the activity log.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activities)
}

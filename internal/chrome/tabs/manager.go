// Package tabs routes URLs to live browser tabs by origin, with LRU
// eviction and on-disk state that survives process invocations.
package tabs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// MaxTabs caps the tracked set; the least recently used entry is evicted
// (and its target closed) on overflow.
const MaxTabs = 20

// Browser is the slice of target operations the manager needs. Satisfied by
// an adapter over commands.Target and cdp.ListTargets.
type Browser interface {
	CreateTarget(ctx context.Context, url string) (string, error)
	CloseTarget(ctx context.Context, id string) error
	ActivateTarget(ctx context.Context, id string) error
	ListPages(ctx context.Context) ([]PageInfo, error)
}

// PageInfo describes one live page target.
type PageInfo struct {
	ID    string
	URL   string
	Title string
}

// Options configure a Manager.
type Options struct {
	// StatePath is the tab state file; defaults to
	// <home>/.frago/chrome/tab_state.json.
	StatePath string
	// Port keys the persisted state; entries for other ports are discarded.
	Port int

	Logger zerolog.Logger

	now func() time.Time
}

// Manager owns the origin→tab map.
type Manager struct {
	browser   Browser
	statePath string
	port      int
	log       zerolog.Logger
	now       func() time.Time

	entries map[string]Entry
}

// DefaultStatePath returns <home>/.frago/chrome/tab_state.json.
func DefaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".frago", "chrome", "tab_state.json"), nil
}

// NewManager loads persisted state for the configured port.
func NewManager(browser Browser, opts Options) (*Manager, error) {
	if opts.StatePath == "" {
		p, err := DefaultStatePath()
		if err != nil {
			return nil, err
		}
		opts.StatePath = p
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	entries, err := loadState(opts.StatePath, opts.Port)
	if err != nil {
		return nil, err
	}
	return &Manager{
		browser:   browser,
		statePath: opts.StatePath,
		port:      opts.Port,
		log:       opts.Logger,
		now:       opts.now,
		entries:   entries,
	}, nil
}

// Entries returns a snapshot of the tracked tabs.
func (m *Manager) Entries() []Entry {
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

// GetOrCreateTab routes url to a target id. Unroutable URLs fall through to
// the first live page (or "" when none); routable ones reuse the freshest
// same-origin tab or create a new target, evicting the LRU entry at the cap.
func (m *Manager) GetOrCreateTab(ctx context.Context, url string) (string, error) {
	origin := Origin(url)
	if origin == "" {
		pages, err := m.browser.ListPages(ctx)
		if err != nil {
			return "", err
		}
		if len(pages) == 0 {
			return "", nil
		}
		return pages[0].ID, nil
	}

	if id := m.freshestForOrigin(origin); id != "" {
		e := m.entries[id]
		e.LastActivity = m.now()
		m.entries[id] = e
		if err := m.browser.ActivateTarget(ctx, id); err != nil {
			m.log.Debug().Err(err).Str("tab_id", id).Msg("activate target failed")
		}
		if err := m.persist(); err != nil {
			return "", err
		}
		return id, nil
	}

	for len(m.entries) >= MaxTabs {
		if !m.evictLRU(ctx) {
			break
		}
	}

	id, err := m.browser.CreateTarget(ctx, url)
	if err != nil {
		return "", err
	}
	now := m.now()
	m.entries[id] = Entry{
		TabID:        id,
		Origin:       origin,
		URL:          url,
		LastActivity: now,
		CreatedAt:    now,
	}
	if err := m.persist(); err != nil {
		return "", err
	}
	return id, nil
}

// Reconcile aligns the tracked set with the browser's live pages: dead
// entries are dropped, untracked pages adopted, and url/title refreshed.
func (m *Manager) Reconcile(ctx context.Context) error {
	pages, err := m.browser.ListPages(ctx)
	if err != nil {
		return err
	}
	live := make(map[string]PageInfo, len(pages))
	for _, p := range pages {
		live[p.ID] = p
	}

	for id := range m.entries {
		if _, ok := live[id]; !ok {
			delete(m.entries, id)
		}
	}
	now := m.now()
	for id, p := range live {
		if e, ok := m.entries[id]; ok {
			e.URL = p.URL
			e.Title = p.Title
			e.Origin = Origin(p.URL)
			m.entries[id] = e
			continue
		}
		m.entries[id] = Entry{
			TabID:        id,
			Origin:       Origin(p.URL),
			URL:          p.URL,
			Title:        p.Title,
			LastActivity: now,
			CreatedAt:    now,
		}
	}
	// Tracking stops at the cap; surplus pages stay open but untracked.
	for len(m.entries) > MaxTabs {
		if !m.dropLRU() {
			break
		}
	}
	return m.persist()
}

func (m *Manager) freshestForOrigin(origin string) string {
	best := ""
	var bestAt time.Time
	for id, e := range m.entries {
		if e.Origin != origin {
			continue
		}
		if best == "" || e.LastActivity.After(bestAt) {
			best = id
			bestAt = e.LastActivity
		}
	}
	return best
}

func (m *Manager) lruEntry() string {
	victim := ""
	var oldest time.Time
	for id, e := range m.entries {
		if victim == "" || e.LastActivity.Before(oldest) {
			victim = id
			oldest = e.LastActivity
		}
	}
	return victim
}

func (m *Manager) evictLRU(ctx context.Context) bool {
	victim := m.lruEntry()
	if victim == "" {
		return false
	}
	if err := m.browser.CloseTarget(ctx, victim); err != nil {
		m.log.Warn().Err(err).Str("tab_id", victim).Msg("close evicted target failed")
	}
	delete(m.entries, victim)
	return true
}

// dropLRU forgets the stalest entry without touching the browser.
func (m *Manager) dropLRU() bool {
	victim := m.lruEntry()
	if victim == "" {
		return false
	}
	m.log.Debug().Str("tab_id", victim).Msg("untracking tab beyond cap")
	delete(m.entries, victim)
	return true
}

func (m *Manager) persist() error {
	return saveState(m.statePath, m.port, m.entries)
}

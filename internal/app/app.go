// Package app is the command surface. Every operation the host invokes
// lives here, layered over the config store, the durable sync state, the
// calendar gateway, and the in-memory runtime.
package app

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/colinaird/pomblock/internal/cache"
	"github.com/colinaird/pomblock/internal/config"
	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/gateway"
	"github.com/colinaird/pomblock/internal/models"
	"github.com/colinaird/pomblock/internal/oauth"
	"github.com/colinaird/pomblock/internal/pomodoro"
	"github.com/colinaird/pomblock/internal/storage"
	"github.com/colinaird/pomblock/internal/syncer"
)

const defaultAccount = "default"

// runtimeState is every piece of in-memory state, guarded by one
// exclusive lock. The lock is never held across a gateway or storage
// call; commands snapshot under the lock, do their I/O, then re-lock to
// commit.
type runtimeState struct {
	blocks      map[string]models.Block
	tasks       map[string]models.Task
	taskOrder   []string
	events      map[string][]models.RemoteEvent
	calendarIDs map[string]string
	pomodoro    *pomodoro.Engine
}

// App wires the engines together behind the command surface.
type App struct {
	mu    sync.Mutex
	state runtimeState

	cfg         *config.Store
	store       storage.Provider
	gw          gateway.Gateway
	oauthConfig oauth.Config
	tokens      oauth.TokenStore
	tokenClient oauth.TokenClient
	caches      map[string]*cache.EventCache

	now   func() time.Time
	newID func(prefix string) string
}

func New(cfg *config.Store, store storage.Provider, gw gateway.Gateway, oauthConfig oauth.Config, tokens oauth.TokenStore, tokenClient oauth.TokenClient) *App {
	return &App{
		state: runtimeState{
			blocks:      make(map[string]models.Block),
			tasks:       make(map[string]models.Task),
			events:      make(map[string][]models.RemoteEvent),
			calendarIDs: make(map[string]string),
			pomodoro:    pomodoro.NewEngine(),
		},
		cfg:         cfg,
		store:       store,
		gw:          gw,
		oauthConfig: oauthConfig,
		tokens:      tokens,
		tokenClient: tokenClient,
		caches:      make(map[string]*cache.EventCache),
		now:         time.Now,
		newID: func(prefix string) string {
			return prefix + "-" + uuid.NewString()
		},
	}
}

// WithNow overrides the clock, for tests.
func (a *App) WithNow(now func() time.Time) *App {
	a.now = now
	a.state.pomodoro.WithNow(now)
	return a
}

// WithIDGenerator overrides ID generation, for tests.
func (a *App) WithIDGenerator(newID func(prefix string) string) *App {
	a.newID = newID
	return a
}

// account resolves an optional account argument against the app config's
// default.
func (a *App) account(requested string) string {
	if trimmed := strings.TrimSpace(requested); trimmed != "" {
		return trimmed
	}
	if appCfg, err := a.cfg.LoadApp(); err == nil && appCfg.DefaultAccount != "" {
		return appCfg.DefaultAccount
	}
	return defaultAccount
}

func (a *App) manager(accountID string) *oauth.Manager {
	return oauth.NewManager(a.oauthConfig, a.tokens, a.tokenClient, accountID).WithNow(a.now)
}

// cacheFor returns the account's event cache, creating it on first use.
// Caches are per account so one account's sync never touches another's
// mirror.
func (a *App) cacheFor(accountID string) *cache.EventCache {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.caches[accountID]; ok {
		return c
	}
	c := cache.NewEventCache()
	a.caches[accountID] = c
	return c
}

func (a *App) syncEngine(accountID string) *syncer.Engine {
	return syncer.New(a.gw, a.store, a.cacheFor(accountID), accountID).WithNow(a.now)
}

func (a *App) blocksForDate(date string) []models.Block {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.Block
	for _, block := range a.state.blocks {
		if block.Date == date {
			out = append(out, block)
		}
	}
	sortBlocks(out)
	return out
}

func sortBlocks(blocks []models.Block) {
	sort.Slice(blocks, func(i, j int) bool {
		if !blocks[i].StartAt.Equal(blocks[j].StartAt) {
			return blocks[i].StartAt.Before(blocks[j].StartAt)
		}
		return blocks[i].ID < blocks[j].ID
	})
}

func (a *App) allEvents() []models.RemoteEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.RemoteEvent
	for _, events := range a.state.events {
		out = append(out, events...)
	}
	return out
}

func requireID(value, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apperrors.New(apperrors.KindInvalidConfig,
			"%s must not be empty", field)
	}
	return trimmed, nil
}

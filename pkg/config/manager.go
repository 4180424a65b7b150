package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/romdo/go-debounce"

	"github.com/sistemabuses/busadmin/pkg/logger"
)

const defaultReloadDebounce = 100 * time.Millisecond

// Manager owns the active configuration. It re-reads every source when a
// watched source changes and notifies OnChange subscribers when the result
// differs from the previous one.
type Manager struct {
	Service Service

	current atomic.Pointer[Config]

	mu        sync.Mutex
	sources   []Source
	callbacks []func(*Config)
	debounce  time.Duration

	watchCancel context.CancelFunc
	stopReload  func()
	watchWg     sync.WaitGroup
	closeOnce   sync.Once
}

func NewManager(service Service) *Manager {
	if service == nil {
		service = NewService()
	}
	return &Manager{Service: service, debounce: defaultReloadDebounce}
}

// Load reads the sources and starts watching those that support it.
// Watchers outlive ctx cancellation; Close stops them.
func (m *Manager) Load(ctx context.Context, sources ...Source) (*Config, error) {
	cfg, err := m.Service.Load(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	m.mu.Lock()
	m.sources = append([]Source(nil), sources...)
	if m.watchCancel != nil {
		m.watchCancel()
	}
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.watchCancel = cancel
	m.mu.Unlock()

	m.apply(cfg)
	m.watch(watchCtx, sources)
	return cfg, nil
}

// Sources returns a copy of the configured sources.
func (m *Manager) Sources() []Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Source{}, m.sources...)
}

// Get returns the active configuration, or nil before Load.
func (m *Manager) Get() *Config {
	return m.current.Load()
}

// Reload re-reads every source.
func (m *Manager) Reload(ctx context.Context) error {
	cfg, err := m.Service.Load(ctx, m.Sources()...)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	m.apply(cfg)
	return nil
}

// SetDebounce sets how long file events are coalesced before a reload. It
// only affects watchers started by a later Load.
func (m *Manager) SetDebounce(d time.Duration) {
	m.mu.Lock()
	m.debounce = d
	m.mu.Unlock()
}

func (m *Manager) OnChange(callback func(*Config)) {
	if callback == nil {
		return
	}
	m.mu.Lock()
	m.callbacks = append(m.callbacks, callback)
	m.mu.Unlock()
}

// Close stops the watchers and closes every source. It is safe to call
// more than once.
func (m *Manager) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		cancel, stop := m.watchCancel, m.stopReload
		sources := append([]Source(nil), m.sources...)
		m.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		if stop != nil {
			stop()
		}
		m.watchWg.Wait()
		for _, src := range sources {
			if src == nil {
				continue
			}
			if err := src.Close(); err != nil {
				logger.FromContext(ctx).Error("failed to close configuration source", "type", src.Type(), "error", err)
			}
		}
	})
	return nil
}

func (m *Manager) watch(ctx context.Context, sources []Source) {
	log := logger.FromContext(ctx)
	reload := func() {
		if err := m.Reload(ctx); err != nil {
			log.Error("failed to reload configuration", "error", err)
		}
	}
	m.mu.Lock()
	if m.stopReload != nil {
		m.stopReload()
	}
	trigger := reload
	if m.debounce > 0 {
		trigger, m.stopReload = debounce.New(m.debounce, reload)
	} else {
		m.stopReload = nil
	}
	m.mu.Unlock()

	for _, src := range sources {
		if src == nil {
			continue
		}
		m.watchWg.Add(1)
		go func(src Source) {
			defer m.watchWg.Done()
			if err := src.Watch(ctx, trigger); err != nil {
				log.Debug("configuration source is not watchable", "type", src.Type(), "error", err)
			}
		}(src)
	}
}

func (m *Manager) apply(cfg *Config) {
	prev := m.current.Swap(cfg)
	if prev != nil && reflect.DeepEqual(prev, cfg) {
		return
	}
	m.mu.Lock()
	callbacks := append([]func(*Config){}, m.callbacks...)
	m.mu.Unlock()
	for _, cb := range callbacks {
		cb(cfg)
	}
}

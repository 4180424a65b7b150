package config

import (
	"context"
)

type ContextKey string

const (
	// ManagerCtxKey is the context key used to store the *Manager instance
	ManagerCtxKey ContextKey = "config_manager"
)

func ContextWithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, ManagerCtxKey, m)
}

// ManagerFromContext returns the manager stored in ctx or nil.
func ManagerFromContext(ctx context.Context) *Manager {
	if ctx == nil {
		return nil
	}
	if m, ok := ctx.Value(ManagerCtxKey).(*Manager); ok {
		return m
	}
	return nil
}

// FromContext returns the active configuration for ctx. Without a manager
// it falls back to built-in defaults so library code always has a value.
func FromContext(ctx context.Context) *Config {
	if m := ManagerFromContext(ctx); m != nil {
		if cfg := m.Get(); cfg != nil {
			return cfg
		}
	}
	return Default()
}

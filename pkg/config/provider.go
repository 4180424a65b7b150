package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sistemabuses/busadmin/pkg/config/definition"
	"gopkg.in/yaml.v3"
)

// cliProvider implements Source interface for CLI flags.
type cliProvider struct {
	flags map[string]any
}

// NewCLIProvider creates a new CLI flags configuration source.
func NewCLIProvider(flags map[string]any) Source {
	return &cliProvider{
		flags: flags,
	}
}

// Load returns the CLI flags as configuration data.
func (c *cliProvider) Load() (map[string]any, error) {
	if c.flags == nil {
		return make(map[string]any), nil
	}
	registry := definition.CreateRegistry()
	flagToPath := registry.GetCLIFlagMapping()
	config := make(map[string]any)
	for key, value := range c.flags {
		if path, ok := flagToPath[key]; ok {
			if err := setNested(config, path, value); err != nil {
				return nil, fmt.Errorf("failed to set CLI flag %s: %w", key, err)
			}
		}
	}
	return config, nil
}

// Watch is not implemented for CLI flags as they don't change at runtime.
func (c *cliProvider) Watch(_ context.Context, _ func()) error {
	return nil
}

// Type returns the source type identifier.
func (c *cliProvider) Type() SourceType {
	return SourceCLI
}

// Close releases any resources held by the source.
func (c *cliProvider) Close() error {
	return nil
}

// setNested sets a value in a nested map structure using dot notation.
// It returns an error if a path conflict is encountered.
func setNested(m map[string]any, path string, value any) error {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	current := m
	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}

		next, ok := current[part].(map[string]any)
		if !ok {
			return fmt.Errorf("configuration conflict: key %q is not a map", strings.Join(parts[:i+1], "."))
		}
		current = next
	}
	if len(parts) > 0 {
		current[parts[len(parts)-1]] = value
	}
	return nil
}

// yamlProvider reads a busadmin.yaml file. A missing file is an empty
// source so the config file stays optional.
type yamlProvider struct {
	path string

	mu      sync.Mutex
	watcher *Watcher
}

func NewYAMLProvider(path string) Source {
	return &yamlProvider{path: path}
}

func (y *yamlProvider) Load() (map[string]any, error) {
	data, err := os.ReadFile(y.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", y.path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", y.path, err)
	}
	return filterNilValues(raw), nil
}

// filterNilValues drops nil leaves so an empty YAML key keeps the lower-precedence value.
func filterNilValues(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case nil:
		case map[string]any:
			if nested := filterNilValues(val); len(nested) > 0 {
				result[k] = nested
			}
		default:
			result[k] = val
		}
	}
	return result
}

// Watch registers callback for changes to the file. The underlying watcher
// is created on first use and shared by later calls.
func (y *yamlProvider) Watch(ctx context.Context, callback func()) error {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.watcher == nil {
		w, err := NewWatcher()
		if err != nil {
			return err
		}
		if err := w.Watch(ctx, y.path); err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to watch %s: %w", y.path, err)
		}
		y.watcher = w
	}
	y.watcher.OnChange(callback)
	return nil
}

// Path is the file the provider reads.
func (y *yamlProvider) Path() string {
	return y.path
}

func (y *yamlProvider) Type() SourceType {
	return SourceYAML
}

func (y *yamlProvider) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.watcher == nil {
		return nil
	}
	err := y.watcher.Close()
	y.watcher = nil
	return err
}

// DefaultConfigFile returns the first existing candidate among ./busadmin.yaml
// and <UserConfigDir>/busadmin/config.yaml, or "" when none exists.
func DefaultConfigFile() string {
	candidates := []string{"busadmin.yaml", "busadmin.yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "busadmin", "config.yaml"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

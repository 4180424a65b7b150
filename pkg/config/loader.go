package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "BUSADMIN_"

// loader is the koanf-backed Service. Every Load starts from a fresh
// koanf instance and layers defaults, the given sources and finally the
// environment on top of each other.
type loader struct {
	validator *validator.Validate

	loadMu sync.Mutex

	metaMu   sync.RWMutex
	metadata Metadata
}

func NewService() Service {
	v := validator.New()
	if err := RegisterCustomValidators(v); err != nil {
		panic(fmt.Sprintf("config: registering validators: %v", err))
	}
	return &loader{
		validator: v,
		metadata:  Metadata{Sources: make(map[string]SourceType)},
	}
}

// Load builds a Config. Later sources win over earlier ones and
// BUSADMIN_* variables win over every source.
func (l *loader) Load(_ context.Context, sources ...Source) (*Config, error) {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	k := koanf.New(".")
	origins := make(map[string]SourceType)

	if err := layer(k, origins, SourceDefault, structs.Provider(Default(), "koanf")); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	for _, source := range sources {
		if source == nil || source.Type() == SourceEnv {
			continue
		}
		data, err := source.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load from source %s: %w", source.Type(), err)
		}
		if len(data) == 0 {
			continue
		}
		if err := layer(k, origins, source.Type(), rawMap(data)); err != nil {
			return nil, fmt.Errorf("failed to apply source %s: %w", source.Type(), err)
		}
	}
	environment := env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(name, value string) (string, any) {
			return envKey(name), value
		},
	})
	if err := layer(k, origins, SourceEnv, environment); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg, err := decode(k)
	if err != nil {
		return nil, err
	}
	if err := l.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	l.metaMu.Lock()
	l.metadata = Metadata{Sources: origins, LoadedAt: time.Now()}
	l.metaMu.Unlock()
	return cfg, nil
}

// layer merges p into k and records src as the origin of every key it
// added or changed.
func layer(k *koanf.Koanf, origins map[string]SourceType, src SourceType, p koanf.Provider) error {
	before := k.All()
	if err := k.Load(p, nil); err != nil {
		return err
	}
	for key, after := range k.All() {
		if prev, ok := before[key]; !ok || !reflect.DeepEqual(prev, after) {
			origins[key] = src
		}
	}
	return nil
}

func decode(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				toSensitive,
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return &cfg, nil
}

func toSensitive(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != sensitiveType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return SensitiveString(v), nil
	case []byte:
		return SensitiveString(v), nil
	}
	return data, nil
}

func (l *loader) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := l.validator.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if cfg.API.RetryCount > 0 && cfg.API.RetryWait > cfg.API.Timeout {
		return fmt.Errorf("validation failed: api retry_wait (%s) must not exceed api timeout (%s)",
			cfg.API.RetryWait, cfg.API.Timeout)
	}
	return nil
}

// GetSource returns which source last set key in the most recent Load.
func (l *loader) GetSource(key string) SourceType {
	l.metaMu.RLock()
	defer l.metaMu.RUnlock()
	if src, ok := l.metadata.Sources[key]; ok {
		return src
	}
	return SourceDefault
}

// rawMap adapts a nested map to koanf.Provider.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("rawMap does not support ReadBytes")
}

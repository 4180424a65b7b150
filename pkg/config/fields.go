package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/sistemabuses/busadmin/pkg/config/definition"
)

var (
	envOnce  sync.Once
	envToKey map[string]string
	keyToEnv map[string]string
)

func loadEnvNames() {
	envToKey = make(map[string]string)
	keyToEnv = make(map[string]string)
	for _, f := range definition.CreateRegistry().Fields() {
		if f.EnvVar == "" {
			continue
		}
		envToKey[f.EnvVar] = f.Path
		keyToEnv[f.Path] = f.EnvVar
	}
}

// EnvVarFor returns the environment variable bound to path, or "".
func EnvVarFor(path string) string {
	envOnce.Do(loadEnvNames)
	return keyToEnv[path]
}

// envKey maps a BUSADMIN_* variable to its config path. Variables the
// registry does not declare fall back to BUSADMIN_SECTION_FIELD_NAME ->
// section.field_name.
func envKey(name string) string {
	envOnce.Do(loadEnvNames)
	if path, ok := envToKey[name]; ok {
		return path
	}
	parts := strings.FieldsFunc(strings.ToLower(strings.TrimPrefix(name, envPrefix)), func(r rune) bool {
		return r == '_'
	})
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + "." + strings.Join(parts[1:], "_")
	}
}

var sensitiveType = reflect.TypeOf(SensitiveString(""))

// IsSensitive reports whether the value at path is a secret.
func IsSensitive(path string) bool {
	t := reflect.TypeOf(Config{})
	parts := strings.Split(path, ".")
	for i, part := range parts {
		f, ok := fieldByKey(t, part)
		if !ok {
			return false
		}
		if i == len(parts)-1 {
			return f.Type == sensitiveType || f.Tag.Get("sensitive") == "true"
		}
		if f.Type.Kind() != reflect.Struct {
			return false
		}
		t = f.Type
	}
	return false
}

func fieldByKey(t reflect.Type, key string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.IsExported() && f.Tag.Get("koanf") == key {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

// Flatten renders every leaf of cfg keyed by its dotted path. Secrets are
// redacted.
func Flatten(cfg *Config) map[string]string {
	out := make(map[string]string)
	if cfg != nil {
		flattenValue(reflect.ValueOf(*cfg), "", out)
	}
	return out
}

func flattenValue(v reflect.Value, prefix string, out map[string]string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := f.Tag.Get("koanf")
		if !f.IsExported() || key == "" || key == "-" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		fv := v.Field(i)
		switch {
		case f.Type == sensitiveType:
			out[key] = fv.Interface().(SensitiveString).String()
		case f.Type == reflect.TypeOf(time.Duration(0)):
			out[key] = fv.Interface().(time.Duration).String()
		case f.Type.Kind() == reflect.Struct:
			flattenValue(fv, key, out)
		default:
			out[key] = fmt.Sprint(fv.Interface())
		}
	}
}

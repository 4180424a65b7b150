package definition

import (
	"reflect"
	"time"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	stringType   = reflect.TypeOf("")
	intType      = reflect.TypeOf(0)
	boolType     = reflect.TypeOf(true)
)

// CreateRegistry creates and populates the configuration registry.
// Defaults, flag names and environment variables are declared only here.
func CreateRegistry() *Registry {
	registry := NewRegistry()
	registerAPIFields(registry)
	registerSessionFields(registry)
	registerCLIFields(registry)
	registerRuntimeFields(registry)
	return registry
}

func registerAPIFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "api.base_url",
		Default: "http://127.0.0.1:8000/api",
		CLIFlag: "api-url",
		EnvVar:  "BUSADMIN_API_URL",
		Type:    stringType,
		Help:    "Base URL of the Sistema de Buses REST API",
	})
	registry.Register(&FieldDef{
		Path:    "api.timeout",
		Default: 10 * time.Second,
		CLIFlag: "timeout",
		EnvVar:  "BUSADMIN_API_TIMEOUT",
		Type:    durationType,
		Help:    "Timeout for a single API request",
	})
	registry.Register(&FieldDef{
		Path:    "api.retry_count",
		Default: 2,
		EnvVar:  "BUSADMIN_API_RETRY_COUNT",
		Type:    intType,
		Help:    "Retries for idempotent GET requests",
	})
	registry.Register(&FieldDef{
		Path:    "api.retry_wait",
		Default: 200 * time.Millisecond,
		EnvVar:  "BUSADMIN_API_RETRY_WAIT",
		Type:    durationType,
		Help:    "Initial wait between GET retries",
	})
	registry.Register(&FieldDef{
		Path:    "api.auth_scheme",
		Default: "Token",
		EnvVar:  "BUSADMIN_API_AUTH_SCHEME",
		Type:    stringType,
		Help:    "Authorization header scheme (Token or Bearer)",
	})
	registry.Register(&FieldDef{
		Path:    "api.debug",
		Default: false,
		CLIFlag: "debug",
		EnvVar:  "BUSADMIN_API_DEBUG",
		Type:    boolType,
		Help:    "Trace HTTP requests and responses",
	})
}

func registerSessionFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "session.file",
		Default: "",
		CLIFlag: "session-file",
		EnvVar:  "BUSADMIN_SESSION_FILE",
		Type:    stringType,
		Help:    "Session file (defaults to the user config directory)",
	})
	registry.Register(&FieldDef{
		Path:    "session.token",
		Default: "",
		CLIFlag: "token",
		EnvVar:  "BUSADMIN_TOKEN",
		Type:    stringType,
		Help:    "API token; overrides the stored session",
	})
}

func registerCLIFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "cli.default_format",
		Default: "auto",
		CLIFlag: "format",
		EnvVar:  "BUSADMIN_FORMAT",
		Type:    stringType,
		Help:    "Output mode: auto, json or tui",
	})
	registry.Register(&FieldDef{
		Path:    "cli.interactive",
		Default: false,
		CLIFlag: "interactive",
		EnvVar:  "BUSADMIN_INTERACTIVE",
		Type:    boolType,
		Help:    "Force interactive mode",
	})
	registry.Register(&FieldDef{
		Path:    "cli.no_color",
		Default: false,
		CLIFlag: "no-color",
		EnvVar:  "BUSADMIN_NO_COLOR",
		Type:    boolType,
		Help:    "Disable colored output",
	})
	registry.Register(&FieldDef{
		Path:    "cli.double_open",
		Default: "reject",
		CLIFlag: "double-open",
		EnvVar:  "BUSADMIN_DOUBLE_OPEN",
		Type:    stringType,
		Help:    "Behavior when a form is opened over another: reject or replace",
	})
}

func registerRuntimeFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "runtime.log_level",
		Default: "info",
		CLIFlag: "log-level",
		EnvVar:  "BUSADMIN_LOG_LEVEL",
		Type:    stringType,
		Help:    "Log level (debug, info, warn, error, disabled)",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_json",
		Default: false,
		CLIFlag: "log-json",
		EnvVar:  "BUSADMIN_LOG_JSON",
		Type:    boolType,
		Help:    "Emit logs as JSON",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_source",
		Default: false,
		CLIFlag: "log-source",
		EnvVar:  "BUSADMIN_LOG_SOURCE",
		Type:    boolType,
		Help:    "Include caller information in logs",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_file",
		Default: "",
		CLIFlag: "log-file",
		EnvVar:  "BUSADMIN_LOG_FILE",
		Type:    stringType,
		Help:    "Write logs to this file (\"-\" discards them)",
	})
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sistemabuses/busadmin/pkg/config/definition"
)

// addGlobalFlags registers one persistent flag per registry field that
// declares a CLI flag, typed and defaulted from the registry.
func addGlobalFlags(cmd *cobra.Command, registry *definition.Registry) {
	flags := cmd.PersistentFlags()
	for _, field := range registry.Fields() {
		if field.CLIFlag == "" {
			continue
		}
		switch field.Type {
		case reflect.TypeOf(time.Duration(0)):
			def, _ := field.Default.(time.Duration)
			flags.DurationP(field.CLIFlag, field.Shorthand, def, field.Help)
		case reflect.TypeOf(0):
			def, _ := field.Default.(int)
			flags.IntP(field.CLIFlag, field.Shorthand, def, field.Help)
		case reflect.TypeOf(true):
			def, _ := field.Default.(bool)
			flags.BoolP(field.CLIFlag, field.Shorthand, def, field.Help)
		default:
			def, _ := field.Default.(string)
			flags.StringP(field.CLIFlag, field.Shorthand, def, field.Help)
		}
	}
	flags.String("config", "", "Path to the YAML config file (defaults to ./busadmin.yaml)")
	flags.String("env-file", ".env", "Path to a .env file loaded before configuration")
}

// extractCLIFlags copies the registry flags the user set explicitly into flags.
func extractCLIFlags(cmd *cobra.Command, registry *definition.Registry, flags map[string]any) {
	known := registry.GetCLIFlagMapping()
	cmd.Flags().Visit(func(flag *pflag.Flag) {
		if _, ok := known[flag.Name]; !ok {
			return
		}
		if value, err := flagValue(cmd.Flags(), flag); err == nil {
			flags[flag.Name] = value
		}
	})
}

func flagValue(set *pflag.FlagSet, flag *pflag.Flag) (any, error) {
	switch flag.Value.Type() {
	case "duration":
		return set.GetDuration(flag.Name)
	case "int":
		return set.GetInt(flag.Name)
	case "bool":
		return set.GetBool(flag.Name)
	default:
		return flag.Value.String(), nil
	}
}

// loadEnvFile loads environment variables from a file with security validation
func loadEnvFile(cmd *cobra.Command) (string, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return "", fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile == "" {
		return "", nil
	}
	pwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	if !filepath.IsAbs(envFile) {
		envFile = filepath.Join(pwd, envFile)
	}
	absPath, err := filepath.Abs(filepath.Clean(envFile))
	if err != nil {
		return "", fmt.Errorf("failed to resolve env file path: %w", err)
	}
	if !isPathWithinDirectory(absPath, pwd) {
		return "", fmt.Errorf("env file path '%s' is outside the project directory", envFile)
	}
	fileInfo, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat env file: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return "", fmt.Errorf("env file path '%s' is not a regular file", envFile)
	}
	if err := godotenv.Load(absPath); err != nil {
		return "", fmt.Errorf("failed to load env file %s: %w", absPath, err)
	}
	return absPath, nil
}

// isPathWithinDirectory checks if a given path is within the specified directory
func isPathWithinDirectory(path, dir string) bool {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return false
	}
	if !strings.HasSuffix(absDir, string(filepath.Separator)) {
		absDir += string(filepath.Separator)
	}
	return strings.HasPrefix(absPath, absDir) || absPath == strings.TrimSuffix(absDir, string(filepath.Separator))
}

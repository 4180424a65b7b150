package helpers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"gopkg.in/yaml.v3"
)

const maxPayloadSize = 1 << 20

// ReadPayload returns the JSON object given inline (data) or in a file
// (path, "-" for stdin). YAML input is converted to JSON.
func ReadPayload(data, path string, stdin io.Reader) ([]byte, error) {
	switch {
	case data != "" && path != "":
		return nil, NewCliError("INVALID_INPUT", "use either --data or --file, not both")
	case data != "":
		return toJSON([]byte(data), "")
	case path == "-":
		raw, err := io.ReadAll(io.LimitReader(stdin, maxPayloadSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return toJSON(raw, "")
	case path != "":
		raw, err := readFile(path)
		if err != nil {
			return nil, err
		}
		return toJSON(raw, strings.ToLower(filepath.Ext(path)))
	default:
		return nil, NewCliError("MISSING_INPUT", "record data is required", "pass --data '{...}' or --file record.yaml")
	}
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() > maxPayloadSize {
		return nil, fmt.Errorf("%s is too large", path)
	}
	return os.ReadFile(path)
}

func toJSON(raw []byte, ext string) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, NewCliError("INVALID_INPUT", "record data is empty")
	}
	isJSON := ext == ".json"
	if ext == "" {
		isJSON = mimetype.Detect(raw).Is("application/json")
	}
	if isJSON {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, NewCliError("INVALID_INPUT", "record data must be a JSON object", err.Error())
		}
		return raw, nil
	}
	var obj map[string]any
	if err := yaml.Unmarshal(raw, &obj); err != nil || obj == nil {
		detail := "expected a mapping"
		if err != nil {
			detail = err.Error()
		}
		return nil, NewCliError("INVALID_INPUT", "record data must be a JSON or YAML object", detail)
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML payload: %w", err)
	}
	return out, nil
}

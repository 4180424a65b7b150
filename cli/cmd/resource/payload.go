package resource

import (
	"bytes"
	"encoding/json"
	"fmt"

	"dario.cat/mergo"
	"github.com/spf13/cobra"

	"github.com/sistemabuses/busadmin/cli/helpers"
)

func addPayloadFlags(c *cobra.Command) {
	c.Flags().StringP("data", "d", "", "Registro en JSON o YAML")
	c.Flags().StringP("file", "f", "", "Archivo JSON o YAML con el registro (- para stdin)")
}

// payloadFromFlags returns nil when neither --data nor --file was given.
func payloadFromFlags(c *cobra.Command) ([]byte, error) {
	data, err := c.Flags().GetString("data")
	if err != nil {
		return nil, err
	}
	file, err := c.Flags().GetString("file")
	if err != nil {
		return nil, err
	}
	if data == "" && file == "" {
		return nil, nil
	}
	return helpers.ReadPayload(data, file, c.InOrStdin())
}

// applyPatch overlays the JSON object patch on base. Keys in patch win;
// keys it leaves out keep the base value. Unknown keys are rejected.
func applyPatch[R any](base R, patch []byte) (R, error) {
	var zero R
	current, err := toMap(base)
	if err != nil {
		return zero, err
	}
	var changes map[string]any
	if err := json.Unmarshal(patch, &changes); err != nil {
		return zero, helpers.NewCliError("INVALID_INPUT", "los datos deben ser un objeto JSON", err.Error())
	}
	if err := mergo.Merge(&current, changes, mergo.WithOverride); err != nil {
		return zero, fmt.Errorf("failed to merge record data: %w", err)
	}
	raw, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("failed to encode record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var out R
	if err := dec.Decode(&out); err != nil {
		return zero, helpers.NewCliError("INVALID_INPUT", "los datos no corresponden al registro", err.Error())
	}
	return out, nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return out, nil
}

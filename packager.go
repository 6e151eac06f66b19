package iso8583

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// fieldDefinitionConfig is the JSON-serializable form of a
// FieldDefinition, accepting either the numeric FieldFormat/FieldLenMode
// or their short mnemonic strings ("N", "ANS", "LLVAR", ...). Adapted
// from the teacher's FieldConfig.UnmarshalJSON (types.go), which
// accepted the same float64-or-string duality for its Type field.
type fieldDefinitionConfig struct {
	Format  json.RawMessage `json:"format"`
	MaxLen  int             `json:"max_len"`
	LenMode json.RawMessage `json:"len_mode,omitempty"`
}

func (c *fieldDefinitionConfig) toDefinition() (FieldDefinition, error) {
	format, err := parseFieldFormatJSON(c.Format)
	if err != nil {
		return FieldDefinition{}, err
	}
	if len(c.LenMode) == 0 {
		return NewInferredFieldDefinition(format, c.MaxLen)
	}
	lenMode, err := parseFieldLenModeJSON(c.LenMode)
	if err != nil {
		return FieldDefinition{}, err
	}
	return NewFieldDefinition(format, c.MaxLen, lenMode)
}

func parseFieldFormatJSON(raw json.RawMessage) (FieldFormat, error) {
	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return FieldFormat(asInt), nil
	}
	var asStr string
	if err := json.Unmarshal(raw, &asStr); err != nil {
		return 0, newErr(KindBadRegistry, 0, errBadFieldFormatJSON)
	}
	switch strings.ToUpper(asStr) {
	case "A":
		return FormatA, nil
	case "N":
		return FormatN, nil
	case "S":
		return FormatS, nil
	case "AN":
		return FormatAN, nil
	case "AS":
		return FormatAS, nil
	case "NS":
		return FormatNS, nil
	case "ANS":
		return FormatANS, nil
	case "B":
		return FormatB, nil
	case "XN":
		return FormatXN, nil
	case "Z":
		return FormatZ, nil
	default:
		return 0, newErr(KindBadRegistry, 0, errBadFieldFormatJSON)
	}
}

func parseFieldLenModeJSON(raw json.RawMessage) (FieldLenMode, error) {
	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return FieldLenMode(asInt), nil
	}
	var asStr string
	if err := json.Unmarshal(raw, &asStr); err != nil {
		return 0, newErr(KindBadRegistry, 0, errBadLenModeJSON)
	}
	switch strings.ToUpper(asStr) {
	case "FIXED":
		return LenFixed, nil
	case "LVAR":
		return LenLVAR, nil
	case "LLVAR":
		return LenLLVAR, nil
	case "LLLVAR":
		return LenLLLVAR, nil
	case "LLLLVAR":
		return LenLLLLVAR, nil
	default:
		return 0, newErr(KindBadRegistry, 0, errBadLenModeJSON)
	}
}

// registryConfig is the top-level JSON document LoadRegistryFromFile and
// LoadRegistryFromBytes parse: a field number -> definition map.
type registryConfig struct {
	Fields map[string]fieldDefinitionConfig `json:"fields"`
}

// LoadRegistryFromFile reads a JSON field-registry document from path.
func LoadRegistryFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file %s: %w", path, err)
	}
	return LoadRegistryFromBytes(data)
}

// LoadRegistryFromBytes parses a JSON field-registry document.
func LoadRegistryFromBytes(data []byte) (*Registry, error) {
	var cfg registryConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse registry config: %w", err)
	}

	fields := make(map[int]FieldDefinition, len(cfg.Fields))
	for key, fc := range cfg.Fields {
		var num int
		if _, err := fmt.Sscanf(key, "%d", &num); err != nil {
			return nil, fmt.Errorf("registry field key %q is not numeric: %w", key, err)
		}
		def, err := fc.toDefinition()
		if err != nil {
			return nil, fmt.Errorf("registry field %d: %w", num, err)
		}
		fields[num] = def
	}
	return NewRegistry(fields)
}

// LogValue implements slog.LogValuer, summarizing the registry rather
// than dumping every field definition.
func (r *Registry) LogValue() slog.Value {
	if r == nil {
		return slog.StringValue("nil")
	}
	return slog.GroupValue(
		slog.Int("field_count", len(r.fields)),
		slog.Bool("has_secondary_bitmap_fields", r.HasSecondaryBitmapFields()),
	)
}

var (
	errBadFieldFormatJSON = errSentinel("unrecognized field format in registry JSON")
	errBadLenModeJSON     = errSentinel("unrecognized length mode in registry JSON")
)

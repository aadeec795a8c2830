package cv

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported cv format")

var (
	skillsType = reflect.TypeOf(Skills{})
	timeType   = reflect.TypeOf(time.Time{})
)

// Load reads a CV document from a .json, .yaml or .yml file.
func Load(path string) (*ParsedCV, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cv file: %w", err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	parsed, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return parsed, nil
}

// Parse decodes raw bytes in the given format ("json", "yaml" or "yml").
func Parse(data []byte, format string) (*ParsedCV, error) {
	var raw map[string]any

	switch format {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return Decode(raw)
}

// Decode maps a generic document onto ParsedCV. Field names follow the json
// tags and match case-insensitively; scalar types are coerced where sensible.
func Decode(raw map[string]any) (*ParsedCV, error) {
	var parsed ParsedCV
	if raw == nil {
		return &parsed, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(timeToStringHook, skillsHook),
		Result:           &parsed,
	})
	if err != nil {
		return nil, fmt.Errorf("creating cv decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding cv: %w", err)
	}

	return &parsed, nil
}

func skillsHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != skillsType {
		return data, nil
	}
	return skillsFrom(data)
}

// timeToStringHook keeps YAML timestamps as the date strings the CV model uses.
func timeToStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from != timeType || to.Kind() != reflect.String {
		return data, nil
	}
	return data.(time.Time).Format("2006-01-02"), nil
}

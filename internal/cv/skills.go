package cv

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
)

// SkillsKind tells which shape a Skills value was supplied in.
type SkillsKind int

const (
	SkillsNone SkillsKind = iota
	SkillsFlat
	SkillsCategorized
)

// GeneralCategory holds flat skill lists after normalization.
const GeneralCategory = "general"

// Skills is either a flat list or a map of category to list. Read it through
// Normalize; nothing else should look at the shape.
type Skills struct {
	kind        SkillsKind
	flat        []string
	categorized map[string][]string
}

// NormalizedSkills is the only view of skills used by the engine.
type NormalizedSkills struct {
	All         []string
	Categories  map[string][]string
	Categorized bool
}

func FlatSkills(items ...string) Skills {
	if len(items) == 0 {
		return Skills{}
	}
	return Skills{kind: SkillsFlat, flat: append([]string(nil), items...)}
}

func CategorizedSkills(categories map[string][]string) Skills {
	if len(categories) == 0 {
		return Skills{}
	}
	copied := make(map[string][]string, len(categories))
	for k, v := range categories {
		copied[k] = append([]string(nil), v...)
	}
	return Skills{kind: SkillsCategorized, categorized: copied}
}

func (s Skills) Kind() SkillsKind {
	return s.kind
}

// Normalize flattens skills into a deduplicated list while keeping category
// membership. Categories are visited in sorted order so the result is stable.
func (s Skills) Normalize() NormalizedSkills {
	out := NormalizedSkills{Categories: map[string][]string{}}
	seen := map[string]struct{}{}

	add := func(category, skill string) {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			return
		}
		out.Categories[category] = append(out.Categories[category], skill)
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out.All = append(out.All, skill)
	}

	switch s.kind {
	case SkillsFlat:
		for _, skill := range s.flat {
			add(GeneralCategory, skill)
		}
	case SkillsCategorized:
		names := make([]string, 0, len(s.categorized))
		for name := range s.categorized {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			category := strings.ToLower(strings.TrimSpace(name))
			if category == "" {
				category = GeneralCategory
			}
			for _, skill := range s.categorized[name] {
				add(category, skill)
			}
		}
	}

	out.Categorized = s.kind == SkillsCategorized && len(out.Categories) > 0

	return out
}

func (s Skills) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case SkillsFlat:
		return json.Marshal(s.flat)
	case SkillsCategorized:
		return json.Marshal(s.categorized)
	default:
		return []byte("null"), nil
	}
}

func (s *Skills) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := skillsFrom(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// JSONSchema describes the two accepted skill shapes.
func (Skills) JSONSchema() *jsonschema.Schema {
	list := &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}}
	return &jsonschema.Schema{
		Description: "flat list of skills or a map of category to skills",
		OneOf: []*jsonschema.Schema{
			list,
			{Type: "object", AdditionalProperties: list},
		},
	}
}

func skillsFrom(raw any) (Skills, error) {
	switch v := raw.(type) {
	case nil:
		return Skills{}, nil
	case Skills:
		return v, nil
	case string:
		return FlatSkills(splitList(v)...), nil
	case []string:
		return FlatSkills(v...), nil
	case []any:
		items, err := stringList(v)
		if err != nil {
			return Skills{}, err
		}
		return FlatSkills(items...), nil
	case map[string][]string:
		return CategorizedSkills(v), nil
	case map[string]any:
		categories := make(map[string][]string, len(v))
		for name, value := range v {
			items, err := categoryItems(value)
			if err != nil {
				return Skills{}, fmt.Errorf("skills category %q: %w", name, err)
			}
			categories[name] = items
		}
		return CategorizedSkills(categories), nil
	default:
		return Skills{}, fmt.Errorf("unsupported skills value of type %T", raw)
	}
}

func categoryItems(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return splitList(v), nil
	case []string:
		return v, nil
	case []any:
		return stringList(v)
	default:
		return nil, fmt.Errorf("unsupported value of type %T", value)
	}
}

func stringList(values []any) ([]string, error) {
	items := make([]string, 0, len(values))
	for _, value := range values {
		switch v := value.(type) {
		case string:
			items = append(items, v)
		case map[string]any:
			// {name: ...} objects are common in exported profiles.
			if name, ok := v["name"].(string); ok {
				items = append(items, name)
			}
		case nil:
		default:
			items = append(items, fmt.Sprint(v))
		}
	}
	return items, nil
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == '\n' })
}

func normalizeWord(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

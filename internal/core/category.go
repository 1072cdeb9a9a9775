package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is one of the fixed keys below or any free-text fallback.
type Category string

const (
	Food          Category = "food"
	Transport     Category = "transport"
	Housing       Category = "housing"
	Health        Category = "health"
	Education     Category = "education"
	Entertainment Category = "entertainment"
	Other         Category = "other"
)

var defaultLabels = map[Category]string{
	Food:          "Alimentação",
	Transport:     "Transporte",
	Housing:       "Moradia",
	Health:        "Saúde",
	Education:     "Educação",
	Entertainment: "Entretenimento",
	Other:         "Outros",
}

// Categories returns the closed set in display order.
func Categories() []Category {
	return []Category{Food, Transport, Housing, Health, Education, Entertainment, Other}
}

// NormalizeCategory trims and lowercases known keys; empty becomes Other.
// Unknown free text is kept as typed.
func NormalizeCategory(s string) Category {
	s = strings.TrimSpace(s)
	if s == "" {
		return Other
	}
	if c := Category(strings.ToLower(s)); c.Known() {
		return c
	}
	return Category(s)
}

func (c Category) Known() bool {
	_, ok := defaultLabels[c]
	return ok
}

// Labels maps category keys to display names.
type Labels map[Category]string

// DefaultLabels returns a fresh copy of the built-in display names.
func DefaultLabels() Labels {
	out := make(Labels, len(defaultLabels))
	for k, v := range defaultLabels {
		out[k] = v
	}
	return out
}

// Label returns the display name, falling back to the raw key.
func (l Labels) Label(c Category) string {
	if v, ok := l[c]; ok && v != "" {
		return v
	}
	return string(c)
}

// LoadCategoryLabels reads a YAML mapping of category key to label and
// overlays it on the defaults. An empty path returns the defaults.
//
//	food: Comida
//	pets: Animais
func LoadCategoryLabels(path string) (Labels, error) {
	labels := DefaultLabels()
	if path == "" {
		return labels, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}
	for k, v := range overrides {
		labels[NormalizeCategory(k)] = strings.TrimSpace(v)
	}
	return labels, nil
}

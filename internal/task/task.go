package task

import (
	"fmt"
	"time"
)

// OptionType enumerates the value kinds a task option can take.
type OptionType string

const (
	OptionNumber  OptionType = "number"
	OptionString  OptionType = "string"
	OptionBoolean OptionType = "boolean"
	OptionChoice  OptionType = "choice"
)

// OptionSpec describes one configurable option of a task.
type OptionSpec struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	Type    OptionType `json:"type"`
	Default any        `json:"default"`
	Min     float64    `json:"min,omitempty"` // number only
	Max     float64    `json:"max,omitempty"` // number only
	Choices []string   `json:"choices,omitempty"`
}

// Options holds resolved option values keyed by OptionSpec.Key.
type Options map[string]any

// Invocation is the concrete command a task resolves to.
type Invocation struct {
	Binary string
	Args   []string
}

// Definition describes one unit of work the engine can execute.
// Definitions are immutable once registered.
type Definition struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Category string        `json:"category"`
	Estimate time.Duration `json:"estimate"`
	Options  []OptionSpec  `json:"options,omitempty"`

	// Build resolves options into the command to run.
	Build func(opts Options) Invocation `json:"-"`
}

// OptionSpec returns the spec for key, if the definition declares it.
func (d Definition) OptionSpec(key string) (OptionSpec, bool) {
	for _, spec := range d.Options {
		if spec.Key == key {
			return spec, true
		}
	}
	return OptionSpec{}, false
}

// DefaultOptions returns a fresh Options map populated with every
// declared option's default value.
func (d Definition) DefaultOptions() Options {
	opts := make(Options, len(d.Options))
	for _, spec := range d.Options {
		opts[spec.Key] = spec.Default
	}
	return opts
}

// ValidateOption checks value against the declared spec for key.
func (d Definition) ValidateOption(key string, value any) error {
	spec, ok := d.OptionSpec(key)
	if !ok {
		return fmt.Errorf("task %s has no option %q", d.ID, key)
	}
	switch spec.Type {
	case OptionNumber:
		n, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("option %s: expected number, got %T", key, value)
		}
		if spec.Min != 0 || spec.Max != 0 {
			if n < spec.Min || n > spec.Max {
				return fmt.Errorf("option %s: %v out of range [%v, %v]", key, n, spec.Min, spec.Max)
			}
		}
	case OptionString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("option %s: expected string, got %T", key, value)
		}
	case OptionBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("option %s: expected boolean, got %T", key, value)
		}
	case OptionChoice:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("option %s: expected choice string, got %T", key, value)
		}
		for _, c := range spec.Choices {
			if c == s {
				return nil
			}
		}
		return fmt.Errorf("option %s: %q is not one of %v", key, s, spec.Choices)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

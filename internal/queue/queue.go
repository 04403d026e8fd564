// Package queue holds the ordered, user-editable list of task entries
// that a run is built from. Order values are always a dense 0..N-1
// permutation; every mutation that can disturb that re-normalizes.
package queue

import (
	"fmt"
	"sort"

	"github.com/SonnyTaylor/techbench/internal/task"
)

// Entry is one slot in the queue.
type Entry struct {
	TaskID  string       `json:"taskId"`
	Enabled bool         `json:"enabled"`
	Order   int          `json:"order"`
	Options task.Options `json:"options,omitempty"`
}

// Materialize builds a queue from a preset bundle. Every task id in the
// bundle must resolve against the catalog; an unknown id is an error, not
// an entry to skip.
func Materialize(bundle task.Bundle) ([]Entry, error) {
	entries := make([]Entry, 0, len(bundle.Tasks))
	for i, bt := range bundle.Tasks {
		def, err := task.Get(bt.TaskID)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", bundle.ID, err)
		}
		opts := def.DefaultOptions()
		for k, v := range bt.Options {
			if err := def.ValidateOption(k, v); err != nil {
				return nil, fmt.Errorf("bundle %s: %w", bundle.ID, err)
			}
			opts[k] = v
		}
		entries = append(entries, Entry{
			TaskID:  bt.TaskID,
			Enabled: bt.Enabled,
			Order:   i,
			Options: opts,
		})
	}
	return entries, nil
}

// Normalize sorts entries by Order and rewrites Order to the dense
// permutation 0..N-1. Ties keep their relative position.
func Normalize(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Order < entries[j].Order
	})
	for i := range entries {
		entries[i].Order = i
	}
}

// Move shifts the entry at index by delta positions (negative is up)
// and re-normalizes. Out-of-range moves clamp to the ends.
func Move(entries []Entry, index, delta int) {
	if index < 0 || index >= len(entries) {
		return
	}
	target := index + delta
	if target < 0 {
		target = 0
	}
	if target >= len(entries) {
		target = len(entries) - 1
	}
	for i := index; i > target; i-- {
		entries[i], entries[i-1] = entries[i-1], entries[i]
	}
	for i := index; i < target; i++ {
		entries[i], entries[i+1] = entries[i+1], entries[i]
	}
	for i := range entries {
		entries[i].Order = i
	}
}

// Toggle flips the enabled flag of the entry at index.
func Toggle(entries []Entry, index int) {
	if index < 0 || index >= len(entries) {
		return
	}
	entries[index].Enabled = !entries[index].Enabled
}

// SetOption validates and sets one option value on the entry at index.
func SetOption(entries []Entry, index int, key string, value any) error {
	if index < 0 || index >= len(entries) {
		return fmt.Errorf("entry index %d out of range", index)
	}
	def, err := task.Get(entries[index].TaskID)
	if err != nil {
		return err
	}
	if err := def.ValidateOption(key, value); err != nil {
		return err
	}
	if entries[index].Options == nil {
		entries[index].Options = task.Options{}
	}
	entries[index].Options[key] = value
	return nil
}

// EnabledCount returns how many entries are enabled.
func EnabledCount(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if e.Enabled {
			n++
		}
	}
	return n
}

// Enabled returns the enabled entries in order.
func Enabled(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Enabled {
			out = append(out, e)
		}
	}
	return out
}

// Clone deep-copies a queue so the caller can hand it off by value.
func Clone(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		opts := make(task.Options, len(e.Options))
		for k, v := range e.Options {
			opts[k] = v
		}
		e.Options = opts
		out[i] = e
	}
	return out
}

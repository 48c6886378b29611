package script

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mailblocks/internal/blockerr"
)

// Script is a named sequence of edits applied to a fresh document.
type Script struct {
	// Name identifies the script; golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what the script builds or checks.
	Description string `yaml:"description"`

	// Root holds the root block's payload. Optional.
	Root *Payload `yaml:"root,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`
}

// Payload is a block's style and props as decoded from YAML.
type Payload struct {
	Style map[string]any `yaml:"style,omitempty"`
	Props map[string]any `yaml:"props,omitempty"`
}

// Step is one edit.
type Step struct {
	Op     string         `yaml:"op"`
	Type   string         `yaml:"type,omitempty"`
	ID     string         `yaml:"id,omitempty"`
	Parent string         `yaml:"parent,omitempty"`
	Index  *int           `yaml:"index,omitempty"`
	From   *int           `yaml:"from,omitempty"`
	To     *int           `yaml:"to,omitempty"`
	Style  map[string]any `yaml:"style,omitempty"`
	Props  map[string]any `yaml:"props,omitempty"`

	// As binds the resulting block id to a name usable as $name.
	As string `yaml:"as,omitempty"`

	// ExpectError is the error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Operation names.
const (
	OpCreate      = "create"
	OpRemove      = "remove"
	OpReorder     = "reorder"
	OpUpdateProps = "update_props"
	OpUpdateStyle = "update_style"
	OpMove        = "move"
	OpDuplicate   = "duplicate"
	OpDrop        = "drop"
	OpUndo        = "undo"
	OpRedo        = "redo"
)

// Load reads and parses a script file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a script from YAML and validates it.
func Parse(data []byte) (*Script, error) {
	var s Script
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "prop:" vs "props:"
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScript(&s); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &s, nil
}

func validateScript(s *Script) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks the fields each operation needs.
func validateStep(i int, st *Step) error {
	require := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("steps[%d]: %s is required for %s", i, field, st.Op)
		}
		return nil
	}

	var err error
	switch st.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	case OpCreate:
		if err = require("type", st.Type); err == nil {
			err = require("parent", st.Parent)
		}
	case OpRemove, OpDuplicate:
		err = require("id", st.ID)
	case OpReorder:
		err = require("parent", st.Parent)
		if err == nil && (st.From == nil || st.To == nil) {
			err = fmt.Errorf("steps[%d]: from and to are required for reorder", i)
		}
	case OpUpdateProps, OpUpdateStyle:
		err = require("id", st.ID)
	case OpMove:
		if err = require("id", st.ID); err == nil {
			err = require("parent", st.Parent)
		}
	case OpDrop:
		err = require("parent", st.Parent)
		if err == nil && st.Type == "" && st.ID == "" {
			err = fmt.Errorf("steps[%d]: drop needs type or id", i)
		}
	case OpUndo, OpRedo:
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, st.Op)
	}
	if err != nil {
		return err
	}

	if st.ExpectError != "" && !blockerr.ValidCode(st.ExpectError) {
		return fmt.Errorf("steps[%d]: unknown error code %q", i, st.ExpectError)
	}
	return nil
}

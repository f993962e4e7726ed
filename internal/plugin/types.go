// Package plugin discovers and runs external executables that act on announced gestures.
//
// A plugin lives in its own directory with a plugin.json manifest. The
// executor writes one JSON Request to the plugin's stdin and reads one JSON
// Response from its stdout.
package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ActionSpeak asks a plugin to say Text aloud.
const ActionSpeak = "speak"

// ManifestFile is the manifest name inside a plugin directory.
const ManifestFile = "plugin.json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Supports reports whether the plugin declares action.
func (m Manifest) Supports(action string) bool {
	return slices.Contains(m.Actions, action)
}

// Validate checks that the manifest names a plugin, at least one action and
// an executable inside the plugin directory.
func (m Manifest) Validate() error {
	var errs []error
	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if len(m.Actions) == 0 {
		errs = append(errs, errors.New("at least one action is required"))
	}
	switch exe := filepath.Clean(m.Executable); {
	case m.Executable == "":
		errs = append(errs, errors.New("executable is required"))
	case filepath.IsAbs(exe) || exe == ".." || strings.HasPrefix(exe, ".."+string(filepath.Separator)):
		errs = append(errs, fmt.Errorf("executable %q must stay inside the plugin directory", m.Executable))
	}
	return errors.Join(errs...)
}

// Request is what a plugin reads from stdin.
type Request struct {
	Action     string          `json:"action"`
	Label      string          `json:"label"`
	Text       string          `json:"text,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Session    string          `json:"session,omitempty"`
	Config     json.RawMessage `json:"config,omitempty"`
	Params     json.RawMessage `json:"params,omitempty"`
}

// Response is what a plugin writes to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Err returns the plugin's own failure as an error, or nil on success.
func (r *Response) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == "" {
		return errors.New("plugin reported failure")
	}
	return errors.New(r.Error)
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

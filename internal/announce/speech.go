package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ayusman/silexa/internal/plugin"
)

// Speech says announcements aloud through a plugin that supports the speak action.
type Speech struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
	config   json.RawMessage
}

// NewSpeech picks the named plugin from m, or the first one supporting speak when name is empty.
func NewSpeech(m *plugin.Manager, name string, timeout time.Duration) (*Speech, error) {
	var (
		p   *plugin.Plugin
		err error
	)
	if name == "" {
		p, err = m.Find(plugin.ActionSpeak)
	} else {
		p, err = m.Get(name)
	}
	if err != nil {
		return nil, err
	}
	if !p.Manifest.Supports(plugin.ActionSpeak) {
		return nil, fmt.Errorf("plugin %s does not support %s", p.Manifest.Name, plugin.ActionSpeak)
	}
	return &Speech{plugin: p, executor: plugin.NewExecutor(timeout)}, nil
}

// WithConfig sets the plugin config passed on every request.
func (s *Speech) WithConfig(cfg json.RawMessage) *Speech {
	s.config = cfg
	return s
}

// Plugin returns the speech plugin in use.
func (s *Speech) Plugin() *plugin.Plugin {
	return s.plugin
}

// Announce runs the plugin with the announcement's label as text.
func (s *Speech) Announce(ctx context.Context, e Event) error {
	resp, err := s.executor.Execute(ctx, s.plugin, &plugin.Request{
		Action:     plugin.ActionSpeak,
		Label:      e.Label,
		Text:       Phrase(e.Label),
		Confidence: e.Confidence,
		Session:    e.Session,
		Config:     s.config,
	})
	if err != nil {
		return fmt.Errorf("speech plugin %s: %w", s.plugin.Manifest.Name, err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("speech plugin %s: %w", s.plugin.Manifest.Name, err)
	}
	return nil
}

// Phrase turns a label into the text to speak.
func Phrase(label string) string {
	return strings.TrimSpace(strings.ReplaceAll(label, "_", " "))
}

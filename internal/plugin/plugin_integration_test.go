package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPlugin_Speak_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pluginDir := findPluginDir("speak")
	if pluginDir == "" {
		t.Skip("speak plugin not built")
	}

	mgr := NewManager(filepath.Dir(pluginDir))
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	plug, err := mgr.Find(ActionSpeak)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}

	// An unknown action exercises the protocol without producing audio.
	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), plug, &Request{Action: "dance"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Success {
		t.Error("expected failure for unknown action")
	}
}

// findPluginDir looks for a built plugin under the repository's plugins directory.
func findPluginDir(name string) string {
	for _, base := range []string{"../../plugins", "../../../plugins"} {
		dir := filepath.Join(base, name)
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return dir
			}
			return abs
		}
	}
	return ""
}

package tray

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/silexa/internal/announce"
)

func TestTray_Toggle(t *testing.T) {
	tr := New()
	assert.True(t, tr.IsEnabled())

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()
	assert.Equal(t, []bool{false, true}, got)
	assert.True(t, tr.IsEnabled())
}

func TestTray_Callbacks(t *testing.T) {
	tr := New()
	var retrained, opened int
	tr.OnRetrain(func() { retrained++ })
	tr.OnOpen(func() { opened++ })

	tr.call(func(t *Tray) func() { return t.onRetrain })
	tr.call(func(t *Tray) func() { return t.onOpen })
	tr.call(func(t *Tray) func() { return t.onQuit })

	assert.Equal(t, 1, retrained)
	assert.Equal(t, 1, opened)
}

func TestTray_Announce(t *testing.T) {
	tr := New()
	assert.Equal(t, "Last: none", tr.LastGesture())

	require.NoError(t, tr.Announce(context.Background(), announce.Event{Label: "thumbs_up", Confidence: 0.874, Probabilistic: true}))
	assert.Equal(t, "Last: thumbs up (87%)", tr.LastGesture())

	require.NoError(t, tr.Announce(context.Background(), announce.Event{Label: "fist", Confidence: 1}))
	assert.Equal(t, "Last: fist", tr.LastGesture())
}

func TestTray_StatusBeforeRun(t *testing.T) {
	tr := New()
	tr.SetStatus("Model: forest, 3 labels")
	tr.SetTraining(true)
	assert.Equal(t, "Model: forest, 3 labels", tr.Status())
}

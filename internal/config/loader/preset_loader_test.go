package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const presetYAML = `
presets:
  swing:
    ma_short: 3
    ma_medium: 10
    tolerance_days: 3
  position:
    ma_short: 10
    ma_medium: 30
`

func writePresets(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPresetLoaderInitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	writePresets(t, path, presetYAML)

	l, err := NewPresetLoader(path)
	require.NoError(t, err)
	defer l.Close()

	snap := l.Snapshot()
	assert.Len(t, snap.Presets, 2)

	p, ok := l.Get("swing")
	require.True(t, ok)
	assert.Equal(t, 3, p.MAShort)
	assert.Equal(t, 3, p.ToleranceDays)

	_, ok = l.Get("nope")
	assert.False(t, ok)
}

func TestPresetLoaderMissingFile(t *testing.T) {
	_, err := NewPresetLoader(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestPresetLoaderMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	writePresets(t, path, "presets: [not, a, map]")
	_, err := NewPresetLoader(path)
	assert.Error(t, err)
}

func TestPresetLoaderHotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	writePresets(t, path, presetYAML)

	l, err := NewPresetLoader(path)
	require.NoError(t, err)
	defer l.Close()

	writePresets(t, path, "presets:\n  swing:\n    ma_short: 7\n")
	assert.Eventually(t, func() bool {
		p, ok := l.Get("swing")
		return ok && p.MAShort == 7
	}, 3*time.Second, 20*time.Millisecond)
}

func TestPresetLoaderSubscribeReceivesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	writePresets(t, path, presetYAML)

	l, err := NewPresetLoader(path)
	require.NoError(t, err)
	defer l.Close()

	got := make(chan Snapshot, 1)
	l.Subscribe(func(s Snapshot) {
		select {
		case got <- s:
		default:
		}
	})
	select {
	case s := <-got:
		assert.Len(t, s.Presets, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received initial snapshot")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Monitor.Mouse = false
	cfg.Monitor.PauseOnLock = true
	cfg.Logging.Level = "debug"
	cfg.Storage.FlushIntervalSec = 30
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.False(t, loaded.Monitor.Mouse)
	assert.True(t, loaded.Monitor.PauseOnLock)
	assert.Equal(t, "debug", loaded.Logging.Level)
	assert.Equal(t, 30, loaded.Storage.FlushIntervalSec)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[monitor]\nkeyboard = false\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Monitor.Keyboard)
	// Untouched sections keep their defaults.
	assert.True(t, cfg.Monitor.Mouse)
	assert.Equal(t, Default().IPC.Socket, cfg.IPC.Socket)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "loud"
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = ""
	cfg.Storage.FlushIntervalSec = 0

	err := cfg.Validate()
	require.Error(t, err)

	verrs, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	fields := make([]string, len(verrs))
	for i, ve := range verrs {
		fields[i] = ve.Field
	}
	assert.Contains(t, fields, "logging.level")
	assert.Contains(t, fields, "logging.file_path")
	assert.Contains(t, fields, "storage.flush_interval_sec")
}

func TestValidateDeviceGlobs(t *testing.T) {
	cfg := Default()
	cfg.Monitor.DeviceGlobs = []string{"/dev/input/event*", "event3"}
	require.NoError(t, cfg.Validate())

	cfg.Monitor.DeviceGlobs = []string{"event[3"}
	err := cfg.Validate()
	require.Error(t, err)

	verrs, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	assert.Equal(t, "monitor.device_globs", verrs[0].Field)
}

func TestLoaderHotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	require.NoError(t, cfg.Save(path))

	l := NewLoader(path)
	defer l.Close()

	_, err := l.Load()
	require.NoError(t, err)
	require.True(t, l.Config().Monitor.Keyboard)

	changed := make(chan *Config, 1)
	l.OnChange(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})
	require.NoError(t, l.Watch())

	cfg.Monitor.Keyboard = false
	require.NoError(t, cfg.Save(path))

	select {
	case c := <-changed:
		assert.False(t, c.Monitor.Keyboard)
		assert.False(t, l.Config().Monitor.Keyboard)
	case <-time.After(5 * time.Second):
		t.Fatal("hot reload never fired")
	}
}

func TestLoaderReloadFailureKeepsOldConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, Default().Save(path))

	l := NewLoader(path)
	defer l.Close()
	_, err := l.Load()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("version = :::"), 0o644))
	l.reload()

	assert.Equal(t, Version, l.Config().Version)
}

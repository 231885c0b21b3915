package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, validYAML)
	w, err := NewWatcher(path, time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	updates := make(chan AppConfig, 1)
	require.NoError(t, w.Start(func(cfg AppConfig) {
		select {
		case updates <- cfg:
		default:
		}
	}))

	time.Sleep(50 * time.Millisecond)
	changed := validYAML + "\n# touched\n"
	require.NoError(t, os.WriteFile(path, []byte(changed), 0o644))

	select {
	case cfg := <-updates:
		assert.Equal(t, "test", cfg.Env)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed after config write")
	}
}

func TestWatcherIgnoresBrokenWrite(t *testing.T) {
	path := writeConfig(t, validYAML)
	w, err := NewWatcher(path, time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	updates := make(chan AppConfig, 1)
	require.NoError(t, w.Start(func(cfg AppConfig) {
		select {
		case updates <- cfg:
		default:
		}
	}))

	time.Sleep(50 * time.Millisecond)
	// 校验不过的写入不触发回调，沿用旧配置
	require.NoError(t, os.WriteFile(path, []byte("env: \n"), 0o644))

	select {
	case <-updates:
		t.Fatal("invalid config must not trigger reload")
	case <-time.After(300 * time.Millisecond):
	}
}

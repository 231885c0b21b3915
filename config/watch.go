package config

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听配置文件写入并回调最新配置。带冷却时间，
// 避免编辑器多次写盘触发连续重载。
type Watcher struct {
	Path     string
	Cooldown time.Duration

	watcher    *fsnotify.Watcher
	lastReload time.Time
	stopChan   chan struct{}
	doneChan   chan struct{}
}

// NewWatcher 创建监听器，默认冷却 2 秒。
func NewWatcher(path string, cooldown time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if cooldown <= 0 {
		cooldown = 2 * time.Second
	}
	return &Watcher{
		Path:     path,
		Cooldown: cooldown,
		watcher:  fsw,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

// Start 开始监听；onUpdate 在配置通过校验后收到新值。
// 解析或校验失败的写入被忽略，继续沿用旧配置。
func (w *Watcher) Start(onUpdate func(AppConfig)) error {
	if err := w.watcher.Add(w.Path); err != nil {
		return fmt.Errorf("watch config file: %w", err)
	}
	go w.loop(onUpdate)
	return nil
}

func (w *Watcher) loop(onUpdate func(AppConfig)) {
	defer close(w.doneChan)
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				w.reload(onUpdate)
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) reload(onUpdate func(AppConfig)) {
	if time.Since(w.lastReload) < w.Cooldown {
		return
	}
	cfg, err := LoadWithEnvOverrides(w.Path)
	if err != nil {
		return
	}
	w.lastReload = time.Now()
	if onUpdate != nil {
		onUpdate(cfg)
	}
}

// Stop 停止监听并释放 watcher。
func (w *Watcher) Stop() error {
	select {
	case <-w.stopChan:
	default:
		close(w.stopChan)
	}
	select {
	case <-w.doneChan:
	case <-time.After(time.Second):
	}
	return w.watcher.Close()
}

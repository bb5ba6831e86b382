package loader

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"kabuscope/internal/logger"
)

// Preset 是一组命名的分析参数，覆盖主配置里的 analysis 段。
type Preset struct {
	MAShort       int     `yaml:"ma_short"`
	MAMedium      int     `yaml:"ma_medium"`
	MALong        int     `yaml:"ma_long"`
	RSIWindow     int     `yaml:"rsi_window"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
	MACDFast      int     `yaml:"macd_fast"`
	MACDSlow      int     `yaml:"macd_slow"`
	MACDSignal    int     `yaml:"macd_signal"`
	ToleranceDays int     `yaml:"tolerance_days"`
}

type fileConfig struct {
	Presets map[string]Preset `yaml:"presets"`
}

// Snapshot 对外暴露的只读快照。
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Presets  map[string]Preset
}

// ChangeListener 在预设文件变更时被调用。
type ChangeListener func(Snapshot)

// PresetLoader 从 YAML 文件加载分析预设并监听热更新。
type PresetLoader struct {
	path    string
	watcher *fsnotify.Watcher

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewPresetLoader 读取预设文件并开始监听 FS 事件。
func NewPresetLoader(path string) (*PresetLoader, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("preset loader requires path")
	}
	l := &PresetLoader{path: path}
	if err := l.reload(); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("preset watcher init failed: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("preset watch failed (%s): %w", path, err)
	}
	l.watcher = watcher
	go l.watchLoop()
	return l, nil
}

func (l *PresetLoader) watchLoop() {
	for {
		select {
		case evt, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
				continue
			}
			if err := l.reload(); err != nil {
				logger.Errorf("preset reload failed (%s): %v", evt.Name, err)
				continue
			}
			l.notify()
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("preset watcher error: %v", err)
		}
	}
}

func (l *PresetLoader) reload() error {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("read preset file failed: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse preset file failed: %w", err)
	}
	l.mu.Lock()
	l.snapshot = Snapshot{
		Version:  l.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Presets:  fc.Presets,
	}
	l.mu.Unlock()
	logger.Infof("presets loaded: %d entries (%s)", len(fc.Presets), l.path)
	return nil
}

// Snapshot 返回当前预设快照（深拷贝）。
func (l *PresetLoader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneSnapshot(l.snapshot)
}

// Get 按名字取单个预设。
func (l *PresetLoader) Get(name string) (Preset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.snapshot.Presets[name]
	return p, ok
}

// Subscribe 注册监听器，并立即异步收到一次完整快照。
func (l *PresetLoader) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	snap := cloneSnapshot(l.snapshot)
	l.mu.Unlock()
	go fn(snap)
}

func (l *PresetLoader) notify() {
	l.mu.RLock()
	snap := cloneSnapshot(l.snapshot)
	listeners := append([]ChangeListener(nil), l.listeners...)
	l.mu.RUnlock()
	for _, fn := range listeners {
		go fn(snap)
	}
}

// Close 停止监听。
func (l *PresetLoader) Close() error {
	if l.watcher == nil {
		return nil
	}
	return l.watcher.Close()
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := Snapshot{Version: s.Version, LoadedAt: s.LoadedAt}
	if s.Presets != nil {
		out.Presets = make(map[string]Preset, len(s.Presets))
		for k, v := range s.Presets {
			out.Presets[k] = v
		}
	}
	return out
}

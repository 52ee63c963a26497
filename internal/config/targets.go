package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// DefaultMonthlyTarget is the order value the team aims for each month.
const DefaultMonthlyTarget float64 = 6_500_000

// Targets holds the sales targets and the representative roster.
type Targets struct {
	MonthlyTarget   float64            `yaml:"monthly_target"`
	Representatives []string           `yaml:"representatives"`
	LineOfWork      map[string]float64 `yaml:"line_of_work_targets"`
}

func DefaultTargets() Targets {
	return Targets{
		MonthlyTarget:   DefaultMonthlyTarget,
		Representatives: []string{"Shaun", "Richard", "Clare", "Candice"},
	}
}

// TargetFor returns the order target for a period spanning the given number
// of months.
func (t Targets) TargetFor(months int) float64 {
	return t.MonthlyTarget * float64(months)
}

// LineOfWorkTargetFor returns the order target of one line of work for a
// period spanning the given number of months. ok is false when the line has
// no positive target.
func (t Targets) LineOfWorkTargetFor(code string, months int) (target float64, ok bool) {
	monthly, ok := t.LineOfWork[code]
	if !ok || monthly <= 0 {
		return 0, false
	}
	return monthly * float64(months), true
}

// TargetsLoader reads the targets YAML file and watches it for changes.
// With an empty path it serves DefaultTargets and never reloads.
type TargetsLoader struct {
	path     string
	logger   *slog.Logger
	mu       sync.RWMutex
	current  Targets
	onChange []func(Targets)
}

func NewTargetsLoader(path string, logger *slog.Logger) (*TargetsLoader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &TargetsLoader{path: path, logger: logger, current: DefaultTargets()}
	if path == "" {
		return l, nil
	}
	t, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = t
	return l, nil
}

// Targets returns the latest loaded targets.
func (l *TargetsLoader) Targets() Targets {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked after every successful reload.
func (l *TargetsLoader) OnChange(fn func(Targets)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch hot-reloads the file on change until the returned stop func is
// called. The parent directory is watched so editors that replace the
// file on save are picked up.
func (l *TargetsLoader) Watch() (stop func(), err error) {
	if l.path == "" {
		return func() {}, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("targets watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(l.path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("targets watcher add %s: %w", l.path, err)
	}

	name := filepath.Clean(l.path)
	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						l.logger.Warn("Keeping previous targets", "path", l.path, "error", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.logger.Warn("Targets watcher error", "error", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the targets file.
func (l *TargetsLoader) Reload() (Targets, error) {
	if l.path == "" {
		return l.Targets(), nil
	}
	t, err := l.load()
	if err != nil {
		return Targets{}, err
	}
	l.mu.Lock()
	l.current = t
	callbacks := make([]func(Targets), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()

	l.logger.Info("Targets reloaded", "path", l.path, "representatives", len(t.Representatives), "monthly_target", t.MonthlyTarget)
	for _, fn := range callbacks {
		fn(t)
	}
	return t, nil
}

func (l *TargetsLoader) load() (Targets, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return Targets{}, fmt.Errorf("read targets %s: %w", l.path, err)
	}
	var t Targets
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Targets{}, fmt.Errorf("parse targets %s: %w", l.path, err)
	}
	if t.MonthlyTarget < 0 {
		return Targets{}, fmt.Errorf("targets %s: monthly_target cannot be negative", l.path)
	}
	if t.MonthlyTarget == 0 {
		t.MonthlyTarget = DefaultMonthlyTarget
	}
	if len(t.Representatives) == 0 {
		t.Representatives = DefaultTargets().Representatives
	}
	return t, nil
}

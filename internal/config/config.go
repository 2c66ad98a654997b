// Package config loads the server allow-list of platforms and reloads it when the file changes.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/ubuntu/ddp-insights/internal/fileutils"
)

// Provider gives access to the current configuration.
type Provider interface {
	AllowList() []string
	Allowed(platform string) bool
}

// Conf is the content of the configuration file.
type Conf struct {
	AllowList []string `json:"allowList"`
}

// Manager holds the last successfully loaded configuration.
type Manager struct {
	config     Conf
	lock       sync.RWMutex
	configPath string

	log *slog.Logger
}

type options struct {
	log *slog.Logger
}

// Options represents an optional function to override Manager default values.
type Options func(*options)

// WithLogger sets the logger of the Manager.
func WithLogger(l *slog.Logger) Options {
	return func(o *options) {
		o.log = l
	}
}

// New returns a Manager for the configuration file at path. Nothing is read until Load or Watch.
func New(path string, args ...Options) *Manager {
	opts := options{log: slog.Default()}
	for _, opt := range args {
		opt(&opts)
	}

	return &Manager{
		configPath: filepath.Clean(path),
		log:        opts.log,
	}
}

// Load reads the configuration file. The previous configuration is kept on error.
func (cm *Manager) Load() error {
	var c Conf
	if err := fileutils.ReadJSON(cm.configPath, &c); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cm.lock.Lock()
	cm.config = c
	cm.lock.Unlock()

	cm.log.Info("Configuration loaded", "allowList", c.AllowList)
	return nil
}

// Watch loads the configuration and reloads it whenever the file is written, created or renamed.
//
// changes receives a value after each successful reload. errs receives unrecoverable watcher errors.
// Both channels are closed once ctx is done or the watcher fails.
func (cm *Manager) Watch(ctx context.Context) (changes <-chan struct{}, errs <-chan error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create watcher: %v", err)
	}

	configDir := filepath.Dir(cm.configPath)
	if err := watcher.Add(configDir); err != nil {
		watcher.Close()
		return nil, nil, fmt.Errorf("failed to add directory %s to watcher: %v", configDir, err)
	}
	cm.log.Info("Watching configuration directory", "dir", configDir)

	if err := cm.Load(); err != nil {
		cm.log.Warn("Error loading initial config", "err", err)
	}

	changesCh := make(chan struct{}, 1)
	errorsCh := make(chan error, 1)

	go func() {
		defer close(changesCh)
		defer close(errorsCh)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				cm.log.Info("Configuration watcher stopped")
				return
			case event, ok := <-watcher.Events:
				if !ok {
					errorsCh <- fmt.Errorf("watcher events channel closed unexpectedly")
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if filepath.Clean(event.Name) != cm.configPath {
					continue
				}

				cm.log.Debug("Configuration file changed, reloading")
				if err := cm.Load(); err != nil {
					cm.log.Warn("Error reloading config", "err", err)
					continue
				}

				select {
				case changesCh <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					errorsCh <- fmt.Errorf("watcher errors channel closed unexpectedly")
					return
				}
				cm.log.Warn("Watcher error", "err", err)
			}
		}
	}()

	return changesCh, errorsCh, nil
}

// AllowList returns a copy of the allowed platform ids.
func (cm *Manager) AllowList() []string {
	cm.lock.RLock()
	defer cm.lock.RUnlock()
	return slices.Clone(cm.config.AllowList)
}

// Allowed reports whether platform is in the allow-list.
// Nothing is allowed before the first successful load.
func (cm *Manager) Allowed(platform string) bool {
	cm.lock.RLock()
	defer cm.lock.RUnlock()
	return slices.Contains(cm.config.AllowList, platform)
}

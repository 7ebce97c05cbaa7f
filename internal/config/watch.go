package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/dynadecal/internal/logger"
)

// Watch reloads the config file whenever it is written and delivers every
// successfully validated result on the returned channel. The directory is
// watched rather than the file so editors that replace files atomically are
// still seen. The channel closes when ctx is done.
func Watch(ctx context.Context, path string) (<-chan *Config, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	log := logger.Named("config")
	target := filepath.Clean(path)
	updates := make(chan *Config, 1)

	go func() {
		defer watcher.Close()
		defer close(updates)

		for {
			select {
			case e, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(e.Name) != target {
					continue
				}
				if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				cfg, err := LoadFile(path)
				if err != nil {
					log.Warn("config reload rejected", zap.String("path", path), zap.Error(err))
					continue
				}
				log.Info("config reloaded", zap.String("path", path))
				// Keep only the newest pending config.
				select {
				case <-updates:
				default:
				}
				updates <- cfg

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watcher error", zap.Error(err))

			case <-ctx.Done():
				return
			}
		}
	}()

	return updates, nil
}

package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"fundguard/internal/logger"

	"github.com/fsnotify/fsnotify"
)

func LoadFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("Не удалось прочитать снапшот %s: %w", path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("Не удалось разобрать снапшот %s: %w", path, err)
	}
	return snap, nil
}

func LoadInto(store *Store, path string) error {
	snap, err := LoadFile(path)
	if err != nil {
		return err
	}
	store.Load(snap)
	return nil
}

// Watch перечитывает файл при каждом изменении. Следим за каталогом, чтобы пережить атомарную замену файла.
func Watch(ctx context.Context, store *Store, path string, log *logger.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("Не удалось создать watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("Не удалось подписаться на %s: %w", filepath.Dir(abs), err)
	}

	entry := log.WithComponent("snapshot").WithField("file", abs)
	entry.Info("Слежение за файлом снапшота запущено.")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := LoadInto(store, abs); err != nil {
				entry.WithError(err).Warn("Не удалось перечитать снапшот, оставляем предыдущий.")
				continue
			}
			entry.WithField("version", store.Version()).Info("Снапшот перечитан.")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			entry.WithError(err).Warn("Ошибка watcher.")
		}
	}
}

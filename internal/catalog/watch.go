package catalog

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Files    []string      // source list and local price tables
	Debounce time.Duration // coalesce editor save bursts
	Logger   *slog.Logger
	// Refresh replaces the tracked files, e.g. after the source list gained a table.
	Refresh <-chan []string
}

// tracked resolves files to absolute paths and the directories that hold them.
func tracked(list []string) (files, dirs map[string]struct{}, err error) {
	files = make(map[string]struct{}, len(list))
	dirs = make(map[string]struct{})
	for _, f := range list {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, nil, err
		}
		files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	return files, dirs, nil
}

// Watch reports changes to the given files. It watches their parent directories, so files that
// editors replace by rename keep being tracked. Each burst of changes within Debounce is delivered
// as a single path.
func Watch(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Files) == 0 {
		logger.Error("catalog.watch.start_failed", "error", "no files provided")
		return nil, nil, errors.New("no files provided")
	}

	files, dirs, err := tracked(cfg.Files)
	if err != nil {
		return nil, nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("catalog.watch.create_failed", "error", err)
		return nil, nil, err
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			logger.Error("catalog.watch.add_failed", "dir", d, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	evCh := make(chan string, 16)
	errCh := make(chan error, 1)

	go func() {
		var (
			mu      sync.Mutex
			timer   *time.Timer
			pending string
			stopped bool
		)
		flush := func() {
			mu.Lock()
			defer mu.Unlock()
			if stopped || pending == "" {
				return
			}
			select {
			case evCh <- pending:
			default:
			}
			pending = ""
		}
		defer func() {
			mu.Lock()
			stopped = true
			if timer != nil {
				timer.Stop()
			}
			close(evCh)
			close(errCh)
			mu.Unlock()
			if err := w.Close(); err != nil {
				logger.Warn("catalog.watch.close_error", "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case list, ok := <-cfg.Refresh:
				if !ok {
					cfg.Refresh = nil
					continue
				}
				nextFiles, nextDirs, err := tracked(list)
				if err != nil || len(nextFiles) == 0 {
					logger.Warn("catalog.watch.refresh_skipped", "files", len(list), "error", err)
					continue
				}
				for d := range nextDirs {
					if _, ok := dirs[d]; ok {
						continue
					}
					if err := w.Add(d); err != nil {
						logger.Warn("catalog.watch.add_failed", "dir", d, "error", err)
					}
				}
				for d := range dirs {
					if _, ok := nextDirs[d]; !ok {
						_ = w.Remove(d)
					}
				}
				files, dirs = nextFiles, nextDirs
				logger.Debug("catalog.watch.refreshed", "files", len(files), "dirs", len(dirs))
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if _, tracked := files[filepath.Clean(e.Name)]; !tracked {
					continue
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				logger.Debug("catalog.watch.event", "path", e.Name, "op", e.Op.String())
				mu.Lock()
				pending = e.Name
				if cfg.Debounce > 0 {
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(cfg.Debounce, flush)
					mu.Unlock()
				} else {
					mu.Unlock()
					flush()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("catalog.watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// WatchFiles lists the source list itself and the local price tables it names.
func WatchFiles(sourcesPath string) ([]string, error) {
	sources, _, err := ReadSourceFile(sourcesPath)
	if err != nil {
		return []string{sourcesPath}, err
	}
	return append([]string{sourcesPath}, LocalPaths(sources)...), nil
}

// LocalPaths returns the file system paths among the sources' locators.
func LocalPaths(sources []Source) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, s := range sources {
		loc, err := parseLocator(s.Locator)
		if err != nil || loc.remote || loc.target == "" {
			continue
		}
		if _, dup := seen[loc.target]; dup {
			continue
		}
		seen[loc.target] = struct{}{}
		out = append(out, loc.target)
	}
	return out
}

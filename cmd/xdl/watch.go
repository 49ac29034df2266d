package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/xdl-lang/xdl/config"
)

// watchAndRun runs a script, then re-runs it in a fresh session every
// time it changes on disk. Rapid successive writes are debounced.
func watchAndRun(path string, cfg *config.Config, out io.Writer) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "xdl: %v\n", err)
		os.Exit(2)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file, which drops
	// a watch on the file itself
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		fmt.Fprintf(os.Stderr, "xdl: cannot watch %s: %v\n", dir, err)
		os.Exit(2)
	}
	fmt.Fprintf(os.Stderr, "watching %s\n", path)

	runOnce(path, cfg, out)

	var mu sync.Mutex
	var lastChange time.Time

	base := filepath.Base(path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Base(event.Name) != base {
				continue
			}

			mu.Lock()
			if time.Since(lastChange) < cfg.Watch.Debounce {
				mu.Unlock()
				continue
			}
			lastChange = time.Now()
			mu.Unlock()

			// Let the editor finish writing
			time.Sleep(cfg.Watch.Debounce)

			fmt.Fprintf(os.Stderr, "--- %s changed, re-running\n", path)
			runOnce(path, cfg, out)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "xdl: watcher error: %v\n", err)
		}
	}
}

// runOnce executes the script in a fresh session, reporting errors
// without exiting so the watch loop keeps going
func runOnce(path string, cfg *config.Config, out io.Writer) {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "xdl: %v\n", err)
		return
	}
	session := newSessionLenient(cfg, out)
	if session == nil {
		return
	}
	if _, runErr := session.RunFile(string(src), path); runErr != nil {
		reportError(runErr)
	}
}

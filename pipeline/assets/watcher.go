package assets

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/cubic/pipeline/containers"
	"github.com/spaghettifunk/cubic/pipeline/core"
)

const (
	// How long the watcher waits after the last event before flushing, so an
	// editor's write-then-rename shows up as one rebuild.
	debounceInterval = 250 * time.Millisecond

	pendingQueueSize = 64
)

// SourceWatcher watches a shader source directory and reports changed source
// paths in debounced batches. It never compiles anything itself; the rebuild
// callback decides what the change invalidates.
type SourceWatcher struct {
	pending   *containers.RingQueue[string]
	onRebuild func(paths []string)

	mutex sync.Mutex

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewSourceWatcher(onRebuild func(paths []string)) (*SourceWatcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &SourceWatcher{
		pending:   containers.NewRingQueue[string](pendingQueueSize),
		onRebuild: onRebuild,
		fsnotify:  fsWatch,
		done:      make(chan struct{}),
	}, nil
}

func (sw *SourceWatcher) Initialize(shaderDir string) error {
	go sw.start()

	if err := sw.fsnotify.Add(shaderDir); err != nil {
		return err
	}
	core.LogInfo("watching %s for shader source changes", shaderDir)
	return nil
}

func (sw *SourceWatcher) start() {
	var flush <-chan time.Time

	for {
		select {
		case event, ok := <-sw.fsnotify.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if !isShaderSource(event.Name) {
				continue
			}
			core.LogDebug("source changed: %s", event.Name)
			sw.mutex.Lock()
			if err := sw.pending.Enqueue(event.Name); err != nil {
				core.LogWarn("rebuild queue full, dropping change for %s", event.Name)
			}
			sw.mutex.Unlock()
			flush = time.After(debounceInterval)

		case err, ok := <-sw.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("watcher error: %v", err)

		case <-flush:
			flush = nil
			if paths := sw.drain(); len(paths) > 0 {
				sw.onRebuild(paths)
			}

		case <-sw.done:
			return
		}
	}
}

// drain empties the pending queue, deduplicating paths queued more than once.
func (sw *SourceWatcher) drain() []string {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()

	seen := map[string]bool{}
	var paths []string
	for !sw.pending.IsEmpty() {
		path, err := sw.pending.Dequeue()
		if err != nil {
			break
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		paths = append(paths, path)
	}
	return paths
}

func (sw *SourceWatcher) Shutdown() error {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()

	if sw.isClosed {
		return errors.New("watcher already closed")
	}
	sw.isClosed = true
	close(sw.done)
	return sw.fsnotify.Close()
}

func isShaderSource(path string) bool {
	switch filepath.Ext(path) {
	case ".vert", ".frag", ".glsl":
		return true
	}
	return false
}

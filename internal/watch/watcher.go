// This file implements a file system watcher for the drop directory.
// Markdown files dropped there are imported automatically.

package watch

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ameyrk/gutengo/internal/models"
	"github.com/ameyrk/gutengo/internal/pipeline"
)

// Service watches a directory and submits every settled .md file as a
// markdown import run.
type Service struct {
	runner      *pipeline.Runner
	path        string
	settleDelay time.Duration

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	pending  map[string]*time.Timer
	stopChan chan struct{}
}

// New creates a watcher service for the given directory. A zero settle delay
// gets the default of 2 seconds, long enough for editors and copies to finish
// writing before the file is read.
func New(runner *pipeline.Runner, path string, settleDelay time.Duration) *Service {
	if settleDelay <= 0 {
		settleDelay = 2 * time.Second
	}
	return &Service{
		runner:      runner,
		path:        path,
		settleDelay: settleDelay,
		pending:     make(map[string]*time.Timer),
		stopChan:    make(chan struct{}),
	}
}

// Start begins watching the drop directory for changes.
func (s *Service) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	if err := watcher.Add(s.path); err != nil {
		watcher.Close()
		return err
	}

	log.Printf("Watch directory started: %s", s.path)

	go s.processEvents()
	return nil
}

// Stop stops the watcher service.
func (s *Service) Stop() error {
	close(s.stopChan)

	s.mu.Lock()
	for _, timer := range s.pending {
		timer.Stop()
	}
	s.pending = make(map[string]*time.Timer)
	s.mu.Unlock()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// processEvents processes file system events until Stop is called.
func (s *Service) processEvents() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watch directory error: %v", err)

		case <-s.stopChan:
			return
		}
	}
}

// handleEvent schedules an import for a markdown file once writes to it have
// settled. Every further event on the same path resets its timer.
func (s *Service) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
		return
	}
	if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
		return
	}

	path := event.Name
	s.mu.Lock()
	if timer, ok := s.pending[path]; ok {
		timer.Stop()
	}
	s.pending[path] = time.AfterFunc(s.settleDelay, func() {
		s.mu.Lock()
		delete(s.pending, path)
		s.mu.Unlock()
		s.importFile(path)
	})
	s.mu.Unlock()
}

// importFile reads a settled file and submits it as a markdown run.
func (s *Service) importFile(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Watch directory: read %s: %v", path, err)
		return
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return
	}

	runID, err := s.runner.Submit("", "markdown", string(content), models.Options{})
	if err != nil {
		log.Printf("Watch directory: import %s: %v", path, err)
		return
	}
	log.Printf("Watch directory: submitted %s as run %s", filepath.Base(path), runID)
}

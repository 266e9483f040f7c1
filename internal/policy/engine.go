// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/campushq/frontdoor/internal/triage"
)

// maxRuleFileSize guards against oversized rule files.
const maxRuleFileSize = 1 * 1024 * 1024

// Engine manages the lifecycle of policy rules: loading from a rules
// directory, hot reload on file change, and handing compiled rules to the
// router.
type Engine struct {
	rulesDir string
	rules    []*compiledRule
	mu       sync.RWMutex

	// onReload is notified after every successful reload so the caller can
	// rebuild anything holding a rule snapshot.
	onReload func()

	watcher     *fsnotify.Watcher
	stopWatcher chan struct{}
}

// NewEngine creates a policy engine reading rules from rulesDir.
func NewEngine(rulesDir string) (*Engine, error) {
	if rulesDir == "" {
		wd, _ := os.Getwd()
		rulesDir = filepath.Join(wd, "policy.d")
	}
	return &Engine{
		rulesDir:    rulesDir,
		rules:       make([]*compiledRule, 0),
		stopWatcher: make(chan struct{}),
	}, nil
}

// OnReload registers a callback invoked after each successful rule reload.
func (e *Engine) OnReload(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onReload = fn
}

// LoadRules loads all policy rules from the rules directory. Files that fail
// to parse or compile are skipped with an error log; one bad file never takes
// down the engine.
func (e *Engine) LoadRules() error {
	if _, err := os.Stat(e.rulesDir); os.IsNotExist(err) {
		if err := os.MkdirAll(e.rulesDir, 0755); err != nil {
			return fmt.Errorf("failed to create policy rules directory: %w", err)
		}
	}

	absRulesDir, err := filepath.Abs(e.rulesDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path of rules directory: %w", err)
	}

	newRules := make([]*compiledRule, 0)

	err = filepath.Walk(e.rulesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip symlinks to prevent directory traversal.
		if info.Mode()&os.ModeSymlink != 0 {
			log.Warnf("Skipping symlink in policy directory: %s", path)
			return nil
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			log.Warnf("Failed to get absolute path for %s: %v", path, err)
			return nil
		}
		if !strings.HasPrefix(absPath, absRulesDir) {
			log.Warnf("Skipping file outside policy directory: %s", path)
			return nil
		}

		if info.IsDir() || (!strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml")) {
			return nil
		}
		if info.Size() > maxRuleFileSize {
			log.Warnf("Skipping large policy file: %s (%d bytes)", path, info.Size())
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Errorf("Failed to read policy file %s: %v", path, err)
			return nil
		}

		var rule Rule
		if err := yaml.Unmarshal(data, &rule); err != nil {
			log.Errorf("Failed to parse policy rule %s: %v", path, err)
			return nil
		}
		rule.FilePath = path

		compiled, err := compile(rule)
		if err != nil {
			log.Errorf("Failed to compile policy rule %s: %v", path, err)
			return nil
		}

		newRules = append(newRules, compiled)
		log.Debugf("Loaded policy rule: %s from %s", rule.Name, path)
		return nil
	})
	if err != nil {
		return err
	}

	// Sort rules by priority (highest first).
	sort.SliceStable(newRules, func(i, j int) bool {
		return newRules[i].rule.Activation.Priority > newRules[j].rule.Activation.Priority
	})

	e.mu.Lock()
	e.rules = newRules
	onReload := e.onReload
	e.mu.Unlock()

	log.Infof("Successfully loaded %d policy rules", len(newRules))
	if onReload != nil {
		onReload()
	}
	return nil
}

// Rules returns the current rule snapshot in application order, typed for
// the router.
func (e *Engine) Rules() []triage.PolicyRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]triage.PolicyRule, len(e.rules))
	for i, r := range e.rules {
		out[i] = r
	}
	return out
}

// Loaded returns the declared rules, for the admin surface.
func (e *Engine) Loaded() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Rule, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.rule
	}
	return out
}

// StartWatcher starts a background fsnotify watcher for hot-reloading rules.
func (e *Engine) StartWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	e.watcher = watcher

	if err := watcher.Add(e.rulesDir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					log.Infof("Policy directory changed (%s), reloading rules...", event.Name)
					time.Sleep(100 * time.Millisecond)
					if err := e.LoadRules(); err != nil {
						log.Errorf("Failed to reload policy rules: %v", err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("Policy watcher error: %v", err)
			case <-e.stopWatcher:
				return
			}
		}
	}()

	return nil
}

// StopWatcher stops the file watcher.
func (e *Engine) StopWatcher() {
	if e.watcher != nil {
		select {
		case <-e.stopWatcher:
			// Channel already closed
		default:
			close(e.stopWatcher)
		}
		e.watcher.Close()
		e.watcher = nil
	}
}

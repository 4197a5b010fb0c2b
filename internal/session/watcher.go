/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports writes to one session file. The directory is watched because atomic saves
// replace the file instead of writing into it. Bursts within the debounce window collapse
// into one notification.
type Watcher struct {
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
	changes  chan struct{}
	errs     chan error
	closeCh  chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// Watch starts watching path.
func Watch(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w := &Watcher{
		fs:       fw,
		path:     abs,
		debounce: debounce,
		changes:  make(chan struct{}, 1),
		errs:     make(chan error, 1),
		closeCh:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Changes delivers one value per (debounced) change. It is closed by Close.
func (w *Watcher) Changes() <-chan struct{} { return w.changes }

// Errors delivers watcher errors; excess errors are dropped.
func (w *Watcher) Errors() <-chan error { return w.errs }

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.fs.Close()
		w.wg.Wait()
		close(w.changes)
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if w.debounce <= 0 {
				w.notify()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.notify()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

func (w *Watcher) notify() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"context"
	"log/slog"

	"cellsorter/internal/config"
	applog "cellsorter/internal/log"
	"cellsorter/internal/storage"
)

// Open builds a Manager from the application config. The returned closer
// releases the catalog; it is never nil. A catalog that fails to open is
// logged and skipped, the session file stays authoritative.
func Open(ctx context.Context, cfg config.AppConfig) (*Manager, func(), error) {
	dir, err := cfg.SessionDir()
	if err != nil {
		return nil, nil, err
	}
	policy, err := ParsePolicy(cfg.Session.ConflictPolicy)
	if err != nil {
		return nil, nil, err
	}
	opts := []Option{
		WithAutoSave(cfg.Session.AutoSave),
		WithMaxRecent(cfg.Session.MaxRecentFiles),
		WithPolicy(policy),
	}
	closer := func() {}
	if cfg.Session.Catalog {
		cat, err := storage.OpenCatalog(ctx, dir)
		if err != nil {
			applog.WithComponent("session").Warn("session catalog unavailable", slog.String("error", err.Error()))
		} else {
			opts = append(opts, WithCatalog(cat))
			closer = func() { _ = cat.Close() }
		}
	}
	return NewManager(dir, opts...), closer, nil
}

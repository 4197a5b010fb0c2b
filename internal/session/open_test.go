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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellsorter/internal/config"
	"cellsorter/internal/storage"
)

func TestOpenFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Session.Dir = filepath.Join(t.TempDir(), "sessions")
	cfg.Session.ConflictPolicy = config.PolicyMerge

	m, closeCatalog, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer closeCatalog()
	assert.Equal(t, cfg.Session.Dir, m.Dir())
	assert.Equal(t, Merge, m.policy)
	assert.NotNil(t, m.catalog)
	assert.FileExists(t, storage.CatalogPath(cfg.Session.Dir))
}

func TestOpenWithoutCatalog(t *testing.T) {
	cfg := config.Defaults()
	cfg.Session.Dir = t.TempDir()
	cfg.Session.Catalog = false

	m, closeCatalog, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	closeCatalog()
	_, err = m.KnownSessions(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNoCatalog)
}

func TestOpenRejectsUnknownPolicy(t *testing.T) {
	cfg := config.Defaults()
	cfg.Session.Dir = t.TempDir()
	cfg.Session.ConflictPolicy = "newest"

	_, _, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}

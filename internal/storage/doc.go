/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements local persistence for cellsorter.
// It provides transactional file writes (temp file plus rename) with timestamped backups of the
// previous content, and the embedded SQLite catalog that records known sessions and a history of
// UI model snapshots. The catalog is derived data: it can be deleted at any time and is rebuilt
// on the next save.
package storage

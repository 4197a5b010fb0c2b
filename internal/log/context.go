/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"log/slog"
)

type (
	modeKey    struct{}
	sessionKey struct{}
)

// ContextWithMode returns a context whose records carry mode=<mode>.
func ContextWithMode(ctx context.Context, mode string) context.Context {
	return context.WithValue(ctx, modeKey{}, mode)
}

// ContextWithSession returns a context whose records carry session=<id>.
func ContextWithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// contextAttrs copies mode and session from the context onto each record.
type contextAttrs struct{ next slog.Handler }

func withContextAttrs(h slog.Handler) slog.Handler { return contextAttrs{next: h} }

func (c contextAttrs) Enabled(ctx context.Context, level slog.Level) bool {
	return c.next.Enabled(ctx, level)
}

func (c contextAttrs) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if m, ok := ctx.Value(modeKey{}).(string); ok && m != "" {
			r.AddAttrs(slog.String("mode", m))
		}
		if id, ok := ctx.Value(sessionKey{}).(string); ok && id != "" {
			r.AddAttrs(slog.String("session", id))
		}
	}
	return c.next.Handle(ctx, r)
}

func (c contextAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextAttrs{next: c.next.WithAttrs(attrs)}
}

func (c contextAttrs) WithGroup(name string) slog.Handler {
	return contextAttrs{next: c.next.WithGroup(name)}
}

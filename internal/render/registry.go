/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"reflect"
	"sync"

	"cellsorter/internal/ir"
)

// KindRegistry maps the stable Go type of a live object to a widget kind. Toolkits fill it at
// construction time; unmapped types resolve to ir.KindWidget.
type KindRegistry struct {
	mu    sync.RWMutex
	kinds map[reflect.Type]ir.Kind
}

// NewKindRegistry returns an empty registry.
func NewKindRegistry() *KindRegistry {
	return &KindRegistry{kinds: map[reflect.Type]ir.Kind{}}
}

// Register maps the dynamic type of sample to kind. sample may be a typed nil pointer.
func (r *KindRegistry) Register(sample any, kind ir.Kind) {
	r.RegisterType(reflect.TypeOf(sample), kind)
}

// RegisterType maps t to kind.
func (r *KindRegistry) RegisterType(t reflect.Type, kind ir.Kind) {
	if t == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[t] = kind
}

// Lookup returns the kind registered for t.
func (r *KindRegistry) Lookup(t reflect.Type) (ir.Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[t]
	return k, ok
}

// KindOf infers the kind of a live object, preferring the wrapped native value's type.
func (r *KindRegistry) KindOf(obj Object) ir.Kind {
	if obj == nil {
		return ir.KindWidget
	}
	if n, ok := obj.(Native); ok {
		if k, ok := r.Lookup(reflect.TypeOf(n.Native())); ok {
			return k
		}
	}
	if k, ok := r.Lookup(reflect.TypeOf(obj)); ok {
		return k
	}
	return ir.KindWidget
}

// Len reports how many types are registered.
func (r *KindRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.kinds)
}

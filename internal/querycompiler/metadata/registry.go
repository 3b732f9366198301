/*******************************************************************************
* Copyright (C) 2026 the Eclipse BaSyx Authors and Fraunhofer IESE
*
* Permission is hereby granted, free of charge, to any person obtaining
* a copy of this software and associated documentation files (the
* "Software"), to deal in the Software without restriction, including
* without limitation the rights to use, copy, modify, merge, publish,
* distribute, sublicense, and/or sell copies of the Software, and to
* permit persons to whom the Software is furnished to do so, subject to
* the following conditions:
*
* The above copyright notice and this permission notice shall be
* included in all copies or substantial portions of the Software.
*
* THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
* EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
* MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
* NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
* LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
* OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
* WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*
* SPDX-License-Identifier: MIT
******************************************************************************/

package metadata

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/logger"
)

type entry struct {
	def        EntityType
	properties map[string]Property
	lifecycle  *Property
}

// Registry is a concurrent, read-mostly table of entity types.
//
// Types are registered at startup; afterwards the registry only serves lookups.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*entry
}

// NewRegistry creates a registry pre-populated with defs.
func NewRegistry(defs ...EntityType) (*Registry, error) {
	r := &Registry{entities: make(map[string]*entry)}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an entity type.
//
// An entity type may declare at most one lifecycle property, and nested properties must name
// their related type. Related types are not required to be registered first.
func (r *Registry) Register(def EntityType) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("entity type without name")
	}
	e := &entry{def: def, properties: make(map[string]Property, len(def.Properties))}
	for i := range def.Properties {
		p := def.Properties[i]
		if p.Name == "" {
			return fmt.Errorf("entity type %s: property %d has no name", def.Name, i)
		}
		if _, dup := e.properties[p.Name]; dup {
			return fmt.Errorf("entity type %s: duplicate property %s", def.Name, p.Name)
		}
		if p.Lifecycle {
			if e.lifecycle != nil {
				return fmt.Errorf("entity type %s has more than 1 lifecycle property", def.Name)
			}
			e.lifecycle = &p
		}
		if p.Nested && p.RelatedType == "" {
			return fmt.Errorf("entity type %s: nested property %s has no related type", def.Name, p.Name)
		}
		e.properties[p.Name] = p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entities[def.Name]; exists {
		return fmt.Errorf("%w: %s", qcerrors.ErrEntityTypeAlreadyRegistered, def.Name)
	}
	r.entities[def.Name] = e
	logger.LogDebug(fmt.Sprintf("registered entity type %s with %d properties", def.Name, len(def.Properties)))
	return nil
}

func (r *Registry) lookup(name string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entities[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", qcerrors.ErrEntityTypeNotFound, name)
	}
	return e, nil
}

// Entity returns the definition of an entity type.
func (r *Registry) Entity(name string) (EntityType, error) {
	e, err := r.lookup(name)
	if err != nil {
		return EntityType{}, err
	}
	return e.def, nil
}

// Names returns the registered entity type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Resolve maps a logical property path of entityType onto its physical field.
//
// Names starting with an underscore (_id, _score, ...) are engine fields and pass through.
// A dotted path whose head is nested recurses into the related type; a dotted path whose
// head is a plain object keeps the remainder as written.
func (r *Registry) Resolve(entityType, property string) (Field, error) {
	if strings.HasPrefix(property, "_") {
		return Field{Name: property}, nil
	}
	e, err := r.lookup(entityType)
	if err != nil {
		return Field{}, err
	}

	head, rest, dotted := strings.Cut(property, ".")
	p, ok := e.properties[head]
	if !ok {
		return Field{}, &qcerrors.FieldResolutionError{EntityType: entityType, Property: property}
	}
	if !dotted {
		f := Field{Name: p.PhysicalName(), Phrase: p.Searchable}
		if p.Nested {
			f.RelatedType = p.RelatedType
		}
		return f, nil
	}

	switch {
	case p.Nested:
		inner, err := r.Resolve(p.RelatedType, rest)
		if errors.Is(err, qcerrors.ErrEntityTypeNotFound) {
			// The related type was never registered: the property path is what cannot be resolved.
			return Field{}, &qcerrors.FieldResolutionError{EntityType: entityType, Property: property}
		}
		if err != nil {
			return Field{}, err
		}
		inner.Name = p.PhysicalName() + "." + inner.Name
		return inner, nil
	case p.Object:
		return Field{Name: p.PhysicalName() + "." + rest}, nil
	}
	return Field{}, &qcerrors.FieldResolutionError{EntityType: entityType, Property: property}
}

// LifecycleField returns the lifecycle property of entityType.
func (r *Registry) LifecycleField(entityType string) (LifecycleField, error) {
	e, err := r.lookup(entityType)
	if err != nil {
		return LifecycleField{}, err
	}
	if e.lifecycle == nil {
		return LifecycleField{}, fmt.Errorf("%w: %s", qcerrors.ErrNoLifecycleField, entityType)
	}
	return LifecycleField{Name: e.lifecycle.PhysicalName(), Retention: e.lifecycle.Retention}, nil
}

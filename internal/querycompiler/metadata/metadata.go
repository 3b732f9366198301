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

// Package metadata holds the static entity description the compiler consults to map logical
// property names onto physical document fields.
//
// Each entity type lists its properties once at registration time. A property may be
// searchable (full-text, matched with phrase queries), the lifecycle property (the single
// timestamp driving expiry) or nested (an array of sub-documents with its own entity type).
// The physical name of a property is derived from the first of these facets that applies:
//
//	searchable -> searchFor<Name>
//	lifecycle  -> lifecycleFor<Name>
//	nested     -> nestedFor<Name>
//	otherwise  -> <name>
package metadata

import (
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/config"
)

// Property describes one logical property of an entity type.
type Property struct {
	Name string `yaml:"name" json:"name"`

	// Searchable marks a full-text property; equality and LIKE compile to phrase queries.
	Searchable bool `yaml:"searchable,omitempty" json:"searchable,omitempty"`

	// Lifecycle marks the timestamp property used by lifecycle filters and expiry.
	Lifecycle bool `yaml:"lifecycle,omitempty" json:"lifecycle,omitempty"`

	// Retention is how long a document lives after its lifecycle timestamp.
	Retention time.Duration `yaml:"retention,omitempty" json:"retention,omitempty"`

	// Nested marks an array of sub-documents described by RelatedType.
	Nested bool `yaml:"nested,omitempty" json:"nested,omitempty"`

	// Object marks a plain object property; dotted sub-paths pass through unresolved.
	Object bool `yaml:"object,omitempty" json:"object,omitempty"`

	RelatedType string `yaml:"relatedType,omitempty" json:"relatedType,omitempty"`
}

// PhysicalName returns the document field name of p.
func (p Property) PhysicalName() string {
	switch {
	case p.Searchable:
		return config.SearchFieldPrefix + capitalize(p.Name)
	case p.Lifecycle:
		return config.LifecycleFieldPrefix + capitalize(p.Name)
	case p.Nested:
		return config.NestedFieldPrefix + capitalize(p.Name)
	}
	return p.Name
}

// EntityType describes a document type stored in one index.
type EntityType struct {
	Name  string `yaml:"name" json:"name"`
	Index string `yaml:"index,omitempty" json:"index,omitempty"`

	// TypeField and TypeValue form an optional discriminator added to every compiled query.
	TypeField string `yaml:"typeField,omitempty" json:"typeField,omitempty"`
	TypeValue string `yaml:"typeValue,omitempty" json:"typeValue,omitempty"`

	Properties []Property `yaml:"properties" json:"properties"`
}

// IndexName is the index documents of the type live in, the type name unless Index is set.
func (e EntityType) IndexName() string {
	if e.Index != "" {
		return e.Index
	}
	return e.Name
}

// SearchFields returns the document field names of the searchable properties, in declaration order.
func (e EntityType) SearchFields() []string {
	var out []string
	for _, p := range e.Properties {
		if p.Searchable {
			out = append(out, p.PhysicalName())
		}
	}
	return out
}

// Field is the outcome of resolving a logical property path.
type Field struct {
	// Name is the physical document field, dotted for nested and object paths.
	Name string
	// Phrase is true when the innermost property is searchable.
	Phrase bool
	// RelatedType is set when the innermost property is nested.
	RelatedType string
}

// LifecycleField describes the lifecycle property of an entity type.
type LifecycleField struct {
	Name      string
	Retention time.Duration
}

// Resolver is the read side of the metadata consumed by the compiler.
type Resolver interface {
	Resolve(entityType, property string) (Field, error)
	LifecycleField(entityType string) (LifecycleField, error)
	Entity(name string) (EntityType, error)
}

// capitalize upper-cases the first rune only: firstName -> FirstName.
func capitalize(name string) string {
	if name == "" {
		return name
	}
	_, size := utf8.DecodeRuneInString(name)
	return cases.Upper(language.Und).String(name[:size]) + name[size:]
}

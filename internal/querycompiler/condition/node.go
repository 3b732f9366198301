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

package condition

import (
	"fmt"
	"strings"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/operator"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

// Conn says how a node joins its parent group.
type Conn int

const (
	AND Conn = iota
	OR
)

func (c Conn) String() string {
	if c == OR {
		return "OR"
	}
	return "AND"
}

// Flip swaps AND and OR.
func (c Conn) Flip() Conn {
	if c == OR {
		return AND
	}
	return OR
}

// Node is a Condition or a Group.
type Node interface {
	Connector() Conn
	fmt.Stringer
	node()
}

// RelationKind distinguishes nested documents from parent/child joins.
type RelationKind int

const (
	Nested RelationKind = iota + 1
	Children
)

// Relation describes a nested(...) or children(...) wrapper around a condition.
type Relation struct {
	Kind RelationKind
	// Path is the nested path for Nested and the child type for Children.
	Path string
	// Where holds the complex form nested(path, <cond>); nil for the simple form.
	Where *Group
	// InnerHits asks for the matching sub-documents to be returned with each hit.
	InnerHits *predicate.InnerHits
}

// Complex reports whether the relation carries its own condition tree.
func (r *Relation) Complex() bool {
	return r != nil && r.Where != nil
}

// Condition is a single comparison.
type Condition struct {
	Conn   Conn
	Field  string
	Op     operator.Operator
	Values []Value

	// Relation wraps the condition in a nested or has-child query.
	Relation *Relation

	// CaseScript is the painless source of a `CASE ... END IN (...)` condition.
	CaseScript string
}

// Group is an ordered list of nodes. A group with a single child is transparent.
type Group struct {
	Conn     Conn
	Children []Node
}

func (c *Condition) Connector() Conn { return c.Conn }
func (g *Group) Connector() Conn     { return g.Conn }
func (*Condition) node()             {}
func (*Group) node()                 {}

// Value returns the first value or Null.
func (c *Condition) Value() Value {
	if len(c.Values) == 0 {
		return Null()
	}
	return c.Values[0]
}

func (c *Condition) String() string {
	var b strings.Builder
	b.WriteString(c.Conn.String())
	b.WriteString(" ")
	if c.Relation != nil {
		if c.Relation.Kind == Nested {
			b.WriteString("nested(")
		} else {
			b.WriteString("children(")
		}
		b.WriteString(c.Relation.Path)
		b.WriteString(") ")
	}
	b.WriteString(c.Field)
	b.WriteString(" ")
	b.WriteString(string(c.Op))
	if c.Relation.Complex() {
		b.WriteString(" ")
		b.WriteString(c.Relation.Where.String())
		return b.String()
	}
	if c.CaseScript != "" {
		b.WriteString(" script[")
		b.WriteString(c.CaseScript)
		b.WriteString("]")
		return b.String()
	}
	vals := make([]string, len(c.Values))
	for i, v := range c.Values {
		vals[i] = v.Literal()
	}
	b.WriteString(" ")
	b.WriteString(strings.Join(vals, ","))
	return b.String()
}

func (g *Group) String() string {
	parts := make([]string, len(g.Children))
	for i, ch := range g.Children {
		parts[i] = ch.String()
	}
	return g.Conn.String() + " (" + strings.Join(parts, " ") + ")"
}

// Add appends nodes to g.
func (g *Group) Add(nodes ...Node) {
	g.Children = append(g.Children, nodes...)
}

// Empty reports whether g has no children.
func (g *Group) Empty() bool {
	return g == nil || len(g.Children) == 0
}

// Collapse returns the single child of a one-child group, recursively, or g itself.
func Collapse(n Node) Node {
	for {
		g, ok := n.(*Group)
		if !ok || len(g.Children) != 1 {
			return n
		}
		n = g.Children[0]
	}
}

// Negate returns a new tree equivalent to NOT n: every leaf operator is negated and every
// connector flipped. n is left untouched.
func Negate(n Node) (Node, error) {
	switch v := n.(type) {
	case *Condition:
		op, err := operator.Negate(v.Op)
		if err != nil {
			return nil, err
		}
		cp := *v
		cp.Op = op
		cp.Conn = v.Conn.Flip()
		cp.Values = append([]Value(nil), v.Values...)
		return &cp, nil
	case *Group:
		out := &Group{Conn: v.Conn.Flip(), Children: make([]Node, 0, len(v.Children))}
		for _, ch := range v.Children {
			neg, err := Negate(ch)
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, neg)
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot negate node of type %T", n)
}

// NegateChildren negates every child of g and returns them.
func NegateChildren(g *Group) ([]Node, error) {
	out := make([]Node, 0, len(g.Children))
	for _, ch := range g.Children {
		neg, err := Negate(ch)
		if err != nil {
			return nil, err
		}
		out = append(out, neg)
	}
	return out, nil
}

// Walk calls fn for every condition of the tree, descending into complex relations.
func Walk(n Node, fn func(*Condition)) {
	switch v := n.(type) {
	case *Condition:
		fn(v)
		if v.Relation.Complex() {
			Walk(v.Relation.Where, fn)
		}
	case *Group:
		for _, ch := range v.Children {
			Walk(ch, fn)
		}
	}
}

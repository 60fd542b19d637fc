// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package grammar

import (
	"iter"
	"slices"
	"strings"
)

// Ast owns every file and entity of one compilation, in declaration order.
type Ast struct {
	files    []*File
	entities []Entity
	byScope  map[string]Entity
}

func NewAst() *Ast {
	return &Ast{
		byScope: make(map[string]Entity),
	}
}

func (a *Ast) AddFile(f *File) {
	a.files = append(a.files, f)
}

func (a *Ast) Files() []*File {
	return slices.Clone(a.files)
}

// Add appends an entity to the arena and indexes it by scoped identifier.
// If a declaration or module with the same name already exists it is
// returned and the index is left unchanged. Modules may be reopened, and
// duplicate members are left to the validators, so neither conflicts here.
func (a *Ast) Add(e Entity) (Entity, bool) {
	a.entities = append(a.entities, e)
	key := e.ScopedIdentifier()
	if prev, ok := a.byScope[key]; ok {
		_, isModule := e.(*Module)
		_, prevIsModule := prev.(*Module)
		switch {
		case isModule && prevIsModule:
		case (isModule || isDeclaration(e)) && (prevIsModule || isDeclaration(prev)):
			return prev, false
		}
		return nil, true
	}
	a.byScope[key] = e
	return nil, true
}

func isDeclaration(e Entity) bool {
	switch e.(type) {
	case *Struct, *Class, *Exception, *Interface, *Enum, *CustomType, *TypeAlias, *Operation:
		return true
	}
	return false
}

func (a *Ast) Entities() iter.Seq[Entity] {
	return slices.Values(a.entities)
}

func (a *Ast) Len() int {
	return len(a.entities)
}

// Lookup finds any named entity, including members and parameters.
func (a *Ast) Lookup(scopedIdentifier string) (Entity, bool) {
	e, ok := a.byScope[strings.TrimPrefix(scopedIdentifier, "::")]
	return e, ok
}

// LookupRelative resolves a type name as written inside scope, searching
// the innermost scope first. Names starting with "::" are absolute.
func (a *Ast) LookupRelative(name, scope string) (Entity, bool) {
	if strings.HasPrefix(name, "::") {
		name, scope = strings.TrimPrefix(name, "::"), ""
	}
	for {
		candidate := name
		if scope != "" {
			candidate = scope + "::" + name
		}
		if e, ok := a.byScope[candidate]; ok {
			if _, isType := e.(Type); isType {
				return e, true
			}
		}
		if scope == "" {
			return nil, false
		}
		if i := strings.LastIndex(scope, "::"); i >= 0 {
			scope = scope[:i]
		} else {
			scope = ""
		}
	}
}

// FindEntity looks up an entity by scoped identifier and asserts its type.
func FindEntity[T Entity](a *Ast, scopedIdentifier string) (T, bool) {
	e, ok := a.Lookup(scopedIdentifier)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := e.(T)
	return t, ok
}

// EntitiesOf yields the entities of type T in declaration order.
func EntitiesOf[T Entity](a *Ast) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, e := range a.entities {
			if t, ok := e.(T); ok {
				if !yield(t) {
					return
				}
			}
		}
	}
}

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
	"fmt"
	"slices"
	"strings"

	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/syntax"
)

const (
	DirectiveDeprecated    = "deprecated"
	DirectiveAllow         = "allow"
	DirectiveCompress      = "compress"
	DirectiveOneway        = "oneway"
	DirectiveSlicedFormat  = "slicedFormat"
	DirectiveEncodedResult = "encodedResult"
)

type Attribute struct {
	Directive string
	Args      []string
	Location  syntax.Span
	Kind      AttributeKind
}

// AttributeKind is the parsed form of an attribute. The set of kinds is
// closed; directives without a dedicated kind parse to [*Unparsed].
type AttributeKind interface {
	Directive() string
	isAttributeKind()
}

type Deprecated struct {
	Reason string
}

type Allow struct {
	Lints []string
}

// Allows reports whether the named lint is suppressed.
func (a *Allow) Allows(code diagnostics.Code) bool {
	return slices.Contains(a.Lints, "All") || slices.Contains(a.Lints, code.String())
}

type Compress struct {
	Args   bool
	Return bool
}

type Oneway struct{}

type SlicedFormat struct {
	Args   bool
	Return bool
}

type EncodedResult struct{}

type Unparsed struct {
	Name string
	Args []string
}

func (*Deprecated) Directive() string    { return DirectiveDeprecated }
func (*Allow) Directive() string         { return DirectiveAllow }
func (*Compress) Directive() string      { return DirectiveCompress }
func (*Oneway) Directive() string        { return DirectiveOneway }
func (*SlicedFormat) Directive() string  { return DirectiveSlicedFormat }
func (*EncodedResult) Directive() string { return DirectiveEncodedResult }
func (u *Unparsed) Directive() string    { return u.Name }

func (*Deprecated) isAttributeKind()    {}
func (*Allow) isAttributeKind()         {}
func (*Compress) isAttributeKind()      {}
func (*Oneway) isAttributeKind()        {}
func (*SlicedFormat) isAttributeKind()  {}
func (*EncodedResult) isAttributeKind() {}
func (*Unparsed) isAttributeKind()      {}

// ParseAttribute parses an attribute's arguments according to its
// directive. Malformed arguments are reported and the attribute keeps
// whatever could be parsed.
func ParseAttribute(directive string, args []string, span syntax.Span, diags *diagnostics.Diagnostics) *Attribute {
	attr := &Attribute{
		Directive: directive,
		Args:      slices.Clone(args),
		Location:  span,
	}
	switch directive {
	case DirectiveDeprecated:
		kind := &Deprecated{}
		if len(args) > 0 {
			kind.Reason = args[0]
		}
		if len(args) > 1 {
			diagnostics.TooManyArguments(directive, 1).
				SetSpan(span).
				PushInto(diags)
		}
		attr.Kind = kind
	case DirectiveAllow:
		kind := &Allow{}
		if len(args) == 0 {
			diagnostics.MissingRequiredArgument("allow(<lint_name>)").
				SetSpan(span).
				PushInto(diags)
		}
		for _, arg := range args {
			if _, ok := diagnostics.LintByName(arg); ok || arg == "All" {
				kind.Lints = append(kind.Lints, arg)
				continue
			}
			diagnostics.ArgumentNotSupported(arg, directive).
				SetSpan(span).
				AddNote(fmt.Sprintf("'%s' is not a known lint; valid lints are: %s", arg, lintNames()), nil).
				PushInto(diags)
		}
		attr.Kind = kind
	case DirectiveCompress:
		hasArgs, hasReturn := parseArgsReturn(directive, args, span, diags)
		attr.Kind = &Compress{Args: hasArgs, Return: hasReturn}
	case DirectiveSlicedFormat:
		hasArgs, hasReturn := parseArgsReturn(directive, args, span, diags)
		attr.Kind = &SlicedFormat{Args: hasArgs, Return: hasReturn}
	case DirectiveOneway:
		noArguments(directive, args, span, diags)
		attr.Kind = &Oneway{}
	case DirectiveEncodedResult:
		noArguments(directive, args, span, diags)
		attr.Kind = &EncodedResult{}
	default:
		attr.Kind = &Unparsed{Name: directive, Args: slices.Clone(args)}
	}
	return attr
}

func parseArgsReturn(directive string, args []string, span syntax.Span, diags *diagnostics.Diagnostics) (bool, bool) {
	if len(args) == 0 {
		diagnostics.MissingRequiredArgument(directive+"(Args|Return)").
			SetSpan(span).
			PushInto(diags)
		return false, false
	}
	var hasArgs, hasReturn bool
	for _, arg := range args {
		switch arg {
		case "Args":
			hasArgs = true
		case "Return":
			hasReturn = true
		default:
			diagnostics.ArgumentNotSupported(arg, directive).
				SetSpan(span).
				AddNote("'Args' and 'Return' are the only valid arguments", nil).
				PushInto(diags)
		}
	}
	return hasArgs, hasReturn
}

func noArguments(directive string, args []string, span syntax.Span, diags *diagnostics.Diagnostics) {
	if len(args) > 0 {
		diagnostics.TooManyArguments(directive, 0).
			SetSpan(span).
			PushInto(diags)
	}
}

func lintNames() string {
	names := []string{}
	for _, code := range []diagnostics.Code{
		diagnostics.CodeDuplicateFile,
		diagnostics.CodeIncorrectDocComment,
		diagnostics.CodeMalformedDocComment,
		diagnostics.CodeDeprecated,
	} {
		names = append(names, code.String())
	}
	return strings.Join(names, ", ")
}

// FindAttribute returns the first attribute of kind T.
func FindAttribute[T AttributeKind](attrs []*Attribute) (T, bool) {
	for _, attr := range attrs {
		if kind, ok := attr.Kind.(T); ok {
			return kind, true
		}
	}
	var zero T
	return zero, false
}

func (a *Attribute) Span() syntax.Span {
	return a.Location
}

func (a *Attribute) String() string {
	if len(a.Args) == 0 {
		return a.Directive
	}
	return fmt.Sprintf("%s(%s)", a.Directive, strings.Join(a.Args, ", "))
}

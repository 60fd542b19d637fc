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

package diagnostics

import (
	"fmt"
)

type Code uint16

const (
	CodeIO Code = 2000 + iota
	CodeSyntax
	CodeRedefinition
	CodeReturnTuplesMustContainAtLeastTwoElements
	CodeStreamedMembersMustBeLast
	CodeMultipleStreamedMembers
	CodeExceptionSpecificationNotSupported
	CodeNotSupportedWithEncoding
	CodeUnsupportedType
	CodeTypeMismatch
	CodeDoesNotExist
	CodeTooManyArguments
	CodeMissingRequiredArgument
	CodeArgumentNotSupported
	CodeUnexpectedAttribute
	CodeTaggedMemberMustBeOptional
	CodeCannotHaveDuplicateTag
	CodeCompactIdOutOfBounds
	CodeInvalidEncodingMode
	CodeEnumeratorValueOutOfBounds
	CodeDuplicateEnumeratorValue
	CodeMustContainEnumerators
	CodeKeyTypeNotSupported
	CodeSelfReferentialTypeAlias
	CodeStreamedMembersCannotBeTagged
)

const (
	CodeDuplicateFile Code = 4000 + iota
	CodeIncorrectDocComment
	CodeMalformedDocComment
	CodeDeprecated
)

var codeNames = map[Code]string{
	CodeIO:                                        "IO",
	CodeSyntax:                                    "Syntax",
	CodeRedefinition:                              "Redefinition",
	CodeReturnTuplesMustContainAtLeastTwoElements: "ReturnTuplesMustContainAtLeastTwoElements",
	CodeStreamedMembersMustBeLast:                 "StreamedMembersMustBeLast",
	CodeMultipleStreamedMembers:                   "MultipleStreamedMembers",
	CodeExceptionSpecificationNotSupported:        "ExceptionSpecificationNotSupported",
	CodeNotSupportedWithEncoding:                  "NotSupportedWithEncoding",
	CodeUnsupportedType:                           "UnsupportedType",
	CodeTypeMismatch:                              "TypeMismatch",
	CodeDoesNotExist:                              "DoesNotExist",
	CodeTooManyArguments:                          "TooManyArguments",
	CodeMissingRequiredArgument:                   "MissingRequiredArgument",
	CodeArgumentNotSupported:                      "ArgumentNotSupported",
	CodeUnexpectedAttribute:                       "UnexpectedAttribute",
	CodeTaggedMemberMustBeOptional:                "TaggedMemberMustBeOptional",
	CodeCannotHaveDuplicateTag:                    "CannotHaveDuplicateTag",
	CodeCompactIdOutOfBounds:                      "CompactIdOutOfBounds",
	CodeInvalidEncodingMode:                       "InvalidEncodingMode",
	CodeEnumeratorValueOutOfBounds:                "EnumeratorValueOutOfBounds",
	CodeDuplicateEnumeratorValue:                  "DuplicateEnumeratorValue",
	CodeMustContainEnumerators:                    "MustContainEnumerators",
	CodeKeyTypeNotSupported:                       "KeyTypeNotSupported",
	CodeSelfReferentialTypeAlias:                  "SelfReferentialTypeAlias",
	CodeStreamedMembersCannotBeTagged:             "StreamedMembersCannotBeTagged",

	CodeDuplicateFile:       "DuplicateFile",
	CodeIncorrectDocComment: "IncorrectDocComment",
	CodeMalformedDocComment: "MalformedDocComment",
	CodeDeprecated:          "Deprecated",
}

var lintsByName = func() map[string]Code {
	out := make(map[string]Code)
	for code, name := range codeNames {
		if code.Kind() == KindLint {
			out[name] = code
		}
	}
	return out
}()

// LintByName looks up a lint by the name used in `allow(...)` attributes.
func LintByName(name string) (Code, bool) {
	code, ok := lintsByName[name]
	return code, ok
}

func (c Code) Kind() Kind {
	if c >= 4000 {
		return KindLint
	}
	return KindError
}

// ID is the short code printed alongside messages, e.g. "E2002".
func (c Code) ID() string {
	if c.Kind() == KindLint {
		return fmt.Sprintf("L%d", uint16(c))
	}
	return fmt.Sprintf("E%d", uint16(c))
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint16(c))
}

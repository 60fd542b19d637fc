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

func IO(action, path string, err error) *Diagnostic {
	return newDiagnostic(CodeIO, "unable to %s '%s': %v", action, path, err)
}

func Syntax(message string) *Diagnostic {
	return newDiagnostic(CodeSyntax, "%s", message)
}

func Redefinition(identifier string) *Diagnostic {
	return newDiagnostic(CodeRedefinition, "redefinition of '%s'", identifier)
}

func ReturnTuplesMustContainAtLeastTwoElements() *Diagnostic {
	return newDiagnostic(
		CodeReturnTuplesMustContainAtLeastTwoElements,
		"return tuples must have at least 2 elements",
	)
}

func StreamedMembersMustBeLast(identifier string) *Diagnostic {
	return newDiagnostic(
		CodeStreamedMembersMustBeLast,
		"invalid parameter '%s': only the last parameter in an operation can use the stream modifier",
		identifier,
	)
}

func MultipleStreamedMembers() *Diagnostic {
	return newDiagnostic(
		CodeMultipleStreamedMembers,
		"cannot have multiple streamed members",
	)
}

func ExceptionSpecificationNotSupported() *Diagnostic {
	return newDiagnostic(
		CodeExceptionSpecificationNotSupported,
		"exception specifications are only supported by the Slice1 mode",
	)
}

func NotSupportedWithEncoding(kind, identifier, mode string) *Diagnostic {
	return newDiagnostic(
		CodeNotSupportedWithEncoding,
		"%s '%s' is not supported by the %s encoding",
		kind, identifier, mode,
	)
}

func UnsupportedType(typeString, mode string) *Diagnostic {
	return newDiagnostic(
		CodeUnsupportedType,
		"the type '%s' is not supported by the %s encoding",
		typeString, mode,
	)
}

func TypeMismatch(expected, actual string) *Diagnostic {
	return newDiagnostic(
		CodeTypeMismatch,
		"type mismatch: expected %s but found %s",
		withArticle(expected), withArticle(actual),
	)
}

func DoesNotExist(identifier string) *Diagnostic {
	return newDiagnostic(
		CodeDoesNotExist,
		"no element with identifier '%s' exists",
		identifier,
	)
}

func TooManyArguments(directive string, max int) *Diagnostic {
	return newDiagnostic(
		CodeTooManyArguments,
		"too many arguments, '%s' accepts at most %d",
		directive, max,
	)
}

func MissingRequiredArgument(argument string) *Diagnostic {
	return newDiagnostic(
		CodeMissingRequiredArgument,
		"missing required argument '%s'",
		argument,
	)
}

func ArgumentNotSupported(argument, directive string) *Diagnostic {
	return newDiagnostic(
		CodeArgumentNotSupported,
		"argument '%s' is not supported by '%s'",
		argument, directive,
	)
}

func UnexpectedAttribute(directive string) *Diagnostic {
	return newDiagnostic(
		CodeUnexpectedAttribute,
		"unexpected attribute '%s'",
		directive,
	)
}

func TaggedMemberMustBeOptional(identifier string) *Diagnostic {
	return newDiagnostic(
		CodeTaggedMemberMustBeOptional,
		"invalid tag on member '%s': tagged members must be optional",
		identifier,
	)
}

func CannotHaveDuplicateTag(identifier string) *Diagnostic {
	return newDiagnostic(
		CodeCannotHaveDuplicateTag,
		"invalid tag on member '%s': tags must be unique",
		identifier,
	)
}

func CompactIdOutOfBounds() *Diagnostic {
	return newDiagnostic(
		CodeCompactIdOutOfBounds,
		"compact IDs must be within the range 0 <= ID <= 2147483647",
	)
}

func InvalidEncodingMode(mode string) *Diagnostic {
	return newDiagnostic(
		CodeInvalidEncodingMode,
		"'%s' is not a valid mode, expected 'Slice1' or 'Slice2'",
		mode,
	)
}

func EnumeratorValueOutOfBounds(enumerator string, value, min, max int64) *Diagnostic {
	return newDiagnostic(
		CodeEnumeratorValueOutOfBounds,
		"invalid enumerator '%s': enumerator value '%d' is out of bounds. The value must be between '%d..%d', inclusive",
		enumerator, value, min, max,
	)
}

func DuplicateEnumeratorValue(value int64) *Diagnostic {
	return newDiagnostic(
		CodeDuplicateEnumeratorValue,
		"enumerator values must be unique; the value '%d' is already in use",
		value,
	)
}

func MustContainEnumerators(enum string) *Diagnostic {
	return newDiagnostic(
		CodeMustContainEnumerators,
		"invalid enum '%s': enums must contain at least one enumerator",
		enum,
	)
}

func KeyTypeNotSupported(kind string) *Diagnostic {
	return newDiagnostic(
		CodeKeyTypeNotSupported,
		"invalid dictionary key type: %s",
		kind,
	)
}

func SelfReferentialTypeAlias(identifier string) *Diagnostic {
	return newDiagnostic(
		CodeSelfReferentialTypeAlias,
		"self-referential type alias '%s' has no concrete type",
		identifier,
	)
}

func StreamedMembersCannotBeTagged(identifier string) *Diagnostic {
	return newDiagnostic(
		CodeStreamedMembersCannotBeTagged,
		"invalid tag on member '%s': streamed members cannot be tagged",
		identifier,
	)
}

func withArticle(noun string) string {
	if noun == "" {
		return noun
	}
	switch noun[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an " + noun
	}
	return "a " + noun
}

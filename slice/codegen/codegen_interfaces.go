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

package codegen

import (
	"fmt"
	"strings"

	"github.com/externl/slicec/slice/grammar"
)

// Interfaces {{{

func (g *generator) visitInterface(i *grammar.Interface) {
	name := typeName(i)

	container := NewContainerBuilder("interface", name).AddComment(g.doc(i)...)
	for _, base := range i.Bases {
		container.AddMember("%s", g.qualify(base, "", ""))
	}
	for _, op := range i.Operations {
		for _, line := range g.operationDoc(op) {
			container.AddMember("%s", strings.TrimSpace("// "+line))
		}
		container.AddMember("%s", g.methodSignature(i, op))
	}
	g.add(container.Build())

	proxy := NewContainerBuilder("struct", name+"Proxy").
		AddComment(fmt.Sprintf("%sProxy is a reference to a remote %s.", name, name)).
		AddMember("%s", g.rt("Proxy"))
	g.add(proxy.Build())

	newProxy := NewFunctionBuilder("New"+name+"Proxy").
		AddParameter("path", "string").
		AddResult(name + "Proxy")
	newProxy.Body().Linef("return %sProxy{Proxy: %s{Path: path}}", name, g.rt("Proxy"))
	g.add(newProxy.Build())

	for _, op := range i.Operations {
		g.operationPayloads(i, op)
		if op.HasEncodedResult() {
			g.encodedReturnValue(i, op)
		}
	}
}

func (g *generator) operationDoc(op *grammar.Operation) []string {
	lines := g.doc(op)
	if thrown := op.Thrown(); len(thrown) > 0 {
		names := make([]string, len(thrown))
		for ii, e := range thrown {
			names[ii] = "*" + g.qualify(e, "", "")
		}
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, fmt.Sprintf("%s may fail with %s.", exportedName(op.Ident), strings.Join(names, ", ")))
	}
	return lines
}

// memberType is the Go type of a parameter or return member. A streamed
// member is a sequence of values produced over time.
func (g *generator) memberType(p *grammar.Parameter) string {
	if p.IsStreamed {
		g.use("iter")
		return fmt.Sprintf("iter.Seq[%s]", g.goType(p.DataType))
	}
	return g.goType(p.DataType)
}

func (g *generator) methodSignature(i *grammar.Interface, op *grammar.Operation) string {
	g.use("context")
	params := []string{"ctx context.Context"}
	names := paramNames(parameterIdents(op.Parameters))
	for ii, p := range op.Parameters {
		params = append(params, names[ii]+" "+g.memberType(p))
	}

	var results []string
	switch {
	case op.HasEncodedResult():
		results = append(results, encodedReturnValueName(i, op))
	case !op.IsOneway():
		for _, p := range op.ReturnMembers {
			results = append(results, g.memberType(p))
		}
	}
	results = append(results, "error")

	signature := fmt.Sprintf("%s(%s)", exportedName(op.Ident), strings.Join(params, ", "))
	if len(results) == 1 {
		return signature + " " + results[0]
	}
	return fmt.Sprintf("%s (%s)", signature, strings.Join(results, ", "))
}

func parameterIdents(params []*grammar.Parameter) []string {
	out := make([]string, len(params))
	for ii, p := range params {
		out[ii] = p.Ident
	}
	return out
}

// payloadMembers returns the members of params that are encoded in a
// payload, paired with their Go names. Streamed members follow the payload
// and are not part of it.
func payloadMembers(params []*grammar.Parameter) ([]member, []*grammar.Parameter) {
	names := paramNames(parameterIdents(params))
	var members []member
	var encoded []*grammar.Parameter
	for ii, p := range params {
		if p.IsStreamed {
			continue
		}
		members = append(members, member{expr: names[ii], ref: p.DataType, tag: p.Tag})
		encoded = append(encoded, p)
	}
	return members, encoded
}

// classFormatOption returns the encoder options of a payload.
func (g *generator) classFormatOption(members []member, format grammar.ClassFormat) string {
	if !hasClasses(members) {
		return ""
	}
	if format == grammar.ClassFormatSliced {
		return fmt.Sprintf(", %s(%s)", g.rt("WithClassFormat"), g.rt("SlicedFormat"))
	}
	return fmt.Sprintf(", %s(%s)", g.rt("WithClassFormat"), g.rt("CompactFormat"))
}

func (g *generator) operationPayloads(i *grammar.Interface, op *grammar.Operation) {
	prefix := typeName(i) + exportedName(op.Ident)
	mode := op.Encoding()

	args, argParams := payloadMembers(op.Parameters)
	g.encodePayloadFunc("Encode"+prefix+"Args", "EncodePayload", args, argParams, mode, g.classFormatOption(args, op.ArgsClassFormat()))
	g.decodePayloadFunc("Decode"+prefix+"Args", args, argParams, mode)

	if op.IsOneway() || len(op.ReturnMembers) == 0 {
		return
	}
	returns, returnParams := payloadMembers(op.ReturnMembers)
	g.encodePayloadFunc("Encode"+prefix+"Return", returnPayloadHelper(returns), returns, returnParams, mode, g.classFormatOption(returns, op.ReturnClassFormat()))
	g.decodePayloadFunc("Decode"+prefix+"Return", returns, returnParams, mode)
}

// returnPayloadHelper names the runtime function that frames a response.
// A streamed return member is not part of the payload, so it is not counted.
func returnPayloadHelper(returns []member) string {
	if len(returns) == 1 {
		return "PayloadFromSingleReturnValue"
	}
	return "PayloadFromReturnValueTuple"
}

func (g *generator) encodePayloadFunc(
	name, helper string,
	members []member,
	params []*grammar.Parameter,
	mode grammar.Mode,
	options string,
) {
	fn := NewFunctionBuilder(name).AddResult("[]uint8").AddResult("error")
	for ii, m := range members {
		fn.AddParameter(m.expr, g.goType(params[ii].DataType))
	}
	body := fn.Body()
	body.open("return %s(%s, func(enc *%s) {", g.rt(helper), g.encodingName(mode), g.rt("Encoder"))
	g.encodeMembers(body, members, mode)
	body.close(fmt.Sprintf("}%s)", options))
	g.add(fn.Build())
}

func (g *generator) decodePayloadFunc(name string, members []member, params []*grammar.Parameter, mode grammar.Mode) {
	fn := NewFunctionBuilder(name).AddParameter("payload", "[]uint8")
	for ii, m := range members {
		fn.AddResult(m.expr + " " + g.goType(params[ii].DataType))
	}
	fn.AddResult("err error")
	body := fn.Body()
	body.open("err = %s(%s, payload, func(dec *%s) {", g.rt("DecodePayload"), g.encodingName(mode), g.rt("Decoder"))
	g.decodeMembers(body, members, mode)
	body.close("})")
	body.Line("return")
	g.add(fn.Build())
}

func encodedReturnValueName(i *grammar.Interface, op *grammar.Operation) string {
	return typeName(i) + exportedName(op.Ident) + "EncodedReturnValue"
}

// encodedReturnValue emits the type that lets a service encode its
// response eagerly. Responses that can contain classes always use Slice1.
func (g *generator) encodedReturnValue(i *grammar.Interface, op *grammar.Operation) {
	name := encodedReturnValueName(i, op)
	typ := NewContainerBuilder("struct", name).
		AddComment(fmt.Sprintf("%s holds the encoded response of %s.", name, exportedName(op.Ident))).
		AddMember("Payload []uint8")
	g.add(typ.Build())

	returns, returnParams := payloadMembers(op.ReturnMembers)
	helper := returnPayloadHelper(returns)

	ctor := NewFunctionBuilder("New"+name).AddResult(name).AddResult("error")
	for ii, m := range returns {
		ctor.AddParameter(m.expr, g.goType(returnParams[ii].DataType))
	}
	encoding, options := "encoding", ""
	if op.ReturnsClasses() {
		encoding = g.encodingName(grammar.Slice1)
		options = g.classFormatOption(returns, op.ReturnClassFormat())
	} else {
		ctor.AddParameter("encoding", g.rt("Encoding"))
	}

	body := ctor.Body()
	body.open("payload, err := %s(%s, func(enc *%s) {", g.rt(helper), encoding, g.rt("Encoder"))
	g.encodeMembers(body, returns, op.Encoding())
	body.close(fmt.Sprintf("}%s)", options))
	body.open("if err != nil {")
	body.Linef("return %s{}, err", name)
	body.close("}")
	body.Linef("return %s{Payload: payload}, nil", name)
	g.add(ctor.Build())
}

// }}}

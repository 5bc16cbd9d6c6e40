package erd

import (
	"context"
	"html"
	"strings"

	"github.com/duynguyendang/gerd/pkg/dstmpl"
	"github.com/duynguyendang/gerd/pkg/xmldoc"
)

// OperandKind is the closed set of operand variants found under ObjTo,
// ObjFrom, zSubject, zPredicate, GBRParam and ERPARAM.
type OperandKind int

const (
	OperandUnknown OperandKind = iota
	OperandMember
	OperandVariable
	OperandLiteral
	OperandSystemVariable
	OperandConstant
)

func (k OperandKind) String() string {
	switch k {
	case OperandMember:
		return "member"
	case OperandVariable:
		return "variable"
	case OperandLiteral:
		return "literal"
	case OperandSystemVariable:
		return "system_variable"
	case OperandConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// Operand element names.
const (
	TagMember         = "DSOBJMember"
	TagVariable       = "DSOBJVariable"
	TagLiteral        = "DSOBJLiteral"
	TagSystemVariable = "DSOBJSystemVariable"
	TagConstant       = "DSOBJConstant"
)

var operandKinds = map[string]OperandKind{
	TagMember:         OperandMember,
	TagVariable:       OperandVariable,
	TagLiteral:        OperandLiteral,
	TagSystemVariable: OperandSystemVariable,
	TagConstant:       OperandConstant,
}

// Operand is a classified operand element. Node is nil for OperandUnknown
// when the container held no operand at all.
type Operand struct {
	Kind OperandKind
	Node *xmldoc.Node
}

// ClassifyOperand maps an element to its variant.
func ClassifyOperand(n *xmldoc.Node) Operand {
	if n == nil {
		return Operand{Kind: OperandUnknown}
	}
	return Operand{Kind: operandKinds[n.Name], Node: n}
}

// operandIn returns the first operand element inside container, searching
// depth-first.
func operandIn(container *xmldoc.Node) Operand {
	var found *xmldoc.Node
	container.Walk(func(n *xmldoc.Node) bool {
		if found != nil {
			return false
		}
		if n != container {
			if _, ok := operandKinds[n.Name]; ok {
				found = n
				return false
			}
		}
		return true
	})
	return ClassifyOperand(found)
}

// Qualifier tokens that prefix legacy operand text.
const (
	QualifierBusinessFunction = "BF"
	QualifierVariable         = "VA"
	QualifierSystemVariable   = "SV"
	QualifierConstant         = "CO"
)

// SplitQualifier splits a leading "BF ", "VA ", "SV " or "CO " token from
// text. qualifier is empty when text carries none, and rest is then text.
func SplitQualifier(text string) (qualifier, rest string) {
	if len(text) < 3 || text[2] != ' ' {
		return "", text
	}
	switch q := text[:2]; q {
	case QualifierBusinessFunction, QualifierVariable, QualifierSystemVariable, QualifierConstant:
		return q, strings.TrimLeft(text[3:], " ")
	}
	return "", text
}

// withQualifier prefixes label with the qualifier found in fallback, if any.
func withQualifier(fallback, label string) string {
	if q, _ := SplitQualifier(fallback); q != "" {
		return q + " " + label
	}
	return label
}

// resolveOperand renders an operand. fallback is the caller's raw text for
// it, used whenever no structured lookup succeeds. hint overrides the text
// shown after SV/CO qualifiers. decodeLiteral enables entity decoding of
// literal text.
func (d *Decompiler) resolveOperand(ctx context.Context, op Operand, fallback, hint string, decodeLiteral bool) string {
	switch op.Kind {
	case OperandMember:
		return d.resolveMember(ctx, op.Node, fallback)
	case OperandVariable:
		return d.resolveVariable(op.Node, fallback)
	case OperandLiteral:
		return resolveLiteral(fallback, decodeLiteral)
	case OperandSystemVariable:
		return resolveQualified(QualifierSystemVariable, op.Node, fallback, hint)
	case OperandConstant:
		return resolveQualified(QualifierConstant, op.Node, fallback, hint)
	case OperandUnknown:
		return fallback
	}
	return fallback
}

func (d *Decompiler) resolveMember(ctx context.Context, n *xmldoc.Node, fallback string) string {
	it, ok := d.lookupMember(ctx, n)
	if !ok {
		d.logger.Debug("unresolved template member", "idItem", n.Attr("idItem"), "template", n.Attr("szTmplName"))
		return fallback
	}
	return withQualifier(fallback, it.Label())
}

// lookupMember resolves a member reference. A member that names another
// template is resolved there only; item ids are not unique across templates.
func (d *Decompiler) lookupMember(ctx context.Context, n *xmldoc.Node) (dstmpl.Item, bool) {
	id := n.Attr("idItem")
	if name := n.Attr("szTmplName"); name != "" {
		return d.template(ctx, name).TryGetItem(id)
	}
	return d.primary.TryGetItem(id)
}

func (d *Decompiler) resolveVariable(n *xmldoc.Node, fallback string) string {
	v, ok := d.vars.Resolve(n.Attr("idVariable"))
	if !ok {
		d.logger.Debug("unresolved event variable", "idVariable", n.Attr("idVariable"))
		return fallback
	}
	return withQualifier(fallback, v.DisplayName)
}

// variableAlias returns the alias of a variable operand, from the table or
// from the reference itself.
func (d *Decompiler) variableAlias(n *xmldoc.Node) string {
	if v, ok := d.vars.Resolve(n.Attr("idVariable")); ok && v.Alias != "" {
		return v.Alias
	}
	return n.Attr("szDict")
}

func resolveLiteral(text string, decode bool) string {
	if decode {
		return html.UnescapeString(text)
	}
	return text
}

func resolveQualified(qualifier string, n *xmldoc.Node, fallback, hint string) string {
	text := hint
	if text == "" {
		_, text = SplitQualifier(fallback)
	}
	if text == "" {
		text = n.Attr("szName", "szVarName", "idSysVar", "idConstant", "szValue")
	}
	return qualifier + " " + text
}

// Literal value element names under DSOBJLiteral.
const (
	TagLiteralString  = "LiteralString"
	TagLiteralNumeric = "LiteralNumeric"
)

// literalValue reads a literal's value from its own element. String literals
// are quoted.
func literalValue(n *xmldoc.Node) string {
	if v := n.Attr("szValue"); v != "" {
		return v
	}
	inner := n.FirstChild()
	if inner == nil {
		return strings.TrimSpace(n.Text)
	}
	v := inner.Attr("szValue", "value")
	if v == "" {
		v = strings.TrimSpace(inner.Text)
	}
	if inner.Name == TagLiteralString {
		return `"` + v + `"`
	}
	return v
}

// operandText is the raw label of an operand taken from its own element,
// used where no description text exists (parameter lists).
func operandText(op Operand) string {
	n := op.Node
	switch op.Kind {
	case OperandMember:
		if alias := n.Attr("szDict"); alias != "" {
			return alias
		}
		return "#" + n.Attr("idItem")
	case OperandVariable:
		if alias := n.Attr("szDict"); alias != "" {
			return QualifierVariable + " " + alias
		}
		return QualifierVariable + " #" + n.Attr("idVariable")
	case OperandLiteral:
		return literalValue(n)
	case OperandSystemVariable, OperandConstant:
		return n.Attr("szName", "szVarName", "idSysVar", "idConstant", "szValue")
	case OperandUnknown:
		if n != nil {
			return n.Attr("szName", "szDict")
		}
	}
	return ""
}

// paramLabel renders a parameter-side operand.
func (d *Decompiler) paramLabel(ctx context.Context, op Operand) string {
	return d.resolveOperand(ctx, op, operandText(op), "", true)
}

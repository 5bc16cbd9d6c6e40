package erd

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/duynguyendang/gerd/pkg/xmldoc"
)

// formatAssignment renders a GBRASSIGN node from its "target=value" hint and
// its ObjTo / ObjFrom operands.
func (d *Decompiler) formatAssignment(ctx context.Context, n *xmldoc.Node) string {
	target, value := splitAssignHint(n.Attr(AttrAssignTxt))
	return d.assignTarget(ctx, operandIn(n.Child("ObjTo")), target) +
		d.assignValue(ctx, operandIn(n.Child("ObjFrom")), value)
}

func splitAssignHint(hint string) (target, value string) {
	target, value, _ = strings.Cut(hint, "=")
	return strings.TrimSpace(target), strings.TrimSpace(value)
}

func (d *Decompiler) assignTarget(ctx context.Context, op Operand, target string) string {
	if alias := d.operandAlias(ctx, op); alias != "" {
		return fmt.Sprintf("%s [%s] = ", target, alias)
	}
	return target + " = "
}

func (d *Decompiler) assignValue(ctx context.Context, op Operand, value string) string {
	if op.Kind == OperandLiteral {
		return html.UnescapeString(value)
	}
	if alias := d.operandAlias(ctx, op); alias != "" {
		return fmt.Sprintf("%s [%s]", value, alias)
	}
	return value
}

// operandAlias returns the data dictionary alias behind a member or variable
// operand, or "" for other variants and failed lookups.
func (d *Decompiler) operandAlias(ctx context.Context, op Operand) string {
	switch op.Kind {
	case OperandMember:
		if it, ok := d.lookupMember(ctx, op.Node); ok {
			return it.Alias
		}
	case OperandVariable:
		return d.variableAlias(op.Node)
	case OperandLiteral, OperandSystemVariable, OperandConstant, OperandUnknown:
	}
	return ""
}

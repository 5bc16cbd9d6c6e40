package erd

import (
	"context"
	"fmt"
	"strings"

	"github.com/duynguyendang/gerd/pkg/xmldoc"
)

func bizFuncArrow(copyWord string) string {
	switch strings.ToUpper(strings.TrimSpace(copyWord)) {
	case CopyOut:
		return "<-"
	case CopyInOut:
		return "<->"
	default:
		return "->"
	}
}

// businessFunction emits a sub-routine call header and one line per ERPARAM.
// Without a resolver it emits nothing.
func (d *Decompiler) businessFunction(ctx context.Context, n *xmldoc.Node) {
	if d.resolver == nil {
		return
	}

	fn := n.Attr("szFuncName")
	tmplName := n.Attr("szTmplName")

	object, err := d.resolver.BusinessFunctionName(ctx, tmplName)
	if err != nil || object == "" {
		d.logger.Debug("business function object unresolved", "template", tmplName, "error", err)
		object = tmplName
	}
	d.emit(fmt.Sprintf("%s(%s.%s)", fn, object, fn))

	callee := d.template(ctx, tmplName)
	for _, p := range n.FindAll("ERPARAM") {
		caller := d.paramLabel(ctx, operandIn(p))
		id := p.Attr("idItem")
		name := id
		if it, ok := callee.TryGetItem(id); ok {
			name = it.Label()
		}
		d.emitNested(fmt.Sprintf("%s %s %s", caller, bizFuncArrow(p.Attr("wCopyWord")), name))
	}
}

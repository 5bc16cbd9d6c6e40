package erd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/duynguyendang/gerd/pkg/xmldoc"
)

// File I/O operation codes.
const (
	OpFetchSingle = "FETCH_SINGLE"
	OpFetchNext   = "FETCH_NEXT"
	OpSelect      = "SELECT"
	OpDelete      = "DELETE"
	OpUpdate      = "UPDATE"
	OpInsert      = "INSERT"
)

var operationNames = map[string]string{
	OpFetchSingle: "FetchSingle",
	OpFetchNext:   "FetchNext",
	OpSelect:      "Select",
	OpDelete:      "Delete",
	OpUpdate:      "Update",
	OpInsert:      "Insert",
}

// OperationName maps an operation code to its display name. Unknown codes
// are shown with underscores removed.
func OperationName(code string) string {
	if name, ok := operationNames[strings.ToUpper(code)]; ok {
		return name
	}
	return strings.ReplaceAll(code, "_", "")
}

// Copy words on parameters.
const (
	CopyIn    = "IN"
	CopyOut   = "OUT"
	CopyInOut = "INOUT"
)

func fileIOArrow(copyWord string) string {
	switch strings.ToUpper(strings.TrimSpace(copyWord)) {
	case CopyIn:
		return "->"
	case CopyOut:
		return "<-"
	default:
		return "="
	}
}

// fileIO emits a table I/O header and one line per GBRParam. Without a
// resolver it emits nothing.
func (d *Decompiler) fileIO(ctx context.Context, n *xmldoc.Node) {
	if d.resolver == nil {
		return
	}

	table := n.Attr("szFileName", "szTable")
	if fio := n.Find("DSOBJFileIO"); fio != nil {
		if t := fio.Attr("szFileName", "szTable"); t != "" {
			table = t
		}
	}

	header := table + "." + OperationName(n.Attr("operation"))
	if idx := strings.TrimSpace(n.Attr("indexId")); idx != "" {
		if keys := d.indexKeys(ctx, table, idx); len(keys) > 0 {
			header += fmt.Sprintf(" Index %s: %s", idx, strings.Join(keys, ", "))
		}
	}
	d.emit(header)

	params := n.FindAll("GBRParam")
	items := make([]string, 0, len(params))
	for _, p := range params {
		if item := p.Find("DSItem").Attr("szDict", "szDataItem"); item != "" {
			items = append(items, item)
		}
	}
	titles := d.dataDictionaryTitles(ctx, items)

	for _, p := range params {
		source := d.paramLabel(ctx, operandIn(p))
		item := p.Find("DSItem").Attr("szDict", "szDataItem")
		title := titles[item]
		if title == "" {
			title = item
		}
		column := fmt.Sprintf("%s [%s]", title, item)
		d.emitNested(fmt.Sprintf("%s %s %s", source, fileIOArrow(p.Attr("wCopyWord")), column))
	}
}

func (d *Decompiler) indexKeys(ctx context.Context, table, indexID string) []string {
	id, err := strconv.Atoi(indexID)
	if err != nil {
		return nil
	}
	indexes, err := d.resolver.TableIndexes(ctx, table)
	if err != nil {
		d.logger.Debug("table indexes lookup failed", "table", table, "error", err)
		return nil
	}
	for _, ix := range indexes {
		if ix.ID == id {
			return ix.KeyColumns
		}
	}
	return nil
}

func (d *Decompiler) dataDictionaryTitles(ctx context.Context, items []string) map[string]string {
	if len(items) == 0 {
		return nil
	}
	titles, err := d.resolver.DataDictionaryTitles(ctx, items)
	if err != nil {
		d.logger.Debug("data dictionary lookup failed", "items", len(items), "error", err)
		return nil
	}
	return titles
}

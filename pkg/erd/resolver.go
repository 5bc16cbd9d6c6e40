package erd

import (
	"context"

	"github.com/duynguyendang/gerd/pkg/dstmpl"
)

// IndexInfo describes one index of a table.
type IndexInfo struct {
	ID         int      `json:"id" yaml:"id"`
	KeyColumns []string `json:"key_columns" yaml:"key_columns"`
}

// SpecResolver answers the metadata questions the decompiler cannot answer
// from the event and template documents alone. Calls may block; the
// decompiler makes each call once and treats any error as a miss.
type SpecResolver interface {
	// DataStructureTemplate returns the named template.
	DataStructureTemplate(ctx context.Context, name string) (*dstmpl.Template, error)
	// TableIndexes returns the indexes defined for a table.
	TableIndexes(ctx context.Context, table string) ([]IndexInfo, error)
	// DataDictionaryTitles returns display titles for data items. Items with
	// no title are absent from the result.
	DataDictionaryTitles(ctx context.Context, items []string) (map[string]string, error)
	// BusinessFunctionName returns the object (source module) name of the
	// business function whose parameter template is templateName.
	BusinessFunctionName(ctx context.Context, templateName string) (string, error)
}

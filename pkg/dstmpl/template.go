// Package dstmpl indexes data structure templates: the named field lists that
// event rules reference by numeric item id.
package dstmpl

import (
	"fmt"
	"strconv"

	"github.com/duynguyendang/gerd/pkg/common/errors"
	"github.com/duynguyendang/gerd/pkg/xmldoc"
)

// Attribute names used by the template document.
const (
	AttrTemplateName = "szTmplName"
	AttrDescription  = "szDesc"
	AttrItemID       = "idItem"
	AttrItemIDAlt    = "idItemID"
	AttrAlias        = "szDict"
	AttrItemName     = "szItemName"
	AttrItemNameAlt  = "szName"
	AttrDisplaySeq   = "idDisplaySeq"
	AttrDisplaySeqV2 = "wDisplaySeq"
	AttrCopyWord     = "wCopyWord"
)

// Item is one field of a template.
type Item struct {
	ID         string `json:"id" yaml:"id"`
	Alias      string `json:"alias" yaml:"alias"`
	Name       string `json:"name" yaml:"name"`
	DisplaySeq int    `json:"display_seq" yaml:"display_seq"`
	CopyWord   string `json:"copy_word,omitempty" yaml:"copy_word,omitempty"`
}

// Label formats the item the way it is shown in decompiled lines.
func (i Item) Label() string {
	return fmt.Sprintf("%s [%s]", i.Name, i.Alias)
}

// Template is a parsed data structure template. It is immutable after Parse.
type Template struct {
	Name        string
	Description string
	items       map[string]Item
	order       []string
}

// TryGetItem looks up an item by its exact id.
func (t *Template) TryGetItem(id string) (Item, bool) {
	if t == nil {
		return Item{}, false
	}
	it, ok := t.items[id]
	return it, ok
}

// Items returns the items in document order.
func (t *Template) Items() []Item {
	out := make([]Item, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.items[id])
	}
	return out
}

// Len returns the number of distinct items.
func (t *Template) Len() int {
	return len(t.order)
}

// Parse builds a Template from its XML document. name only labels errors; the
// template's own name comes from the szTmplName attribute.
func Parse(name string, data []byte) (*Template, error) {
	root, err := xmldoc.Parse(data)
	if err != nil {
		return nil, errors.NewMalformed(name, "template", fmt.Errorf("%w: %v", errors.ErrMalformedTemplate, err))
	}
	return FromNode(name, root)
}

// FromNode builds a Template from an already parsed document root.
func FromNode(name string, root *xmldoc.Node) (*Template, error) {
	top := root
	if !root.HasAttr(AttrTemplateName) {
		top = root.FirstChild()
	}
	if top == nil {
		return nil, errors.NewMalformed(name, "no template root element", errors.ErrMalformedTemplate)
	}
	tmplName := top.Attr(AttrTemplateName)
	if tmplName == "" {
		return nil, errors.NewMalformed(name, "template root has no "+AttrTemplateName, errors.ErrMalformedTemplate)
	}

	t := &Template{
		Name:        tmplName,
		Description: top.Attr(AttrDescription),
		items:       make(map[string]Item),
	}
	top.Walk(func(n *xmldoc.Node) bool {
		if n == top {
			return true
		}
		id := n.Attr(AttrItemID, AttrItemIDAlt)
		if id == "" {
			return true
		}
		if _, dup := t.items[id]; dup {
			return true
		}
		seq, _ := strconv.Atoi(n.Attr(AttrDisplaySeq, AttrDisplaySeqV2))
		t.items[id] = Item{
			ID:         id,
			Alias:      n.Attr(AttrAlias),
			Name:       n.Attr(AttrItemName, AttrItemNameAlt),
			DisplaySeq: seq,
			CopyWord:   n.Attr(AttrCopyWord),
		}
		t.order = append(t.order, id)
		return true
	})
	return t, nil
}

// New assembles a template from items, e.g. when it is rehydrated from a
// catalog rather than parsed. Duplicate ids keep the first item.
func New(name, description string, items []Item) *Template {
	t := &Template{Name: name, Description: description, items: make(map[string]Item, len(items))}
	for _, it := range items {
		if _, dup := t.items[it.ID]; dup {
			continue
		}
		t.items[it.ID] = it
		t.order = append(t.order, it.ID)
	}
	return t
}

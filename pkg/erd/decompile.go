// Package erd decompiles event rules into readable pseudocode.
//
// An event rule arrives as an XML tree of GBR* elements plus the XML of the
// data structure template it is bound to. The Decompiler replays the tree in
// document order, resolving template members, event variables, literals and
// system values into display labels, and tracks If/While nesting as indent:
//
//	d := erd.New(resolver)
//	res, err := d.Decompile(ctx, [][]byte{eventXML}, templateXML)
//	if err != nil {
//	    return err
//	}
//	fmt.Print(res.ReadableText)
//
// Only structurally broken documents produce errors. Anything that cannot be
// resolved falls back to the raw text carried by the document.
package erd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/duynguyendang/gerd/pkg/common/errors"
	"github.com/duynguyendang/gerd/pkg/dstmpl"
	"github.com/duynguyendang/gerd/pkg/xmldoc"
)

// Result is the output of one decompile call.
type Result struct {
	RootEventSpecKey string `json:"root_event_spec_key"`
	ReadableText     string `json:"readable_text"`
	TemplateName     string `json:"template_name"`
	Lines            []Line `json:"lines"`
}

// Decompiler holds the state of one replay. It is not safe for concurrent
// use; run one Decompiler per goroutine and share the template cache instead.
type Decompiler struct {
	resolver  SpecResolver
	templates *dstmpl.Cache
	logger    *slog.Logger

	primary *dstmpl.Template
	vars    *VariableTable
	out     LineBuffer
	indent  int
}

// Option configures a Decompiler.
type Option func(*Decompiler)

// WithTemplateCache shares a template cache between decompilers.
func WithTemplateCache(c *dstmpl.Cache) Option {
	return func(d *Decompiler) {
		if c != nil {
			d.templates = c
		}
	}
}

// WithLogger sets the logger used for resolution misses.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decompiler) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Decompiler. resolver may be nil, in which case table I/O and
// business function calls produce no output and cross-template members fall
// back to their raw text.
func New(resolver SpecResolver, opts ...Option) *Decompiler {
	d := &Decompiler{
		resolver: resolver,
		logger:   slog.Default(),
		vars:     NewVariableTable(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.templates == nil {
		d.templates = dstmpl.NewCache(dstmpl.DefaultCacheSize)
	}
	return d
}

// Reset clears indent, output, variables and the primary template. The
// template cache is kept.
func (d *Decompiler) Reset() {
	d.indent = 0
	d.out.reset()
	d.vars.reset()
	d.primary = nil
}

// Indent returns the current nesting depth.
func (d *Decompiler) Indent() int {
	return d.indent
}

// Decompile replays one or more event documents against the template
// document. Documents without payload are skipped; if none has payload the
// result is empty. The root event spec key is taken from the first
// non-empty document.
func (d *Decompiler) Decompile(ctx context.Context, events [][]byte, templateXML []byte) (*Result, error) {
	d.Reset()
	res := &Result{}

	if !xmldoc.IsBlank(templateXML) {
		tmpl, err := dstmpl.Parse("template", templateXML)
		if err != nil {
			return nil, err
		}
		d.primary = tmpl
		res.TemplateName = tmpl.Name
	}

	for i, data := range events {
		if xmldoc.IsBlank(data) {
			continue
		}
		doc := fmt.Sprintf("event[%d]", i)
		root, err := xmldoc.Parse(data)
		if err != nil {
			return nil, errors.NewMalformed(doc, "event rule", err)
		}
		key := eventKey(root)
		if key == "" {
			return nil, errors.NewMalformed(doc, "no "+AttrEventKey+" on root", errors.ErrMissingEventKey)
		}
		if res.RootEventSpecKey == "" {
			res.RootEventSpecKey = key
		}
		d.replay(ctx, root)
	}

	if d.indent != 0 {
		d.logger.Debug("unbalanced blocks", "event", res.RootEventSpecKey, "indent", d.indent)
	}
	res.Lines = d.out.Lines()
	res.ReadableText = d.out.String()
	return res, nil
}

// Decompile is a convenience wrapper for a single event document.
func Decompile(ctx context.Context, eventXML, templateXML []byte, resolver SpecResolver) (*Result, error) {
	return New(resolver).Decompile(ctx, [][]byte{eventXML}, templateXML)
}

// eventKey reads the event spec key from the root element, or from its
// GBREvent marker child.
func eventKey(root *xmldoc.Node) string {
	if key := root.Attr(AttrEventKey); key != "" {
		return key
	}
	return root.Child(TagEvent).Attr(AttrEventKey)
}

// template returns a named template: the primary one when the name matches
// it, otherwise from the cache, loading it through the resolver on a miss.
// The primary template stays pass-local and is never added to the cache. It
// returns nil when the template is unavailable.
func (d *Decompiler) template(ctx context.Context, name string) *dstmpl.Template {
	if name == "" {
		return nil
	}
	if d.primary != nil && strings.EqualFold(name, d.primary.Name) {
		return d.primary
	}
	t, err := d.templates.GetOrLoad(name, func() (*dstmpl.Template, error) {
		if d.resolver == nil {
			return nil, fmt.Errorf("template %s: %w", name, errors.ErrNotFound)
		}
		return d.resolver.DataStructureTemplate(ctx, name)
	})
	if err != nil {
		d.logger.Debug("template unavailable", "template", name, "error", err)
		return nil
	}
	return t
}

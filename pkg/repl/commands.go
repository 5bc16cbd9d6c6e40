package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/duynguyendang/gerd/pkg/service"
)

// HandleLoad executes "load <event.xml> [template.xml]".
func HandleLoad(ctx context.Context, w io.Writer, svc *service.DecompileService, sess *Session, arg string) {
	fields := strings.Fields(arg)
	if len(fields) == 0 || len(fields) > 2 {
		fmt.Fprintln(w, "Usage: load <event.xml> [template.xml]")
		return
	}

	event, err := os.ReadFile(fields[0])
	if err != nil {
		fmt.Fprintf(w, "❌ Failed to read event: %v\n", err)
		return
	}
	req := service.DecompileRequest{
		Environment: sess.Environment,
		Events:      []string{string(event)},
	}
	if len(fields) == 2 {
		tmpl, err := os.ReadFile(fields[1])
		if err != nil {
			fmt.Fprintf(w, "❌ Failed to read template: %v\n", err)
			return
		}
		req.TemplateXML = string(tmpl)
		sess.TemplatePath = fields[1]
	}

	res, err := svc.Decompile(ctx, req)
	if err != nil {
		fmt.Fprintf(w, "❌ Decompile failed: %v\n", err)
		return
	}
	sess.EventPath = fields[0]
	sess.LastResult = res
	fmt.Fprintf(w, "✅ Event %s: %d lines\n", res.RootEventSpecKey, len(res.Lines))
}

// HandleShow prints the last decompile output.
func HandleShow(w io.Writer, sess *Session) {
	if !sess.HasResult() {
		fmt.Fprintln(w, "Nothing loaded. Use: load <event.xml> [template.xml]")
		return
	}
	res := sess.LastResult
	fmt.Fprintf(w, "📄 Event: %s  Template: %s\n", res.RootEventSpecKey, res.TemplateName)
	if len(res.Lines) == 0 {
		fmt.Fprintln(w, "[No lines]")
		return
	}
	fmt.Fprint(w, res.ReadableText)
}

// HandleFind searches the session environment's templates.
func HandleFind(w io.Writer, svc *service.DecompileService, sess *Session, query string) {
	if query == "" {
		fmt.Fprintln(w, "Usage: find <template name>")
		return
	}
	matches, err := svc.ListTemplates(sess.Environment, query, service.DefaultSuggestLimit)
	if err != nil {
		fmt.Fprintf(w, "❌ Search failed: %v\n", err)
		return
	}
	if len(matches) == 0 {
		fmt.Fprintln(w, "📭 [No templates]")
		return
	}
	for _, m := range matches {
		fmt.Fprintf(w, "- %s (%.2f)\n", m.Name, m.Score)
	}
}

// HandleTemplate prints the items of a catalog template.
func HandleTemplate(ctx context.Context, w io.Writer, svc *service.DecompileService, sess *Session, name string) {
	if name == "" {
		fmt.Fprintln(w, "Usage: template <name>")
		return
	}
	view, err := svc.GetTemplate(ctx, sess.Environment, name)
	if err != nil {
		fmt.Fprintf(w, "❌ Failed to get template: %v\n", err)
		return
	}
	fmt.Fprintf(w, "📄 %s %s\n", view.Name, view.Description)
	for _, it := range view.Items {
		fmt.Fprintf(w, "  %s\t%s [%s]\n", it.ID, it.Name, it.Alias)
	}
}

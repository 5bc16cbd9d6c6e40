package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/duynguyendang/gerd/pkg/service"
)

const help = `Commands:
  load <event.xml> [template.xml]  decompile an event rule
  show                             print the last result
  find <name>                      search templates in the environment
  template <name>                  list the items of a template
  env [name]                       show or switch the environment
  exit | quit                      leave`

// Run starts the interactive loop, reading commands from in until EOF or
// exit.
func Run(ctx context.Context, in io.Reader, out io.Writer, svc *service.DecompileService, env string) {
	fmt.Fprintln(out, "\n--- Event Rule Decompiler ---")
	if env != "" {
		fmt.Fprintf(out, "Environment: %s\n", env)
	}
	fmt.Fprintln(out, help)

	sess := NewSession(env)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "load":
			HandleLoad(ctx, out, svc, sess, arg)
		case "show":
			HandleShow(out, sess)
		case "find":
			HandleFind(out, svc, sess, arg)
		case "template":
			HandleTemplate(ctx, out, svc, sess, arg)
		case "env":
			if arg != "" {
				sess.Environment = arg
			}
			fmt.Fprintf(out, "Environment: %q\n", sess.Environment)
		case "help":
			fmt.Fprintln(out, help)
		default:
			fmt.Fprintf(out, "Unknown command %q. Type 'help'.\n", cmd)
		}
	}
}

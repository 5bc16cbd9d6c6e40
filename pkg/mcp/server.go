package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/duynguyendang/gerd/pkg/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer exposes the decompiler to MCP clients.
type MCPServer struct {
	decompiler *service.DecompileService
}

// Run starts the MCP server on Stdio.
func Run(ctx context.Context, svc *service.DecompileService) error {
	return server.ServeStdio(newServer(svc))
}

func newServer(svc *service.DecompileService) *server.MCPServer {
	s := server.NewMCPServer(
		"GERD",
		"0.1.0",
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)
	ms := &MCPServer{decompiler: svc}

	// --- Resources ---

	s.AddResource(
		mcp.NewResource(
			"erd://conventions",
			"Pseudocode Conventions",
			mcp.WithResourceDescription("How decompiled event rules are laid out"),
			mcp.WithMIMEType("text/markdown"),
		),
		ms.handleConventions,
	)

	s.AddResource(
		mcp.NewResource(
			"erd://environments",
			"Environments",
			mcp.WithResourceDescription("Catalog environments available for lookups"),
			mcp.WithMIMEType("application/json"),
		),
		ms.handleEnvironments,
	)

	// --- Tools ---

	s.AddTool(
		mcp.NewTool(
			"decompile_event_rule",
			mcp.WithDescription("Decompile an event rule XML document into indented pseudocode."),
			mcp.WithString("event_xml", mcp.Required(), mcp.Description("The event rule XML document")),
			mcp.WithString("template_xml", mcp.Description("The data structure template XML bound to the rule")),
			mcp.WithString("template_name", mcp.Description("Name of a catalog template to use when template_xml is absent")),
			mcp.WithString("environment", mcp.Description("Catalog environment used for table, dictionary and business function lookups")),
		),
		ms.handleDecompile,
	)

	s.AddTool(
		mcp.NewTool(
			"search_templates",
			mcp.WithDescription("Find data structure templates in a catalog environment by approximate name."),
			mcp.WithString("environment", mcp.Required(), mcp.Description("Catalog environment")),
			mcp.WithString("query", mcp.Required(), mcp.Description("Template name or fragment")),
			mcp.WithNumber("limit", mcp.Description("Max number of results (default 10)")),
		),
		ms.handleSearchTemplates,
	)

	return s
}

// --- Resource Handlers ---

func (ms *MCPServer) handleConventions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	content := `
# Event Rule Pseudocode Conventions

## 1. Lines
- One statement per line, indented with one tab per open If/While block.
- 'End If', 'End While' and 'Else' close the current block; 'Else' reopens it.

## 2. Operands
- Template members: 'szItemName [ALIAS]'. A leading 'BF ' is kept.
- Event variables: 'VA name [ALIAS]'.
- System values and constants: 'SV name', 'CO name'.
- String literals are quoted.

## 3. Conditions
- The first clause starts with 'If' or 'While', later clauses with 'and'/'or'.
- Comparisons read: is equal to, is not equal to, is less than or equal to,
  is greater than, is equal to or empty.

## 4. Calls
- Table I/O: 'TABLE.Operation Index N: KEY, KEY' then one parameter per line
  ('->' in, '<-' out, '=' otherwise).
- Business functions: 'Function(Object.Function)' then one parameter per line
  ('->' in, '<-' out, '<->' in/out).
`
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/markdown",
			Text:     content,
		},
	}, nil
}

func (ms *MCPServer) handleEnvironments(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	envs, err := ms.decompiler.ListEnvironments()
	if err != nil {
		return nil, err
	}
	jsonBytes, err := json.Marshal(envs)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

// --- Tool Handlers ---

func (ms *MCPServer) handleDecompile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	eventXML, ok := args["event_xml"].(string)
	if !ok || strings.TrimSpace(eventXML) == "" {
		return mcp.NewToolResultError("event_xml argument required"), nil
	}
	templateXML, _ := args["template_xml"].(string)
	templateName, _ := args["template_name"].(string)
	env, _ := args["environment"].(string)

	res, err := ms.decompiler.Decompile(ctx, service.DecompileRequest{
		Environment:  env,
		Events:       []string{eventXML},
		TemplateXML:  templateXML,
		TemplateName: templateName,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("decompile failed: %v", err)), nil
	}
	if res.ReadableText == "" {
		return mcp.NewToolResultText(fmt.Sprintf("Event %s produced no lines.", res.RootEventSpecKey)), nil
	}
	return mcp.NewToolResultText(res.ReadableText), nil
}

func (ms *MCPServer) handleSearchTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	env, _ := args["environment"].(string)
	query, ok := args["query"].(string)
	if !ok {
		return mcp.NewToolResultError("query argument required"), nil
	}

	limit := 10
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	matches, err := ms.decompiler.ListTemplates(env, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText("No templates found."), nil
	}

	formatted := make([]string, len(matches))
	for i, m := range matches {
		formatted[i] = fmt.Sprintf("%s (%.2f)", m.Name, m.Score)
	}
	return mcp.NewToolResultText(strings.Join(formatted, "\n")), nil
}

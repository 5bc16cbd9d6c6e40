package mcp

import (
	"context"
	"testing"

	"github.com/duynguyendang/gerd/pkg/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestHandleDecompile(t *testing.T) {
	ms := &MCPServer{decompiler: service.NewDecompileService(nil)}

	text, isErr := callTool(t, ms.handleDecompile, map[string]any{
		"event_xml":    `<EVENT szEventSpecKey="K"><GBRASSIGN textString="mnOrderNumber=1"><ObjTo><DSOBJMember idItem="2"/></ObjTo><ObjFrom><DSOBJLiteral><LiteralNumeric>1</LiteralNumeric></DSOBJLiteral></ObjFrom></GBRASSIGN></EVENT>`,
		"template_xml": `<DSTMPL szTmplName="T"><DSTMPLItem idItem="2" szDict="DOCO" szItemName="mnOrderNumber"/></DSTMPL>`,
	})
	assert.False(t, isErr)
	assert.Equal(t, "mnOrderNumber [DOCO] = 1\n", text)

	text, isErr = callTool(t, ms.handleDecompile, map[string]any{"event_xml": `<EVENT szEventSpecKey="K"/>`})
	assert.False(t, isErr)
	assert.Equal(t, "Event K produced no lines.", text)

	_, isErr = callTool(t, ms.handleDecompile, map[string]any{})
	assert.True(t, isErr)

	text, isErr = callTool(t, ms.handleDecompile, map[string]any{"event_xml": `<EVENT/>`})
	assert.True(t, isErr)
	assert.Contains(t, text, "decompile failed")
}

func TestHandleSearchTemplates_NoEnvironment(t *testing.T) {
	ms := &MCPServer{decompiler: service.NewDecompileService(nil)}

	text, isErr := callTool(t, ms.handleSearchTemplates, map[string]any{"query": "D42"})
	assert.True(t, isErr)
	assert.Contains(t, text, "environment is required")
}

func TestNewServer(t *testing.T) {
	assert.NotNil(t, newServer(service.NewDecompileService(nil)))
}

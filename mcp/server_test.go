package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/quotepdf"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func bundle() map[string]any {
	return map[string]any{
		"quote":    map[string]any{"quote_number": "Q-9", "currency": "USD"},
		"customer": map[string]any{"company_name": "Acme Corp"},
		"charges": []any{
			map[string]any{"description": "Ocean Freight", "amount": 2000},
			map[string]any{"description": "Carrier cost", "amount": 900, "side": "buy"},
		},
	}
}

// connect starts s on an in-memory transport and returns a client session.
func connect(t *testing.T) *sdk.ClientSession {
	t.Helper()
	engine := quotepdf.New(
		quotepdf.WithClock(func() time.Time { return fixedNow }),
		quotepdf.WithCompression(false),
	)
	s := NewServer(engine)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverTransport, clientTransport := sdk.NewInMemoryTransports()
	serverSession, err := s.SDK().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// call invokes a tool and decodes its JSON text content into out.
func call(t *testing.T, session *sdk.ClientSession, name string, args map[string]any, out any) *sdk.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &sdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	if out != nil && !res.IsError {
		require.NotEmpty(t, res.Content)
		text, ok := res.Content[0].(*sdk.TextContent)
		require.True(t, ok, "content is %T", res.Content[0])
		require.NoError(t, json.Unmarshal([]byte(text.Text), out))
	}
	return res
}

func TestListTools(t *testing.T) {
	session := connect(t)
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"build_context", "render_quote", "validate_template"}, names)
}

func TestRenderQuote(t *testing.T) {
	session := connect(t)

	var out RenderOutput
	res := call(t, session, "render_quote", map[string]any{"data": bundle()}, &out)
	require.False(t, res.IsError)

	assert.Equal(t, "quote_Q-9.pdf", out.Filename)
	assert.Equal(t, 1, out.Pages)
	assert.Equal(t, "default", out.TemplateID)
	assert.Empty(t, out.SectionErrors)

	pdf, err := base64.StdEncoding.DecodeString(out.Content)
	require.NoError(t, err)
	assert.Equal(t, out.Size, len(pdf))
	assert.Contains(t, string(pdf), "(Ocean Freight) Tj")
	assert.NotContains(t, string(pdf), "Carrier cost")
}

func TestRenderQuoteToFile(t *testing.T) {
	session := connect(t)
	path := filepath.Join(t.TempDir(), "quote.pdf")

	var out RenderOutput
	call(t, session, "render_quote", map[string]any{
		"data":        bundle(),
		"template_id": "mgl",
		"output_path": path,
	}, &out)

	assert.Equal(t, path, out.Path)
	assert.Empty(t, out.Content)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "(MIAMI GLOBAL LINES) Tj")
}

func TestRenderQuoteStrictFailure(t *testing.T) {
	session := connect(t)
	res, err := session.CallTool(context.Background(), &sdk.CallToolParams{
		Name: "render_quote",
		Arguments: map[string]any{
			"data":   map[string]any{"quote": map[string]any{"quote_number": "Q-9"}},
			"strict": true,
		},
	})
	if err == nil {
		assert.True(t, res.IsError)
	}
}

func TestValidateTemplate(t *testing.T) {
	session := connect(t)

	var ok ValidateOutput
	call(t, session, "validate_template", map[string]any{
		"template": map[string]any{"name": "Mini", "sections": []any{map[string]any{"type": "footer"}}},
	}, &ok)
	assert.True(t, ok.Valid)
	assert.Equal(t, "1.0.0", ok.Template["version"])
	cfg := ok.Template["config"].(map[string]any)
	assert.Equal(t, "A4", cfg["page_size"])

	var bad ValidateOutput
	call(t, session, "validate_template", map[string]any{
		"template": map[string]any{"sections": []any{map[string]any{"type": "dynamic_table"}}},
	}, &bad)
	assert.False(t, bad.Valid)
	assert.Contains(t, bad.Errors, "name: required")
	assert.Contains(t, bad.Errors, "sections[0].table_config: required_for_table")
}

func TestBuildContext(t *testing.T) {
	session := connect(t)

	var out ContextOutput
	call(t, session, "build_context", map[string]any{"data": bundle(), "locale": "es-ES"}, &out)

	meta := out.Context["meta"].(map[string]any)
	assert.Equal(t, "es-ES", meta["locale"])
	customer := out.Context["customer"].(map[string]any)
	assert.Equal(t, "Acme Corp", customer["name"])
	charges := out.Context["charges"].([]any)
	require.Len(t, charges, 1)
	assert.Equal(t, "Ocean Freight", charges[0].(map[string]any)["desc"])
}

func TestReadTemplateResource(t *testing.T) {
	session := connect(t)
	ctx := context.Background()

	res, err := session.ReadResource(ctx, &sdk.ReadResourceParams{URI: "template://default"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var tpl map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &tpl))
	assert.Equal(t, "Standard Quotation", tpl["name"])

	res, err = session.ReadResource(ctx, &sdk.ReadResourceParams{URI: "template://mgl"})
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "MGL")

	_, err = session.ReadResource(ctx, &sdk.ReadResourceParams{URI: "template://nope"})
	assert.Error(t, err)
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/quotepdf/delivery"
)

const bundleJSON = `{
  "quote": {"quote_number": "Q-77", "currency": "EUR"},
  "customer": {"company_name": "Acme Corp"},
  "charges": [
    {"description": "Ocean Freight", "amount": 2000},
    {"description": "Carrier cost", "amount": 900, "side": "buy"}
  ]
}`

// writeConfig writes an uncompressed, quiet configuration into dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "quotepdf.toml")
	cfg := `
[log]
level = "error"

[render]
compress = false

[database]
driver = "sqlite"
dsn = "file:` + filepath.Join(dir, "quotes.db") + `"
`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestRunRender(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	data := filepath.Join(dir, "bundle.json")
	require.NoError(t, os.WriteFile(data, []byte(bundleJSON), 0o644))
	out := filepath.Join(dir, "quote.pdf")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"render", "-config", cfg, "-data", data, "-locale", "de-DE", "-out", out}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.Contains(t, stdout.String(), "1 page(s), template default")
	pdf, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(pdf), "(Ocean Freight) Tj")
	assert.NotContains(t, string(pdf), "Carrier cost")
}

func TestRunRenderTemplateFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	data := filepath.Join(dir, "bundle.json")
	require.NoError(t, os.WriteFile(data, []byte(bundleJSON), 0o644))
	tpl := filepath.Join(dir, "mini.yaml")
	require.NoError(t, os.WriteFile(tpl, []byte("name: Mini\nsections:\n  - type: footer\n"), 0o644))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"render", "-config", cfg, "-data", data, "-template", tpl, "-out", filepath.Join(dir, "q.pdf")}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sections: []\n"), 0o644))
	err = run(context.Background(), []string{"render", "-config", cfg, "-data", data, "-template", bad, "-out", filepath.Join(dir, "q.pdf")}, &stdout, &stderr)
	assert.ErrorContains(t, err, "bad.yaml")
}

func TestRunErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ctx := context.Background()

	assert.Error(t, run(ctx, nil, &stdout, &stderr))
	assert.ErrorContains(t, run(ctx, []string{"publish"}, &stdout, &stderr), `unknown command "publish"`)
	assert.ErrorContains(t, run(ctx, []string{"render", "-data", "x.json"}, &stdout, &stderr), "-data and -out are required")
	assert.ErrorContains(t, run(ctx, []string{"deliver"}, &stdout, &stderr), "-quote is required")
}

func TestRunTemplates(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"templates"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "default\n")
	assert.Contains(t, stdout.String(), "mgl\n")
}

func TestRunDeliverUnknownQuote(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"deliver", "-config", cfg, "-quote", "missing", "-inline"}, &stdout, &stderr)
	assert.ErrorIs(t, err, delivery.ErrQuoteNotFound)
}

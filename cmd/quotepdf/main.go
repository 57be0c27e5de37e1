// Command quotepdf renders quotation PDFs.
//
//	quotepdf render -data bundle.json [-template t.json|t.yaml] [-template-id mgl] [-locale de-DE] [-strict] -out quote.pdf
//	quotepdf deliver -quote <id> [-version <id>] [-template-id mgl] [-inline]
//	quotepdf templates
//
// Configuration is read from quotepdf.toml and QPDF_ environment variables;
// -config names an explicit file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lvillar/quotepdf"
	"github.com/lvillar/quotepdf/delivery"
	"github.com/lvillar/quotepdf/doctpl"
	"github.com/lvillar/quotepdf/internal/app"
	"github.com/lvillar/quotepdf/internal/config"
	"github.com/lvillar/quotepdf/internal/logger"
)

const usage = `usage: quotepdf <command> [flags]

commands:
  render     render a JSON quote bundle to a PDF file
  deliver    render a stored quote and upload it, or print it as base64
  templates  list the built-in template ids
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "quotepdf: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}
	switch args[0] {
	case "render":
		return runRender(ctx, args[1:], stdout, stderr)
	case "deliver":
		return runDeliver(ctx, args[1:], stdout, stderr)
	case "templates":
		for _, id := range doctpl.BuiltinIDs() {
			fmt.Fprintln(stdout, id)
		}
		return nil
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func setup(ctx context.Context, configPath string, stderr io.Writer) (*app.App, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	// stdout may carry the document
	log := logger.NewWriter(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, stderr)
	return app.New(ctx, cfg, log)
}

func runRender(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dataPath := fs.String("data", "", "quote bundle JSON file (required)")
	tplPath := fs.String("template", "", "template file, JSON or YAML")
	tplID := fs.String("template-id", "", "stored or built-in template id")
	locale := fs.String("locale", "", "render locale, e.g. de-DE")
	strict := fs.Bool("strict", false, "fail when the quote has no charges")
	out := fs.String("out", "", "output PDF file (required)")
	configPath := fs.String("config", "", "configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataPath == "" || *out == "" {
		fs.Usage()
		return errors.New("render: -data and -out are required")
	}

	data, err := readBundle(*dataPath)
	if err != nil {
		return err
	}
	req := quotepdf.Request{TemplateID: *tplID, Data: data, Locale: *locale, Strict: *strict}
	if *tplPath != "" {
		raw, err := os.ReadFile(*tplPath)
		if err != nil {
			return fmt.Errorf("reading template: %w", err)
		}
		tpl, err := doctpl.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", *tplPath, err)
		}
		req.Template = tpl
	}

	a, err := setup(ctx, *configPath, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.Engine.Generate(ctx, req)
	if err != nil {
		return err
	}
	for _, se := range doc.SectionErrors {
		a.Logger.Warn("section rendered as error box", zap.Error(se))
	}
	if err := os.WriteFile(*out, doc.Bytes, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Fprintf(stdout, "%s: %d page(s), template %s\n", *out, doc.Pages, doc.TemplateID)
	return nil
}

func runDeliver(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("deliver", flag.ContinueOnError)
	fs.SetOutput(stderr)
	quoteID := fs.String("quote", "", "quote id (required)")
	versionID := fs.String("version", "", "quotation version id")
	tplID := fs.String("template-id", "", "stored or built-in template id")
	locale := fs.String("locale", "", "render locale")
	strict := fs.Bool("strict", false, "fail when the quote has no sell-side charges")
	inline := fs.Bool("inline", false, "print {content, filename} JSON instead of uploading")
	key := fs.String("idempotency-key", "", "idempotency key recorded in the audit log")
	configPath := fs.String("config", "", "configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *quoteID == "" {
		fs.Usage()
		return errors.New("deliver: -quote is required")
	}

	a, err := setup(ctx, *configPath, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.Delivery(ctx)
	if err != nil {
		return err
	}
	req := delivery.Request{
		QuoteID:        *quoteID,
		VersionID:      *versionID,
		TemplateID:     *tplID,
		Locale:         *locale,
		Strict:         *strict,
		IdempotencyKey: *key,
	}

	var result any
	if *inline {
		result, err = svc.GenerateInline(ctx, req)
	} else {
		result, err = svc.GenerateToStorage(ctx, req)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readBundle(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

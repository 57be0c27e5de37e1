package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/lvillar/quotepdf"
	"github.com/lvillar/quotepdf/doctpl"
)

// RenderInput is the render_quote argument object.
type RenderInput struct {
	Data       map[string]any `json:"data" jsonschema:"quote bundle with quote, customer, legs, items, charges and branding"`
	TemplateID string         `json:"template_id,omitempty" jsonschema:"id of a stored or built-in template"`
	Template   map[string]any `json:"template,omitempty" jsonschema:"inline template, used instead of template_id"`
	Locale     string         `json:"locale,omitempty" jsonschema:"locale such as en-US, es-ES or de-DE"`
	Strict     bool           `json:"strict,omitempty" jsonschema:"fail when the quote has no sell-side charges"`
	OutputPath string         `json:"output_path,omitempty" jsonschema:"file to write the PDF to instead of returning base64"`
}

// RenderOutput describes a rendered quote.
type RenderOutput struct {
	Filename      string   `json:"filename"`
	Pages         int      `json:"pages"`
	TemplateID    string   `json:"template_id"`
	Content       string   `json:"content,omitempty"`
	Path          string   `json:"path,omitempty"`
	Size          int      `json:"size"`
	SectionErrors []string `json:"section_errors,omitempty"`
}

type ValidateInput struct {
	Template map[string]any `json:"template" jsonschema:"template document to validate"`
}

// ValidateOutput carries the normalized template or the field errors.
type ValidateOutput struct {
	Valid    bool           `json:"valid"`
	Errors   []string       `json:"errors,omitempty"`
	Template map[string]any `json:"template,omitempty"`
}

type ContextInput struct {
	Data   map[string]any `json:"data" jsonschema:"quote bundle"`
	Locale string         `json:"locale,omitempty" jsonschema:"locale recorded in meta.locale"`
	Strict bool           `json:"strict,omitempty" jsonschema:"use the validating builder"`
}

type ContextOutput struct {
	Context map[string]any `json:"context"`
}

func registerTools(s *Server) {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "render_quote",
		Description: "Render a freight quotation PDF from a quote bundle. Returns the PDF as base64 unless output_path is set.",
	}, s.renderQuote)
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "validate_template",
		Description: "Validate a document template and return it with defaults applied, or the list of field errors.",
	}, s.validateTemplate)
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "build_context",
		Description: "Show the sanitized, defaulted context a quote bundle renders from.",
	}, s.buildContext)
}

func (s *Server) renderQuote(ctx context.Context, _ *sdk.CallToolRequest, in RenderInput) (*sdk.CallToolResult, RenderOutput, error) {
	req := quotepdf.Request{
		TemplateID: in.TemplateID,
		Data:       in.Data,
		Locale:     in.Locale,
		Strict:     in.Strict,
	}
	if len(in.Template) > 0 {
		req.Template = in.Template
	}
	doc, err := s.engine.Generate(ctx, req)
	if err != nil {
		return nil, RenderOutput{}, err
	}

	out := RenderOutput{
		Filename:   doc.Filename,
		Pages:      doc.Pages,
		TemplateID: doc.TemplateID,
		Size:       len(doc.Bytes),
	}
	for _, se := range doc.SectionErrors {
		out.SectionErrors = append(out.SectionErrors, se.Error())
	}
	if in.OutputPath != "" {
		if err := os.WriteFile(in.OutputPath, doc.Bytes, 0o644); err != nil {
			return nil, RenderOutput{}, fmt.Errorf("writing file: %w", err)
		}
		out.Path = in.OutputPath
	} else {
		out.Content = base64.StdEncoding.EncodeToString(doc.Bytes)
	}
	s.logger.Debug("render_quote", zap.String("template_id", doc.TemplateID), zap.Int("pages", doc.Pages))
	return nil, out, nil
}

func (s *Server) validateTemplate(_ context.Context, _ *sdk.CallToolRequest, in ValidateInput) (*sdk.CallToolResult, ValidateOutput, error) {
	tpl, err := doctpl.Validate(in.Template)
	if err != nil {
		var verr *doctpl.ValidationError
		if !errors.As(err, &verr) || len(verr.Fields) == 0 {
			return nil, ValidateOutput{Errors: []string{err.Error()}}, nil
		}
		out := ValidateOutput{}
		for _, fe := range verr.Fields {
			out.Errors = append(out.Errors, fe.String())
		}
		return nil, out, nil
	}
	m, err := toMap(tpl)
	if err != nil {
		return nil, ValidateOutput{}, err
	}
	return nil, ValidateOutput{Valid: true, Template: m}, nil
}

func (s *Server) buildContext(_ context.Context, _ *sdk.CallToolRequest, in ContextInput) (*sdk.CallToolResult, ContextOutput, error) {
	sc, err := s.engine.BuildContext(in.Data, in.Locale, in.Strict)
	if err != nil {
		return nil, ContextOutput{}, err
	}
	m, err := toMap(sc)
	if err != nil {
		return nil, ContextOutput{}, err
	}
	return nil, ContextOutput{Context: m}, nil
}

// toMap round-trips v through JSON so it travels as a plain object.
func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

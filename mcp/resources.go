package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lvillar/quotepdf/doctpl"
)

const templateScheme = "template://"

// registerResources exposes the built-in templates under template://{id}.
func registerResources(s *Server) {
	s.server.AddResource(&sdk.Resource{
		URI:         templateScheme + doctpl.BuiltinDefault,
		Name:        "Default quotation template",
		Description: "The template used whenever a requested template is missing or invalid.",
		MIMEType:    "application/json",
	}, readTemplate)

	s.server.AddResourceTemplate(&sdk.ResourceTemplate{
		URITemplate: templateScheme + "{id}",
		Name:        "Built-in template",
		Description: "A built-in template by id: " + strings.Join(doctpl.BuiltinIDs(), ", "),
		MIMEType:    "application/json",
	}, readTemplate)
}

func readTemplate(_ context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	if req == nil || req.Params == nil || req.Params.URI == "" {
		return nil, fmt.Errorf("template id is required; use URI format template://{id}")
	}
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, templateScheme)
	if id == uri || id == "" {
		return nil, fmt.Errorf("unsupported resource URI %q", uri)
	}
	tpl, err := doctpl.Builtin(id)
	if err != nil {
		return nil, sdk.ResourceNotFoundError(uri)
	}
	data, err := json.MarshalIndent(tpl, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

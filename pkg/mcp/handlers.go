package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/protocol"
	"github.com/gnana997/widgetprops/pkg/widgets"
)

func (s *Server) handleDescribeWidget(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	offset, err := req.RequireInt("offset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var desc *protocol.WidgetDescription
	if content := req.GetString("content", ""); content != "" {
		desc, err = s.widgets.DescribeSource(ctx, file, content, offset)
	} else {
		desc, err = s.widgets.GetDescription(ctx, file, offset)
	}
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(desc)
}

func (s *Server) handleSetPropertyValue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := decodeValue(req.GetArguments()["value"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sc, err := s.widgets.SetPropertyValue(ctx, id, value)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(sc)
}

// decodeValue converts the JSON object of a value argument. A missing or null
// value decodes to nil.
func decodeValue(raw any) (*protocol.FlutterWidgetPropertyValue, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}
	var v protocol.FlutterWidgetPropertyValue
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}
	return &v, nil
}

func (s *Server) handleListWidgets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	list, err := s.widgets.ListWidgets(ctx, file)
	if err != nil {
		return toolError(err), nil
	}
	if list == nil {
		list = []widgets.WidgetLocation{}
	}
	return jsonResult(list)
}

type widgetSummary struct {
	Name    string `json:"name"`
	Library string `json:"library"`
	Summary string `json:"summary,omitempty"`
}

func (s *Server) handleSearchWidgets(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	classes := s.query.ListWidgets(req.GetString("keyword", ""))
	out := make([]widgetSummary, 0, len(classes))
	for _, cls := range classes {
		out = append(out, widgetSummary{
			Name:    cls.Name,
			Library: cls.Library,
			Summary: firstSentence(catalog.ClassDocumentation(cls)),
		})
	}
	return jsonResult(out)
}

type parameterDocs struct {
	Name          string `json:"name"`
	Type          string `json:"type,omitempty"`
	Named         bool   `json:"named,omitempty"`
	Required      bool   `json:"required,omitempty"`
	Default       string `json:"default,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

type constructorDocs struct {
	Name       string          `json:"name"`
	Parameters []parameterDocs `json:"parameters"`
}

type widgetDocs struct {
	Name          string            `json:"name"`
	Library       string            `json:"library"`
	Supertype     string            `json:"supertype,omitempty"`
	Documentation string            `json:"documentation,omitempty"`
	Constructors  []constructorDocs `json:"constructors"`
}

func (s *Server) handleGetWidgetDocs(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cls, ok := s.query.ClassByName(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("widget not found: %s", name)), nil
	}

	docs := widgetDocs{
		Name:          cls.Name,
		Library:       cls.Library,
		Supertype:     cls.Supertype,
		Documentation: catalog.ClassDocumentation(cls),
		Constructors:  make([]constructorDocs, 0, len(cls.Constructors)),
	}
	for i := range cls.Constructors {
		ctor := &cls.Constructors[i]
		cd := constructorDocs{Name: ctor.QualifiedName(), Parameters: make([]parameterDocs, 0, len(ctor.Parameters))}
		for j := range ctor.Parameters {
			p := &ctor.Parameters[j]
			doc, _ := s.query.ParameterDocumentation(ctor, p)
			cd.Parameters = append(cd.Parameters, parameterDocs{
				Name:          p.Name,
				Type:          p.Type,
				Named:         p.Named,
				Required:      p.Required,
				Default:       p.Default,
				Documentation: doc,
			})
		}
		docs.Constructors = append(docs.Constructors, cd)
	}
	return jsonResult(docs)
}

// toolError reports err as a tool error. Service errors with a protocol code
// are reported as a JSON RequestError.
func toolError(err error) *mcp.CallToolResult {
	if re := widgets.RequestError(err); re != nil {
		data, _ := json.Marshal(re)
		return mcp.NewToolResultError(string(data))
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func firstSentence(doc string) string {
	for i := 0; i < len(doc); i++ {
		if doc[i] == '\n' || (doc[i] == '.' && (i+1 == len(doc) || doc[i+1] == ' ')) {
			if doc[i] == '.' {
				return doc[:i+1]
			}
			return doc[:i]
		}
	}
	return doc
}

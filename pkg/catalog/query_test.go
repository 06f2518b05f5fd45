package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/widgetprops/catalogs"
)

// --- helpers ---

func flutterQueryService(t *testing.T) *QueryService {
	t.Helper()
	qs, err := LoadAndQueryBytes(catalogs.FlutterJSON)
	require.NoError(t, err)
	return qs
}

func testQueryService() *QueryService {
	cat := &Catalog{
		Name:    "test",
		Version: "1.0",
		Libraries: []Library{
			{URI: "package:ui/ui.dart", Exports: []string{"package:ui/src/base.dart", "package:ui/src/layout.dart"}},
			{
				URI: "package:ui/src/base.dart",
				Classes: []Class{
					{Name: "Widget", Abstract: true, Fields: []Field{{Name: "key", Type: "Key?", Doc: "/// Identifies the widget."}}},
					{Name: "Leaf", Supertype: "Widget", Doc: "Draws nothing."},
				},
			},
			{
				URI:     "package:ui/src/layout.dart",
				Exports: []string{"package:ui/src/base.dart"},
				Classes: []Class{
					{Name: "Box", Supertype: "Leaf", Doc: "A sized box."},
					{Name: "Spacer", Supertype: "Box", Abstract: true},
					{Name: "Insets"},
				},
				Enums: []Enum{{Name: "Fit", Values: []EnumValue{{Name: "fill"}}}},
			},
		},
	}
	return NewQueryService(cat, cat.BuildIndex())
}

// --- tests ---

func TestVisibleLibraries_TransitiveAndDeduplicated(t *testing.T) {
	qs := testQueryService()
	assert.Equal(t, []string{
		"package:ui/ui.dart",
		"package:ui/src/base.dart",
		"package:ui/src/layout.dart",
	}, qs.VisibleLibraries("package:ui/ui.dart"))
	assert.Equal(t, []string{"package:unknown.dart"}, qs.VisibleLibraries("package:unknown.dart"))
}

func TestExports(t *testing.T) {
	qs := testQueryService()
	assert.True(t, qs.Exports("package:ui/ui.dart", "package:ui/src/layout.dart"))
	assert.True(t, qs.Exports("package:ui/src/layout.dart", "package:ui/src/base.dart"))
	assert.False(t, qs.Exports("package:ui/src/base.dart", "package:ui/src/layout.dart"))
}

func TestLookupClass(t *testing.T) {
	qs := testQueryService()

	cls, ok := qs.LookupClass("package:ui/ui.dart", "Box")
	require.True(t, ok)
	assert.Equal(t, "package:ui/src/layout.dart", cls.Library)

	_, ok = qs.LookupClass("package:ui/src/base.dart", "Box")
	assert.False(t, ok)

	e, ok := qs.LookupEnum("package:ui/ui.dart", "Fit")
	require.True(t, ok)
	assert.Equal(t, "Fit", e.Name)
}

func TestIsSubtypeOf(t *testing.T) {
	qs := testQueryService()
	box, ok := qs.ClassByName("Box")
	require.True(t, ok)
	insets, ok := qs.ClassByName("Insets")
	require.True(t, ok)

	assert.True(t, qs.IsSubtypeOf(box, "Leaf"))
	assert.True(t, qs.IsWidget(box))
	assert.True(t, qs.IsSubtypeOf(box, "Box"))
	assert.False(t, qs.IsWidget(insets))
}

func TestIsSubtypeOf_UnknownSupertypeByName(t *testing.T) {
	qs := testQueryService()
	cls := &Class{Name: "Custom", Supertype: "StatelessWidget"}
	assert.True(t, qs.IsSubtypeOf(cls, "StatelessWidget"))
	assert.False(t, qs.IsWidget(cls))
}

func TestListWidgets(t *testing.T) {
	qs := testQueryService()

	names := func(classes []*Class) []string {
		var out []string
		for _, c := range classes {
			out = append(out, c.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Box", "Leaf"}, names(qs.ListWidgets("")))
	assert.Equal(t, []string{"Box"}, names(qs.ListWidgets("SIZED")))
	assert.Empty(t, qs.ListWidgets("nothing"))
}

func TestFlutterCatalog_MaterialExportsWidgets(t *testing.T) {
	qs := flutterQueryService(t)

	container, ok := qs.LookupClass("package:flutter/material.dart", "Container")
	require.True(t, ok)
	assert.Equal(t, "package:flutter/src/widgets/container.dart", container.Library)
	assert.True(t, qs.IsWidget(container))

	insets, ok := qs.LookupClass("package:flutter/widgets.dart", "EdgeInsets")
	require.True(t, ok)
	assert.True(t, qs.IsSubtypeOf(insets, "EdgeInsetsGeometry"))
	assert.False(t, qs.IsWidget(insets))

	_, ok = qs.LookupEnum("package:flutter/material.dart", "MainAxisAlignment")
	assert.True(t, ok)
}

func TestExportingLibrary(t *testing.T) {
	qs := flutterQueryService(t)

	uri, ok := qs.ExportingLibrary("package:flutter/src/widgets/container.dart")
	require.True(t, ok)
	assert.Equal(t, "package:flutter/widgets.dart", uri)

	uri, ok = qs.ExportingLibrary("package:flutter/src/painting/edge_insets.dart")
	require.True(t, ok)
	assert.Equal(t, "package:flutter/painting.dart", uri)

	uri, ok = qs.ExportingLibrary("package:app/main.dart")
	require.True(t, ok)
	assert.Equal(t, "package:app/main.dart", uri)

	_, ok = qs.ExportingLibrary("package:nobody/src/hidden.dart")
	assert.False(t, ok)
}

package widgets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/widgetprops/catalogs"
	"github.com/gnana997/widgetprops/pkg/analysis"
	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/properties"
	"github.com/gnana997/widgetprops/pkg/protocol"
)

const mainSrc = `import 'package:flutter/material.dart';

Widget build() {
  return Text('hi', maxLines: 2);
}
`

type fakeVerifier struct {
	mu      sync.Mutex
	sources []string
	err     error
}

func (v *fakeVerifier) Verify(_ context.Context, source []byte, _ string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sources = append(v.sources, string(source))
	return v.err
}

// newService writes src to lib/main.dart of a temporary package and returns
// a service for it together with the file path.
func newService(t *testing.T, src string, cfg Config, v Verifier) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "lib", "main.dart")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	q, err := catalog.LoadAndQueryBytes(catalogs.FlutterJSON)
	require.NoError(t, err)
	session := analysis.NewSession(q, nil, analysis.Config{RootDir: root, Package: "app"}, nil)
	svc, err := NewService(session, cfg, Options{Verifier: v})
	require.NoError(t, err)
	return svc, path
}

func describe(t *testing.T, svc *Service, path, src, at string) *protocol.WidgetDescription {
	t.Helper()
	offset := strings.Index(src, at)
	require.GreaterOrEqual(t, offset, 0)
	desc, err := svc.GetDescription(context.Background(), path, offset)
	require.NoError(t, err)
	return desc
}

func propertyID(t *testing.T, desc *protocol.WidgetDescription, name string) int {
	t.Helper()
	for _, p := range desc.Properties {
		if p.Name == name {
			return p.ID
		}
	}
	t.Fatalf("no property %q", name)
	return 0
}

func TestGetDescription(t *testing.T) {
	svc, path := newService(t, mainSrc, DefaultConfig(), nil)
	desc := describe(t, svc, path, mainSrc, "Text(")

	assert.Equal(t, "Text", desc.Widget)
	assert.Equal(t, path, desc.File)
	assert.Equal(t, strings.Index(mainSrc, "Text("), desc.Offset)
	assert.Equal(t, len("Text('hi', maxLines: 2)"), desc.Length)
	require.NotEmpty(t, desc.Properties)
	assert.Equal(t, "data", desc.Properties[0].Name)

	stats := svc.Stats()
	assert.Equal(t, 1, stats.Trees)
	assert.Equal(t, 1, stats.Files)
	assert.Positive(t, stats.Properties)
}

func TestGetDescription_Errors(t *testing.T) {
	svc, path := newService(t, mainSrc, DefaultConfig(), nil)

	_, err := svc.GetDescription(context.Background(), path, 0)
	assert.ErrorIs(t, err, properties.ErrNoWidget)
	assert.Equal(t, protocol.CodeGetWidgetDescriptionNoWidget, RequestError(err).Code)

	_, err = svc.GetDescription(context.Background(), filepath.Join(filepath.Dir(path), "missing.dart"), 0)
	assert.ErrorIs(t, err, ErrFileNotAnalyzed)
	assert.Equal(t, protocol.CodeFileNotAnalyzed, RequestError(err).Code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.GetDescription(ctx, path, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, RequestError(err))
}

func TestDescribeSource(t *testing.T) {
	svc, path := newService(t, mainSrc, DefaultConfig(), nil)
	unsaved := strings.Replace(mainSrc, "Text('hi', maxLines: 2)", "SizedBox(width: 4)", 1)

	desc, err := svc.DescribeSource(context.Background(), path, unsaved, strings.Index(unsaved, "SizedBox("))
	require.NoError(t, err)
	assert.Equal(t, "SizedBox", desc.Widget)
}

func TestSetPropertyValue(t *testing.T) {
	v := &fakeVerifier{}
	svc, path := newService(t, mainSrc, DefaultConfig(), v)
	desc := describe(t, svc, path, mainSrc, "Text(")
	id := propertyID(t, desc, "maxLines")

	sc, err := svc.SetPropertyValue(context.Background(), id, protocol.IntValue(3))
	require.NoError(t, err)
	out, err := sc.Apply(path, mainSrc)
	require.NoError(t, err)
	want := strings.Replace(mainSrc, "maxLines: 2", "maxLines: 3", 1)
	assert.Equal(t, want, out)
	assert.Equal(t, []string{want}, v.sources)

	// Every id of the file is forgotten after an edit.
	_, err = svc.SetPropertyValue(context.Background(), id, protocol.IntValue(4))
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.Equal(t, protocol.CodeSetWidgetPropertyValueInvalidID, RequestError(err).Code)
	assert.Zero(t, svc.Stats().Properties)
}

func TestSetPropertyValue_Remove(t *testing.T) {
	svc, path := newService(t, mainSrc, DefaultConfig(), nil)
	desc := describe(t, svc, path, mainSrc, "Text(")

	sc, err := svc.SetPropertyValue(context.Background(), propertyID(t, desc, "maxLines"), nil)
	require.NoError(t, err)
	out, err := sc.Apply(path, mainSrc)
	require.NoError(t, err)
	assert.Equal(t, strings.Replace(mainSrc, ", maxLines: 2", "", 1), out)
}

func TestSetPropertyValue_Required(t *testing.T) {
	svc, path := newService(t, mainSrc, DefaultConfig(), nil)
	desc := describe(t, svc, path, mainSrc, "Text(")

	_, err := svc.SetPropertyValue(context.Background(), propertyID(t, desc, "data"), nil)
	assert.ErrorIs(t, err, ErrPropertyRequired)
	assert.Equal(t, protocol.CodeSetWidgetPropertyValueIsRequired, RequestError(err).Code)

	// A failed request keeps the ids valid.
	_, err = svc.SetPropertyValue(context.Background(), propertyID(t, desc, "data"), protocol.StringValue("yo"))
	assert.NoError(t, err)
}

func TestSetPropertyValue_InvalidExpression(t *testing.T) {
	svc, path := newService(t, mainSrc, DefaultConfig(), nil)
	desc := describe(t, svc, path, mainSrc, "Text(")

	_, err := svc.SetPropertyValue(context.Background(), propertyID(t, desc, "maxLines"), protocol.ExpressionValue("1 +"))
	assert.ErrorIs(t, err, ErrInvalidExpression)
	assert.Equal(t, protocol.CodeSetWidgetPropertyValueInvalidExpr, RequestError(err).Code)
}

func TestSetPropertyValue_UnknownID(t *testing.T) {
	svc, _ := newService(t, mainSrc, DefaultConfig(), nil)
	_, err := svc.SetPropertyValue(context.Background(), 42, protocol.IntValue(1))
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestSetPropertyValue_VerifyFailureIsNotAnError(t *testing.T) {
	v := &fakeVerifier{err: errors.New("syntax error")}
	svc, path := newService(t, mainSrc, DefaultConfig(), v)
	desc := describe(t, svc, path, mainSrc, "Text(")

	sc, err := svc.SetPropertyValue(context.Background(), propertyID(t, desc, "maxLines"), protocol.IntValue(3))
	require.NoError(t, err)
	assert.False(t, sc.IsEmpty())
	assert.Len(t, v.sources, 1)
}

func TestSetPropertyValue_VerifyDisabled(t *testing.T) {
	v := &fakeVerifier{}
	cfg := DefaultConfig()
	cfg.Verify = false
	svc, path := newService(t, mainSrc, cfg, v)
	desc := describe(t, svc, path, mainSrc, "Text(")

	_, err := svc.SetPropertyValue(context.Background(), propertyID(t, desc, "maxLines"), protocol.IntValue(3))
	require.NoError(t, err)
	assert.Empty(t, v.sources)
}

func TestSetPropertyValue_EmptyChangeKeepsIDs(t *testing.T) {
	svc, path := newService(t, mainSrc, DefaultConfig(), nil)
	desc := describe(t, svc, path, mainSrc, "Text(")
	id := propertyID(t, desc, "maxLines")

	// Removing an unset property changes nothing.
	sc, err := svc.SetPropertyValue(context.Background(), propertyID(t, desc, "softWrap"), nil)
	require.NoError(t, err)
	assert.True(t, sc.IsEmpty())

	_, err = svc.SetPropertyValue(context.Background(), id, protocol.IntValue(3))
	assert.NoError(t, err)
}

func TestInvalidateFile(t *testing.T) {
	svc, path := newService(t, mainSrc, DefaultConfig(), nil)
	desc := describe(t, svc, path, mainSrc, "Text(")
	id := propertyID(t, desc, "maxLines")

	svc.FileChanged(path)
	_, err := svc.SetPropertyValue(context.Background(), id, protocol.IntValue(3))
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.Equal(t, ServiceStats{}, svc.Stats())
}

func TestRegistryEviction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxProperties = 3
	svc, path := newService(t, mainSrc, cfg, nil)
	desc := describe(t, svc, path, mainSrc, "Text(")

	assert.Equal(t, 3, svc.Stats().Properties)
	_, err := svc.SetPropertyValue(context.Background(), propertyID(t, desc, "data"), protocol.StringValue("x"))
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestRegistryEviction_DropsEvictedTrees(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxProperties = 3
	svc, path := newService(t, mainSrc, cfg, nil)
	for i := 0; i < 20; i++ {
		describe(t, svc, path, mainSrc, "Text(")
	}

	stats := svc.Stats()
	assert.Equal(t, 3, stats.Properties)
	assert.Equal(t, 1, stats.Trees, "only the tree holding the newest ids is kept")
	assert.Equal(t, 1, stats.Files)

	svc.InvalidateFile(path)
	assert.Equal(t, ServiceStats{}, svc.Stats())
}

func TestIDsAreUniqueAcrossTrees(t *testing.T) {
	svc, path := newService(t, mainSrc, DefaultConfig(), nil)
	first := describe(t, svc, path, mainSrc, "Text(")
	second := describe(t, svc, path, mainSrc, "Text(")
	assert.Greater(t, second.Properties[0].ID, first.Properties[len(first.Properties)-1].ID)
}

func TestListWidgets(t *testing.T) {
	src := `import 'package:flutter/material.dart';

Widget build() {
  return Column(
    children: [
      Text('a'),
      Padding(padding: EdgeInsets.all(1), child: Text('b')),
    ],
  );
}
`
	svc, path := newService(t, src, DefaultConfig(), nil)
	widgets, err := svc.ListWidgets(context.Background(), path)
	require.NoError(t, err)

	var names []string
	for _, w := range widgets {
		names = append(names, w.Widget)
	}
	assert.Equal(t, []string{"Column", "Text", "Padding", "Text"}, names)
	assert.Equal(t, 4, widgets[0].Line)
	assert.Equal(t, 6, widgets[1].Line)
	assert.Equal(t, strings.Index(src, "Padding("), widgets[2].Offset)
}

func TestRequestError_Unmapped(t *testing.T) {
	assert.Nil(t, RequestError(nil))
	assert.Nil(t, RequestError(errors.New("boom")))
	assert.Equal(t, protocol.CodeGetWidgetDescriptionContentModified, RequestError(properties.ErrStaleTree).Code)
}

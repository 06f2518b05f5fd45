package properties

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/widgetprops/catalogs"
	"github.com/gnana997/widgetprops/pkg/analysis"
	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/change"
	"github.com/gnana997/widgetprops/pkg/format"
	"github.com/gnana997/widgetprops/pkg/protocol"
)

const testPath = "/app/lib/main.dart"

// newTree builds the tree of the widget creation starting at the first
// occurrence of at.
func newTree(t *testing.T, src, at string) *Tree {
	t.Helper()
	q, err := catalog.LoadAndQueryBytes(catalogs.FlutterJSON)
	require.NoError(t, err)
	s := analysis.NewSession(q, nil, analysis.Config{RootDir: "/app", Package: "app"}, nil)
	ru, err := s.ResolveSource(testPath, src)
	require.NoError(t, err)

	offset := strings.Index(src, at)
	require.GreaterOrEqual(t, offset, 0, "missing %q", at)
	tree, err := Build(ru, offset, NewIDGenerator(0), Options{Formatter: format.New()})
	require.NoError(t, err)
	return tree
}

// property finds a property by its slash-separated name path.
func property(t *testing.T, tree *Tree, path string) *protocol.FlutterWidgetProperty {
	t.Helper()
	props := tree.Properties()
	var found *protocol.FlutterWidgetProperty
	for _, name := range strings.Split(path, "/") {
		found = nil
		for _, p := range props {
			if p.Name == name {
				found = p
				break
			}
		}
		require.NotNil(t, found, "no property %q in %q", name, path)
		props = found.Children
	}
	return found
}

func names(props []*protocol.FlutterWidgetProperty) []string {
	out := make([]string, 0, len(props))
	for _, p := range props {
		out = append(out, p.Name)
	}
	return out
}

func apply(t *testing.T, tree *Tree, sc *change.SourceChange) string {
	t.Helper()
	out, err := sc.Apply(testPath, tree.Unit().Content)
	require.NoError(t, err)
	return out
}

// set changes the property at path and returns the edited source.
func set(t *testing.T, tree *Tree, path string, v *protocol.FlutterWidgetPropertyValue) string {
	t.Helper()
	sc, err := tree.ChangeValue(context.Background(), property(t, tree, path).ID, v)
	require.NoError(t, err)
	return apply(t, tree, sc)
}

func remove(t *testing.T, tree *Tree, path string) string {
	t.Helper()
	sc, err := tree.RemoveValue(context.Background(), property(t, tree, path).ID)
	require.NoError(t, err)
	return apply(t, tree, sc)
}

const textSrc = `import 'package:flutter/material.dart';

Widget build() {
  return Text('hi', maxLines: 2);
}
`

func TestBuild_TopLevelProperties(t *testing.T) {
	tree := newTree(t, textSrc, "Text(")
	assert.Equal(t, "Text", tree.WidgetName())
	assert.Equal(t,
		[]string{"data", "maxLines", "style", "textAlign", "softWrap", "overflow", "semanticsLabel", "Container"},
		names(tree.Properties()))

	data := property(t, tree, "data")
	assert.True(t, data.IsRequired)
	assert.True(t, data.IsSafeToUpdate)
	assert.Equal(t, "'hi'", data.Expression)
	assert.Equal(t, protocol.StringValue("hi"), data.Value)
	assert.Equal(t, protocol.EditorString, data.Editor.Kind)

	maxLines := property(t, tree, "maxLines")
	assert.False(t, maxLines.IsRequired)
	assert.Equal(t, protocol.IntValue(2), maxLines.Value)
	assert.Equal(t, protocol.EditorInt, maxLines.Editor.Kind)

	align := property(t, tree, "textAlign")
	assert.Nil(t, align.Value)
	assert.Empty(t, align.Expression)
	assert.True(t, align.IsSafeToUpdate)
	require.Equal(t, protocol.EditorEnum, align.Editor.Kind)
	require.Len(t, align.Editor.EnumItems, 6)
	assert.Equal(t, "dart:ui", align.Editor.EnumItems[0].LibraryURI)
	assert.Equal(t, "TextAlign", align.Editor.EnumItems[0].ClassName)
	assert.Equal(t, "left", align.Editor.EnumItems[0].Name)

	style := property(t, tree, "style")
	assert.Nil(t, style.Editor)
	assert.Contains(t, names(style.Children), "fontSize")
	assert.Equal(t, protocol.EditorDouble, property(t, tree, "style/fontSize").Editor.Kind)

	container := property(t, tree, "Container")
	assert.NotContains(t, names(container.Children), "child")
	assert.NotContains(t, names(container.Children), "key")
	assert.Equal(t, []string{"left", "top", "right", "bottom"}, names(property(t, tree, "Container/padding").Children))
}

func TestBuild_IDsAreDepthFirst(t *testing.T) {
	tree := newTree(t, textSrc, "Text(")
	ids := tree.IDs()
	require.NotEmpty(t, ids)
	for i, id := range ids {
		assert.Equal(t, i, id)
	}
	p, ok := tree.Property(ids[len(ids)-1])
	require.True(t, ok)
	assert.Equal(t, "clipBehavior", p.Name)

	_, ok = tree.Property(len(ids))
	assert.False(t, ok)
}

func TestBuild_NoWidget(t *testing.T) {
	q, err := catalog.LoadAndQueryBytes(catalogs.FlutterJSON)
	require.NoError(t, err)
	ru, err := analysis.NewSession(q, nil, analysis.Config{RootDir: "/app", Package: "app"}, nil).
		ResolveSource(testPath, textSrc)
	require.NoError(t, err)
	_, err = Build(ru, 0, NewIDGenerator(0), Options{})
	assert.ErrorIs(t, err, ErrNoWidget)
}

func TestBuild_UnsafeExpression(t *testing.T) {
	src := strings.Replace(textSrc, "Text('hi', maxLines: 2)", "Text(label, maxLines: count + 1)", 1)
	tree := newTree(t, src, "Text(")
	data := property(t, tree, "data")
	assert.Equal(t, "label", data.Expression)
	assert.Nil(t, data.Value)
	assert.False(t, data.IsSafeToUpdate)
	assert.Equal(t, "count + 1", property(t, tree, "maxLines").Expression)
}

const fooSrc = `import 'package:flutter/material.dart';

class Foo extends StatelessWidget {
  const Foo({super.key, this.a, this.m, this.z, this.child});

  /// The first.
  final int? a;
  final int? m;
  final int? z;
  final Widget? child;
}

Widget build() {
  return Foo(a: 1, z: 2, child: Text('x'));
}
`

func fooWith(call string) string {
	return strings.Replace(fooSrc, "Foo(a: 1, z: 2, child: Text('x'))", call, 1)
}

func TestBuild_LocalWidget(t *testing.T) {
	tree := newTree(t, fooSrc, "Foo(a")
	assert.Equal(t, []string{"a", "z", "child", "m", "Container"}, names(tree.Properties()))
	a := property(t, tree, "a")
	assert.Equal(t, "The first.", a.Documentation)
	assert.Equal(t, protocol.IntValue(1), a.Value)
	assert.Equal(t, "Text('x')", property(t, tree, "child").Expression)
}

func TestChangeValue_ReplacesArgument(t *testing.T) {
	tree := newTree(t, textSrc, "Text(")
	out := set(t, tree, "maxLines", protocol.IntValue(3))
	assert.Equal(t, strings.Replace(textSrc, "maxLines: 2", "maxLines: 3", 1), out)
	assert.True(t, tree.Stale())
}

func TestChangeValue_InsertsInNameOrder(t *testing.T) {
	tree := newTree(t, fooSrc, "Foo(a")
	out := set(t, tree, "m", protocol.IntValue(5))
	assert.Equal(t, fooWith("Foo(a: 1, m: 5, z: 2, child: Text('x'))"), out)
}

func TestChangeValue_InsertsBeforeChild(t *testing.T) {
	src := fooWith("Foo(child: Text('x'))")
	tree := newTree(t, src, "Foo(child")
	out := set(t, tree, "z", protocol.IntValue(3))
	assert.Equal(t, fooWith("Foo(z: 3, child: Text('x'))"), out)
}

func TestChangeValue_InsertsLast(t *testing.T) {
	tree := newTree(t, textSrc, "Text(")
	out := set(t, tree, "softWrap", protocol.BoolValue(false))
	assert.Equal(t, `import 'package:flutter/material.dart';

Widget build() {
  return Text(
    'hi',
    maxLines: 2,
    softWrap: false,
  );
}
`, out)
}

func TestChangeValue_EmptyArgumentList(t *testing.T) {
	src := fooWith("Foo()")
	tree := newTree(t, src, "Foo()")
	out := set(t, tree, "z", protocol.IntValue(3))
	assert.Equal(t, fooWith("Foo(\n    z: 3,\n  )"), out)
}

func TestChangeValue_PrefixedEnum(t *testing.T) {
	src := `import 'package:flutter/material.dart' as m;

Widget build() {
  return m.Text('a');
}
`
	tree := newTree(t, src, "m.Text(")
	align := property(t, tree, "textAlign")
	var end protocol.FlutterWidgetPropertyValueEnumItem
	for _, item := range align.Editor.EnumItems {
		if item.Name == "end" {
			end = item
		}
	}
	out := set(t, tree, "textAlign", protocol.EnumValue(end))
	assert.Equal(t, `import 'package:flutter/material.dart' as m;

Widget build() {
  return m.Text(
    'a',
    textAlign: m.TextAlign.end,
  );
}
`, out)
}

func TestChangeValue_CreatesNestedObject(t *testing.T) {
	src := strings.Replace(textSrc, "Text('hi', maxLines: 2)", "Text('a')", 1)
	tree := newTree(t, src, "Text(")
	out := set(t, tree, "style/fontSize", protocol.DoubleValue(16))
	assert.Equal(t, `import 'package:flutter/material.dart';

Widget build() {
  return Text(
    'a',
    style: TextStyle(
      fontSize: 16,
    ),
  );
}
`, out)
}

func TestChangeValue_StaleTree(t *testing.T) {
	tree := newTree(t, textSrc, "Text(")
	set(t, tree, "maxLines", protocol.IntValue(3))
	_, err := tree.ChangeValue(context.Background(), property(t, tree, "maxLines").ID, protocol.IntValue(4))
	assert.ErrorIs(t, err, ErrStaleTree)
	_, err = tree.RemoveValue(context.Background(), property(t, tree, "maxLines").ID)
	assert.ErrorIs(t, err, ErrStaleTree)
}

func TestChangeValue_Errors(t *testing.T) {
	tree := newTree(t, textSrc, "Text(")
	ctx := context.Background()

	_, err := tree.ChangeValue(ctx, 9999, protocol.IntValue(1))
	assert.ErrorIs(t, err, ErrUnknownProperty)

	_, err = tree.ChangeValue(ctx, property(t, tree, "maxLines").ID, &protocol.FlutterWidgetPropertyValue{})
	assert.ErrorIs(t, err, ErrEmptyValue)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = tree.ChangeValue(cancelled, property(t, tree, "maxLines").ID, protocol.IntValue(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, tree.Stale())
}

func TestChangeValue_ExpressionVerbatim(t *testing.T) {
	tree := newTree(t, textSrc, "Text(")
	out := set(t, tree, "maxLines", protocol.ExpressionValue("limit"))
	assert.Equal(t, strings.Replace(textSrc, "maxLines: 2", "maxLines: limit", 1), out)
}

func TestRemoveValue(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"first", "a", "Foo(z: 2, child: Text('x'))"},
		{"middle", "z", "Foo(a: 1, child: Text('x'))"},
		{"last", "child", "Foo(a: 1, z: 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := newTree(t, fooSrc, "Foo(a")
			assert.Equal(t, fooWith(tt.want), remove(t, tree, tt.path))
		})
	}
}

func TestRemoveValue_TrailingComma(t *testing.T) {
	src := fooWith("Foo(\n    a: 1,\n    z: 2,\n  )")
	tree := newTree(t, src, "Foo(\n")
	assert.Equal(t, fooWith("Foo(\n    a: 1,\n  )"), remove(t, tree, "z"))
}

func TestRemoveValue_UnsetIsEmpty(t *testing.T) {
	tree := newTree(t, fooSrc, "Foo(a")
	sc, err := tree.RemoveValue(context.Background(), property(t, tree, "m").ID)
	require.NoError(t, err)
	assert.True(t, sc.IsEmpty())
	assert.False(t, tree.Stale())
}

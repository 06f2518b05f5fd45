package properties

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/widgetprops/pkg/protocol"
)

const bareTextSrc = `import 'package:flutter/material.dart';

Widget build() {
  return Text('a');
}
`

const paddedSrc = `import 'package:flutter/material.dart';

Widget build() {
  return Padding(
    padding: const EdgeInsets.all(8),
    child: Text('a'),
  );
}
`

func TestContainer_WrapsWidget(t *testing.T) {
	tree := newTree(t, bareTextSrc, "Text(")
	out := set(t, tree, "Container/width", protocol.DoubleValue(100))
	assert.Equal(t, `import 'package:flutter/material.dart';

Widget build() {
  return Container(
    width: 100,
    child: Text('a'),
  );
}
`, out)
}

func TestContainer_WrapsWidgetWithInsets(t *testing.T) {
	tree := newTree(t, bareTextSrc, "Text(")
	out := set(t, tree, "Container/padding/left", protocol.DoubleValue(8))
	assert.Equal(t, `import 'package:flutter/material.dart';

Widget build() {
  return Container(
    padding: EdgeInsets.only(left: 8),
    child: Text('a'),
  );
}
`, out)
}

func TestContainer_PromotesPadding(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value *protocol.FlutterWidgetPropertyValue
		want  string
	}{
		{
			name:  "name sorting after padding goes before it",
			path:  "Container/width",
			value: protocol.DoubleValue(100),
			want: `  return Container(
    width: 100,
    padding: const EdgeInsets.all(8),
    child: Text('a'),
  );`,
		},
		{
			name:  "name sorting before padding goes after it",
			path:  "Container/color",
			value: protocol.ExpressionValue("Colors.red"),
			want: `  return Container(
    padding: const EdgeInsets.all(8),
    color: Colors.red,
    child: Text('a'),
  );`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := newTree(t, paddedSrc, "Text(")
			out := set(t, tree, tt.path, tt.value)
			want := `import 'package:flutter/material.dart';

Widget build() {
` + tt.want + `
}
`
			assert.Equal(t, want, out)
		})
	}
}

func TestContainer_DropsEnclosingConst(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "wrap",
			body: "  return const Center(child: Text('a'));",
			want: `  return Center(child: Container(
    width: 100,
    child: Text('a'),
  ));`,
		},
		{
			name: "padding promotion",
			body: "  return const Center(child: Padding(padding: EdgeInsets.all(8), child: Text('a')));",
			want: "  return Center(child: Container(width: 100, padding: EdgeInsets.all(8), child: Text('a')));",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := strings.Replace(bareTextSrc, "  return Text('a');", tt.body, 1)
			tree := newTree(t, src, "Text(")
			out := set(t, tree, "Container/width", protocol.DoubleValue(100))
			assert.Equal(t, strings.Replace(bareTextSrc, "  return Text('a');", tt.want, 1), out)
		})
	}
}

func TestContainer_PaddingArgumentIsBound(t *testing.T) {
	tree := newTree(t, paddedSrc, "Text(")
	padding := property(t, tree, "Container/padding")
	assert.Equal(t, "const EdgeInsets.all(8)", padding.Expression)
	assert.Equal(t, protocol.DoubleValue(8), property(t, tree, "Container/padding/top").Value)

	out := set(t, tree, "Container/padding/left", protocol.DoubleValue(4))
	assert.Equal(t,
		strings.Replace(paddedSrc, "EdgeInsets.all(8)", "EdgeInsets.only(left: 4, top: 8, right: 8, bottom: 8)", 1),
		out)
}

func TestContainer_ExistingContainer(t *testing.T) {
	src := strings.Replace(bareTextSrc, "Text('a')", "Container(height: 10, child: Text('a'))", 1)
	tree := newTree(t, src, "Text(")

	height := property(t, tree, "Container/height")
	assert.Equal(t, protocol.DoubleValue(10), height.Value)

	out := set(t, tree, "Container/width", protocol.DoubleValue(20))
	assert.Equal(t, strings.Replace(src, "height: 10, child", "height: 10, width: 20, child", 1), out)
}

func TestContainer_ContainerHasNoGroup(t *testing.T) {
	src := strings.Replace(bareTextSrc, "Text('a')", "Container(child: Text('a'))", 1)
	tree := newTree(t, src, "Container(")
	assert.NotContains(t, names(tree.Properties()), "Container")
	assert.Contains(t, names(tree.Properties()), "child")
}

func TestContainer_GroupIgnoresEdits(t *testing.T) {
	tree := newTree(t, bareTextSrc, "Text(")
	id := property(t, tree, "Container").ID

	sc, err := tree.ChangeValue(context.Background(), id, protocol.IntValue(1))
	require.NoError(t, err)
	assert.True(t, sc.IsEmpty())

	sc, err = tree.RemoveValue(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, sc.IsEmpty())
	assert.False(t, tree.Stale())
}

func TestContainer_PromotionIsOneShot(t *testing.T) {
	tree := newTree(t, paddedSrc, "Text(")
	set(t, tree, "Container/width", protocol.DoubleValue(100))

	_, err := tree.ChangeValue(context.Background(), property(t, tree, "Container/height").ID, protocol.DoubleValue(1))
	assert.ErrorIs(t, err, ErrStaleTree)

	vc := tree.nodes[tree.byID[property(t, tree, "Container").ID]].virtual
	require.NotNil(t, vc)
	assert.True(t, vc.Consumed())
}

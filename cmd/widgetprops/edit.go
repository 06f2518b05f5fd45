package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/gnana997/widgetprops/pkg/protocol"
	"github.com/gnana997/widgetprops/pkg/widgets"
)

var errNoProperty = errors.New("no such property")

type editOptions struct {
	write   bool
	expr    bool
	noColor bool
}

func setCmd() *cobra.Command {
	var opts editOptions

	cmd := &cobra.Command{
		Use:   "set FILE LOCATION PROPERTY VALUE",
		Short: "Set a property of the widget at a location",
		Long: `Set PROPERTY, a slash-separated path such as maxLines or
Container/padding/left, of the widget at LOCATION to VALUE.

VALUE is read according to the property's editor: a number, true/false, raw
text for strings, or an enum member (center or TextAlign.center). Anything
else, or any VALUE with --expr, is inserted as a Dart expression.

Examples:
  widgetprops set lib/main.dart 12:12 maxLines 3
  widgetprops set -w lib/main.dart 12:12 Container/padding/left 8
  widgetprops set --expr lib/main.dart 12:12 style 'Theme.of(context).textTheme.bodyLarge'`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], args[1], args[2], &args[3], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write the result to the file instead of printing a diff")
	cmd.Flags().BoolVar(&opts.expr, "expr", false, "treat VALUE as a Dart expression")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored diff output")
	return cmd
}

func removeCmd() *cobra.Command {
	var opts editOptions

	cmd := &cobra.Command{
		Use:   "remove FILE LOCATION PROPERTY",
		Short: "Remove a property argument of the widget at a location",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], args[1], args[2], nil, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write the result to the file instead of printing a diff")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored diff output")
	return cmd
}

// runEdit sets (value != nil) or removes the property at propPath.
func runEdit(cmd *cobra.Command, file, loc, propPath string, value *string, opts editOptions) error {
	a, path, content, err := openFile(cmd, file)
	if err != nil {
		return err
	}
	defer a.Close()

	offset, err := parseLocation(content, loc)
	if err != nil {
		return err
	}
	desc, err := a.service.GetDescription(cmd.Context(), path, offset)
	if err != nil {
		return describeError(err)
	}
	prop, err := findProperty(desc.Properties, propPath)
	if err != nil {
		return err
	}

	var v *protocol.FlutterWidgetPropertyValue
	if value != nil {
		v = parseValue(prop.Editor, *value, opts.expr)
	}
	sc, err := a.service.SetPropertyValue(cmd.Context(), prop.ID, v)
	if err != nil {
		return describeError(err)
	}

	out := cmd.OutOrStdout()
	if sc.IsEmpty() {
		fmt.Fprintln(out, "no changes")
		return nil
	}
	updated, err := sc.Apply(path, content)
	if err != nil {
		return err
	}
	if opts.write {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", file, sc.Message)
		return nil
	}
	printDiff(out, file, content, updated, !opts.noColor)
	return nil
}

// findProperty resolves a slash-separated name path.
func findProperty(props []*protocol.FlutterWidgetProperty, path string) (*protocol.FlutterWidgetProperty, error) {
	var found *protocol.FlutterWidgetProperty
	for _, name := range strings.Split(path, "/") {
		found = nil
		for _, p := range props {
			if p.Name == name {
				found = p
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("%w: %s", errNoProperty, path)
		}
		props = found.Children
	}
	return found, nil
}

// parseValue reads text according to the editor of a property.
func parseValue(editor *protocol.FlutterWidgetPropertyEditor, text string, expr bool) *protocol.FlutterWidgetPropertyValue {
	if expr || editor == nil {
		return protocol.ExpressionValue(text)
	}
	switch editor.Kind {
	case protocol.EditorBool:
		if b, err := strconv.ParseBool(text); err == nil {
			return protocol.BoolValue(b)
		}
	case protocol.EditorInt:
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return protocol.IntValue(i)
		}
	case protocol.EditorDouble:
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return protocol.DoubleValue(f)
		}
	case protocol.EditorString:
		return protocol.StringValue(text)
	case protocol.EditorEnum:
		for _, item := range editor.EnumItems {
			if text == item.Name || text == item.ClassName+"."+item.Name {
				return protocol.EnumValue(item)
			}
		}
	}
	return protocol.ExpressionValue(text)
}

// describeError adds the protocol code to service errors.
func describeError(err error) error {
	if re := widgets.RequestError(err); re != nil {
		return fmt.Errorf("%s: %w", re.Code, err)
	}
	return err
}

const diffContext = 2

// printDiff writes a line diff of before and after with diffContext lines
// of context around each change.
func printDiff(w io.Writer, name, before, after string, colored bool) {
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	if !colored {
		red.DisableColor()
		green.DisableColor()
		cyan.DisableColor()
	}

	cyan.Fprintf(w, "--- %s\n+++ %s\n", name, name)
	for _, l := range diffLines(before, after) {
		switch l.op {
		case diffmatchpatch.DiffDelete:
			red.Fprintf(w, "-%s\n", l.text)
		case diffmatchpatch.DiffInsert:
			green.Fprintf(w, "+%s\n", l.text)
		default:
			if l.text == hunkSeparator {
				cyan.Fprintln(w, l.text)
			} else {
				fmt.Fprintf(w, " %s\n", l.text)
			}
		}
	}
}

const hunkSeparator = "@@"

type diffLine struct {
	op   diffmatchpatch.Operation
	text string
}

// diffLines returns the changed lines of a line-mode diff with context.
// Elided equal lines are replaced by a single hunkSeparator line.
func diffLines(before, after string) []diffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var all []diffLine
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		for _, line := range strings.Split(text, "\n") {
			all = append(all, diffLine{op: d.Type, text: line})
		}
	}

	keep := make([]bool, len(all))
	for i, l := range all {
		if l.op == diffmatchpatch.DiffEqual {
			continue
		}
		for j := max(0, i-diffContext); j <= min(len(all)-1, i+diffContext); j++ {
			keep[j] = true
		}
	}

	var out []diffLine
	elided := false
	for i, l := range all {
		if !keep[i] {
			elided = true
			continue
		}
		if elided && len(out) > 0 {
			out = append(out, diffLine{op: diffmatchpatch.DiffEqual, text: hunkSeparator})
		}
		elided = false
		out = append(out, l)
	}
	return out
}


package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/protocol"
)

func describeCmd() *cobra.Command {
	var asJSON, showDocs bool

	cmd := &cobra.Command{
		Use:   "describe FILE LOCATION",
		Short: "Describe the properties of the widget at a location",
		Long: `Describe the innermost widget creation covering LOCATION, a byte offset or
a 1-based LINE:COLUMN.

Examples:
  widgetprops describe lib/main.dart 12:12
  widgetprops describe --json lib/main.dart 340`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, path, content, err := openFile(cmd, args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			offset, err := parseLocation(content, args[1])
			if err != nil {
				return err
			}
			desc, err := a.service.GetDescription(cmd.Context(), path, offset)
			if err != nil {
				return describeError(err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), desc)
			}
			printDescription(cmd.OutOrStdout(), desc, showDocs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the description as JSON")
	cmd.Flags().BoolVar(&showDocs, "docs", false, "include property documentation")
	return cmd
}

// openFile prepares the package of path and reads the file.
func openFile(cmd *cobra.Command, file string) (*app, string, string, error) {
	cfg, err := config()
	if err != nil {
		return nil, "", "", err
	}
	path, err := filepath.Abs(file)
	if err != nil {
		return nil, "", "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", "", err
	}
	a, err := newApp(cmd.Context(), cfg, path)
	if err != nil {
		return nil, "", "", err
	}
	return a, path, string(data), nil
}

func printDescription(w io.Writer, desc *protocol.WidgetDescription, showDocs bool) {
	fmt.Fprintf(w, "%s at %s:%d (%d bytes)\n", desc.Widget, desc.File, desc.Offset, desc.Length)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	header := table.Row{"ID", "Property", "Value", "Editor", "Flags"}
	if showDocs {
		header = append(header, "Documentation")
	}
	tbl.AppendHeader(header)

	var walk func(props []*protocol.FlutterWidgetProperty, depth int)
	walk = func(props []*protocol.FlutterWidgetProperty, depth int) {
		for _, p := range props {
			row := table.Row{p.ID, strings.Repeat("  ", depth) + p.Name, p.Expression, editorLabel(p.Editor), flags(p)}
			if showDocs {
				row = append(row, truncate(firstLine(p.Documentation), 60))
			}
			tbl.AppendRow(row)
			walk(p.Children, depth+1)
		}
	}
	walk(desc.Properties, 0)
	tbl.Render()
}

func editorLabel(e *protocol.FlutterWidgetPropertyEditor) string {
	if e == nil {
		return ""
	}
	if e.Kind == protocol.EditorEnum && len(e.EnumItems) > 0 {
		return fmt.Sprintf("%s(%s)", e.Kind, e.EnumItems[0].ClassName)
	}
	return string(e.Kind)
}

func flags(p *protocol.FlutterWidgetProperty) string {
	var out []string
	if p.IsRequired {
		out = append(out, "required")
	}
	if !p.IsSafeToUpdate {
		out = append(out, "unsafe")
	}
	return strings.Join(out, ",")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func listCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list FILE",
		Short: "List the widget creations of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, path, _, err := openFile(cmd, args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.service.ListWidgets(cmd.Context(), path)
			if err != nil {
				return describeError(err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}

			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"Line", "Offset", "Widget"})
			for _, wl := range list {
				tbl.AppendRow(table.Row{wl.Line, wl.Offset, wl.Widget})
			}
			tbl.AppendFooter(table.Row{"", "", fmt.Sprintf("Total: %d widgets", len(list))})
			tbl.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the list as JSON")
	return cmd
}

func docsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs WIDGET",
		Short: "Show the documentation of a widget and its constructor parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config()
			if err != nil {
				return err
			}
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, wd)
			if err != nil {
				return err
			}
			defer a.Close()

			cls, ok := a.query.ClassByName(args[0])
			if !ok {
				return fmt.Errorf("widget not found: %s", args[0])
			}
			printClassDocs(cmd.OutOrStdout(), a.query, cls)
			return nil
		},
	}
}

func printClassDocs(w io.Writer, q *catalog.QueryService, cls *catalog.Class) {
	fmt.Fprintf(w, "%s (%s)\n", cls.Name, cls.Library)
	if doc := catalog.ClassDocumentation(cls); doc != "" {
		fmt.Fprintf(w, "\n%s\n", doc)
	}
	for i := range cls.Constructors {
		ctor := &cls.Constructors[i]
		fmt.Fprintf(w, "\n%s\n", ctor.QualifiedName())

		tbl := table.NewWriter()
		tbl.SetOutputMirror(w)
		tbl.SetStyle(table.StyleLight)
		tbl.AppendHeader(table.Row{"Parameter", "Type", "Required", "Default", "Documentation"})
		for j := range ctor.Parameters {
			p := &ctor.Parameters[j]
			doc, _ := q.ParameterDocumentation(ctor, p)
			name := p.Name
			if !p.Named {
				name = "[" + name + "]"
			}
			tbl.AppendRow(table.Row{name, p.Type, p.Required, p.Default, truncate(firstLine(doc), 60)})
		}
		tbl.Render()
	}
}

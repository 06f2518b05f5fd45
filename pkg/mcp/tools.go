package mcp

import "github.com/mark3labs/mcp-go/mcp"

func describeWidgetTool() mcp.Tool {
	return mcp.NewTool("describe_widget",
		mcp.WithDescription("Describe the innermost widget creation at an offset of a Dart file: "+
			"its properties with ids, current values, editors and documentation. "+
			"Ids are used by set_property_value and become invalid after an edit to the file."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Absolute path of the Dart file")),
		mcp.WithNumber("offset", mcp.Required(), mcp.Description("Byte offset inside the widget creation")),
		mcp.WithString("content", mcp.Description("Unsaved file content to analyze instead of the file on disk")),
	)
}

func setPropertyValueTool() mcp.Tool {
	return mcp.NewTool("set_property_value",
		mcp.WithDescription("Compute the source edits that set a property to a value. "+
			"Omit value to remove the property's argument. The edits are returned, not applied."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Property id from describe_widget")),
		mcp.WithObject("value", mcp.Description(
			"Exactly one of boolValue, doubleValue, intValue, stringValue, "+
				"enumValue {libraryUri, className, name} or expression (verbatim Dart code)")),
	)
}

func listWidgetsTool() mcp.Tool {
	return mcp.NewTool("list_widgets",
		mcp.WithDescription("List the widget creations of a Dart file with their offsets and lines"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Absolute path of the Dart file")),
	)
}

func searchWidgetsTool() mcp.Tool {
	return mcp.NewTool("search_widgets",
		mcp.WithDescription("Search the widget catalog by name or documentation keyword"),
		mcp.WithString("keyword", mcp.Description("Case-insensitive keyword; empty lists every widget")),
	)
}

func getWidgetDocsTool() mcp.Tool {
	return mcp.NewTool("get_widget_docs",
		mcp.WithDescription("Documentation of a widget class and its constructor parameters"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Widget class name, e.g. Container")),
	)
}

// Package protocol defines the wire types exchanged with clients that inspect
// and edit widget properties: property descriptors, typed values, editor
// hints and request error codes.
package protocol

import "fmt"

// FlutterWidgetPropertyEditorKind is the kind of editor a client should use.
type FlutterWidgetPropertyEditorKind string

const (
	EditorBool   FlutterWidgetPropertyEditorKind = "BOOL"
	EditorDouble FlutterWidgetPropertyEditorKind = "DOUBLE"
	EditorEnum   FlutterWidgetPropertyEditorKind = "ENUM"
	EditorInt    FlutterWidgetPropertyEditorKind = "INT"
	EditorString FlutterWidgetPropertyEditorKind = "STRING"
)

// FlutterWidgetPropertyEditor describes how a property value is edited.
type FlutterWidgetPropertyEditor struct {
	Kind      FlutterWidgetPropertyEditorKind      `json:"kind"`
	EnumItems []FlutterWidgetPropertyValueEnumItem `json:"enumItems,omitempty"`
}

// FlutterWidgetPropertyValueEnumItem is one value of an enum.
type FlutterWidgetPropertyValueEnumItem struct {
	LibraryURI    string `json:"libraryUri"`
	ClassName     string `json:"className"`
	Name          string `json:"name"`
	Documentation string `json:"documentation,omitempty"`
}

// FlutterWidgetPropertyValue is a tagged value. Exactly one field is set.
type FlutterWidgetPropertyValue struct {
	BoolValue   *bool                               `json:"boolValue,omitempty"`
	DoubleValue *float64                            `json:"doubleValue,omitempty"`
	IntValue    *int64                              `json:"intValue,omitempty"`
	StringValue *string                             `json:"stringValue,omitempty"`
	EnumValue   *FlutterWidgetPropertyValueEnumItem `json:"enumValue,omitempty"`

	// Expression is arbitrary source code used verbatim.
	Expression *string `json:"expression,omitempty"`
}

// BoolValue returns a boolean value.
func BoolValue(v bool) *FlutterWidgetPropertyValue {
	return &FlutterWidgetPropertyValue{BoolValue: &v}
}

// DoubleValue returns a double value.
func DoubleValue(v float64) *FlutterWidgetPropertyValue {
	return &FlutterWidgetPropertyValue{DoubleValue: &v}
}

// IntValue returns an integer value.
func IntValue(v int64) *FlutterWidgetPropertyValue {
	return &FlutterWidgetPropertyValue{IntValue: &v}
}

// StringValue returns a string value.
func StringValue(v string) *FlutterWidgetPropertyValue {
	return &FlutterWidgetPropertyValue{StringValue: &v}
}

// EnumValue returns an enum value.
func EnumValue(item FlutterWidgetPropertyValueEnumItem) *FlutterWidgetPropertyValue {
	return &FlutterWidgetPropertyValue{EnumValue: &item}
}

// ExpressionValue returns a verbatim expression value.
func ExpressionValue(code string) *FlutterWidgetPropertyValue {
	return &FlutterWidgetPropertyValue{Expression: &code}
}

// IsEmpty reports whether no variant is populated.
func (v *FlutterWidgetPropertyValue) IsEmpty() bool {
	return v == nil || (v.BoolValue == nil && v.DoubleValue == nil && v.IntValue == nil &&
		v.StringValue == nil && v.EnumValue == nil && v.Expression == nil)
}

// FlutterWidgetProperty is the client-facing descriptor of one property.
type FlutterWidgetProperty struct {
	ID             int                          `json:"id"`
	IsRequired     bool                         `json:"isRequired"`
	IsSafeToUpdate bool                         `json:"isSafeToUpdate"`
	Name           string                       `json:"name"`
	Children       []*FlutterWidgetProperty     `json:"children,omitempty"`
	Documentation  string                       `json:"documentation,omitempty"`
	Editor         *FlutterWidgetPropertyEditor `json:"editor,omitempty"`
	Expression     string                       `json:"expression,omitempty"`
	Value          *FlutterWidgetPropertyValue  `json:"value,omitempty"`
}

// WidgetDescription describes the widget at a location and its properties.
type WidgetDescription struct {
	File       string                   `json:"file"`
	Offset     int                      `json:"offset"`
	Length     int                      `json:"length"`
	Widget     string                   `json:"widget"`
	Properties []*FlutterWidgetProperty `json:"properties"`
}

// RequestErrorCode identifies a request failure.
type RequestErrorCode string

const (
	CodeGetWidgetDescriptionContentModified RequestErrorCode = "FLUTTER_GET_WIDGET_DESCRIPTION_CONTENT_MODIFIED"
	CodeGetWidgetDescriptionNoWidget        RequestErrorCode = "FLUTTER_GET_WIDGET_DESCRIPTION_NO_WIDGET"
	CodeSetWidgetPropertyValueInvalidExpr   RequestErrorCode = "FLUTTER_SET_WIDGET_PROPERTY_VALUE_INVALID_EXPRESSION"
	CodeSetWidgetPropertyValueInvalidID     RequestErrorCode = "FLUTTER_SET_WIDGET_PROPERTY_VALUE_INVALID_ID"
	CodeSetWidgetPropertyValueIsRequired    RequestErrorCode = "FLUTTER_SET_WIDGET_PROPERTY_VALUE_IS_REQUIRED"
	CodeFileNotAnalyzed                     RequestErrorCode = "FILE_NOT_ANALYZED"
)

// RequestError is an error reported to the client.
type RequestError struct {
	Code    RequestErrorCode `json:"code"`
	Message string           `json:"message"`
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

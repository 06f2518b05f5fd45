package properties

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/dart"
	"github.com/gnana997/widgetprops/pkg/protocol"
)

// ErrEmptyValue is returned for a property value with no populated variant.
var ErrEmptyValue = errors.New("property value has no populated variant")

// ValueToCode returns the Dart source spelling of v. Enum values are written
// as `ClassName.member` without an import prefix.
func ValueToCode(v *protocol.FlutterWidgetPropertyValue) (string, error) {
	switch {
	case v.IsEmpty():
		return "", ErrEmptyValue
	case v.BoolValue != nil:
		return strconv.FormatBool(*v.BoolValue), nil
	case v.DoubleValue != nil:
		return FormatDouble(*v.DoubleValue), nil
	case v.IntValue != nil:
		return strconv.FormatInt(*v.IntValue, 10), nil
	case v.StringValue != nil:
		return QuoteString(*v.StringValue), nil
	case v.EnumValue != nil:
		return v.EnumValue.ClassName + "." + v.EnumValue.Name, nil
	default:
		return *v.Expression, nil
	}
}

// FormatDouble writes v with at most one fractional digit. The exact binary
// value is rounded half away from zero, and a zero fraction is dropped:
// 2.0 -> "2", 2.25 -> "2.3", 2.5 -> "2.5".
func FormatDouble(v float64) string {
	switch {
	case math.IsNaN(v):
		return "double.nan"
	case math.IsInf(v, 1):
		return "double.infinity"
	case math.IsInf(v, -1):
		return "-double.infinity"
	}
	r := new(big.Rat).SetFloat64(v)
	neg := r.Sign() < 0
	r.Abs(r)
	r.Mul(r, big.NewRat(10, 1))
	r.Add(r, big.NewRat(1, 2))
	tenths := new(big.Int).Quo(r.Num(), r.Denom())

	whole, frac := new(big.Int).QuoRem(tenths, big.NewInt(10), new(big.Int))
	var sb strings.Builder
	if neg && tenths.Sign() != 0 {
		sb.WriteByte('-')
	}
	sb.WriteString(whole.String())
	if frac.Sign() != 0 {
		sb.WriteByte('.')
		sb.WriteString(frac.String())
	}
	return sb.String()
}

// QuoteString returns s as a single-quoted Dart string literal.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '$':
			sb.WriteString(`\$`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// LiteralToDouble returns the value of an integer or double literal. Any
// other expression, including a negated literal, is absent.
func LiteralToDouble(expr dart.Expression) (float64, bool) {
	switch e := expr.(type) {
	case *dart.IntegerLiteral:
		return float64(e.Value), true
	case *dart.DoubleLiteral:
		return e.Value, true
	}
	return 0, false
}

// ExpressionToValue converts a literal or enum constant to a tagged value.
// Integer literals edited with a double editor become doubles. Other
// expressions return nil.
func ExpressionToValue(expr dart.Expression, editor *protocol.FlutterWidgetPropertyEditor) *protocol.FlutterWidgetPropertyValue {
	switch e := expr.(type) {
	case *dart.BooleanLiteral:
		return protocol.BoolValue(e.Value)
	case *dart.IntegerLiteral:
		if editor != nil && editor.Kind == protocol.EditorDouble {
			return protocol.DoubleValue(float64(e.Value))
		}
		return protocol.IntValue(e.Value)
	case *dart.DoubleLiteral:
		return protocol.DoubleValue(e.Value)
	case *dart.StringLiteral:
		if !e.Interpolated {
			return protocol.StringValue(e.Value)
		}
	case *dart.PropertyAccess:
		if e.EnumConstant != nil {
			return protocol.EnumValue(EnumItem(e.EnumConstant))
		}
	}
	return nil
}

// EnumItem describes one enum constant for clients.
func EnumItem(ref *catalog.EnumRef) protocol.FlutterWidgetPropertyValueEnumItem {
	return protocol.FlutterWidgetPropertyValueEnumItem{
		LibraryURI:    ref.Enum.Library,
		ClassName:     ref.Enum.Name,
		Name:          ref.Value.Name,
		Documentation: catalog.PlainDocText(ref.Value.Doc),
	}
}

// numericValue returns the double or int payload of v.
func numericValue(v *protocol.FlutterWidgetPropertyValue) (float64, bool) {
	switch {
	case v == nil:
		return 0, false
	case v.DoubleValue != nil:
		return *v.DoubleValue, true
	case v.IntValue != nil:
		return float64(*v.IntValue), true
	}
	return 0, false
}

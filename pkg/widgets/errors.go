package widgets

import (
	"errors"

	"github.com/gnana997/widgetprops/pkg/properties"
	"github.com/gnana997/widgetprops/pkg/protocol"
)

// RequestError maps a service error to the error reported to clients. It
// returns nil for errors without a protocol code.
func RequestError(err error) *protocol.RequestError {
	var code protocol.RequestErrorCode
	switch {
	case err == nil:
		return nil
	case errors.Is(err, properties.ErrNoWidget):
		code = protocol.CodeGetWidgetDescriptionNoWidget
	case errors.Is(err, properties.ErrStaleTree):
		code = protocol.CodeGetWidgetDescriptionContentModified
	case errors.Is(err, ErrInvalidID), errors.Is(err, properties.ErrUnknownProperty):
		code = protocol.CodeSetWidgetPropertyValueInvalidID
	case errors.Is(err, ErrPropertyRequired):
		code = protocol.CodeSetWidgetPropertyValueIsRequired
	case errors.Is(err, ErrInvalidExpression):
		code = protocol.CodeSetWidgetPropertyValueInvalidExpr
	case errors.Is(err, ErrFileNotAnalyzed):
		code = protocol.CodeFileNotAnalyzed
	default:
		return nil
	}
	return &protocol.RequestError{Code: code, Message: err.Error()}
}

package exceptions

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/tbourn/go-api-boilerplate/internal/domain"
)

// Kind is the category a failure value falls into before classification.
type Kind int

const (
	KindOther Kind = iota
	KindAppError
	KindHTTPError
	KindNativeError
	KindPlainObject
)

func (k Kind) String() string {
	switch k {
	case KindAppError:
		return "app_error"
	case KindHTTPError:
		return "http_error"
	case KindNativeError:
		return "native_error"
	case KindPlainObject:
		return "plain_object"
	default:
		return "other"
	}
}

// Record is the outcome of classifying one failure.
type Record struct {
	Status   int
	Message  string
	Severity domain.Severity
}

// failure is a failure value resolved into exactly one Kind. Only the field
// matching kind is set.
type failure struct {
	kind    Kind
	app     *AppError
	httpErr *HTTPError
	err     error
	value   any
}

func resolve(v any) failure {
	if err, ok := v.(error); ok && err != nil {
		var app *AppError
		if errors.As(err, &app) && app != nil {
			return failure{kind: KindAppError, app: app}
		}
		var he *HTTPError
		if errors.As(err, &he) && he != nil {
			return failure{kind: KindHTTPError, httpErr: he}
		}
		if !isNilPointer(err) {
			return failure{kind: KindNativeError, err: err}
		}
		return failure{kind: KindOther, value: nil}
	}
	if isObject(v) {
		return failure{kind: KindPlainObject, value: v}
	}
	return failure{kind: KindOther, value: v}
}

// KindOf reports which category Classify would place v in.
func KindOf(v any) Kind { return resolve(v).kind }

// Classify derives (status, message, severity) from an arbitrary failure value.
//
// Precedence: *AppError (verbatim), *HTTPError (status + body), any other
// error (its message), a non-nil map/struct/slice/pointer (JSON form), and
// finally anything else via fmt.Sprint with nil rendered as "null". Everything
// but *AppError gets severity ERROR; everything but the first two gets 500.
// Classify never panics and keeps no state.
func Classify(v any) Record {
	rec := Record{
		Status:   http.StatusInternalServerError,
		Message:  "Unexpected error occurred",
		Severity: domain.SeverityError,
	}

	f := resolve(v)
	switch f.kind {
	case KindAppError:
		rec.Status = f.app.Status
		rec.Message = f.app.Message
		rec.Severity = f.app.Severity
	case KindHTTPError:
		rec.Status = f.httpErr.Status
		body := f.httpErr.Response()
		if s, ok := body.(string); ok {
			rec.Message = s
		} else {
			rec.Message = stringify(body)
		}
	case KindNativeError:
		if msg := f.err.Error(); msg != "" {
			rec.Message = msg
		} else {
			rec.Message = fmt.Sprintf("%T", f.err)
		}
	case KindPlainObject:
		rec.Message = stringify(f.value)
	default:
		if f.value == nil {
			rec.Message = "null"
		} else {
			rec.Message = fmt.Sprint(f.value)
		}
	}
	return rec
}

// stringify is json.Marshal with a %+v fallback for values that cannot be
// encoded (channels, funcs, cyclic structures).
func stringify(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}

func isObject(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return !rv.IsNil()
	case reflect.Struct, reflect.Array:
		return true
	case reflect.Pointer:
		return !rv.IsNil()
	default:
		return false
	}
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

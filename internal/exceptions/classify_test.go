package exceptions

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-api-boilerplate/internal/domain"
)

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func TestClassify_Table(t *testing.T) {
	var nilApp *AppError

	cases := []struct {
		name string
		in   any
		want Record
		kind Kind
	}{
		{
			name: "app error verbatim",
			in:   New("User not found", http.StatusNotFound, domain.SeverityWarn),
			want: Record{Status: http.StatusNotFound, Message: "User not found", Severity: domain.SeverityWarn},
			kind: KindAppError,
		},
		{
			name: "wrapped app error",
			in:   fmt.Errorf("handler: %w", New("conflict", http.StatusConflict, domain.SeverityInfo)),
			want: Record{Status: http.StatusConflict, Message: "conflict", Severity: domain.SeverityInfo},
			kind: KindAppError,
		},
		{
			name: "http error string body",
			in:   NewHTTP(http.StatusBadGateway, "upstream failed"),
			want: Record{Status: http.StatusBadGateway, Message: "upstream failed", Severity: domain.SeverityError},
			kind: KindHTTPError,
		},
		{
			name: "http error object body",
			in:   Unauthorized("API Key is missing"),
			want: Record{
				Status:   http.StatusUnauthorized,
				Message:  `{"error":"Unauthorized","message":"API Key is missing","statusCode":401}`,
				Severity: domain.SeverityError,
			},
			kind: KindHTTPError,
		},
		{
			name: "http error nil body",
			in:   &HTTPError{Status: http.StatusTeapot, Message: "short and stout"},
			want: Record{Status: http.StatusTeapot, Message: `{"message":"short and stout"}`, Severity: domain.SeverityError},
			kind: KindHTTPError,
		},
		{
			name: "native error",
			in:   errors.New("MongoNetworkError: connection lost"),
			want: Record{Status: http.StatusInternalServerError, Message: "MongoNetworkError: connection lost", Severity: domain.SeverityError},
			kind: KindNativeError,
		},
		{
			name: "native error with empty message",
			in:   errors.New(""),
			want: Record{Status: http.StatusInternalServerError, Message: "*errors.errorString", Severity: domain.SeverityError},
			kind: KindNativeError,
		},
		{
			name: "plain map",
			in:   map[string]any{"foo": "bar"},
			want: Record{Status: http.StatusInternalServerError, Message: `{"foo":"bar"}`, Severity: domain.SeverityError},
			kind: KindPlainObject,
		},
		{
			name: "struct",
			in:   point{X: 1, Y: 2},
			want: Record{Status: http.StatusInternalServerError, Message: `{"x":1,"y":2}`, Severity: domain.SeverityError},
			kind: KindPlainObject,
		},
		{
			name: "string",
			in:   "boom",
			want: Record{Status: http.StatusInternalServerError, Message: "boom", Severity: domain.SeverityError},
			kind: KindOther,
		},
		{
			name: "number",
			in:   42,
			want: Record{Status: http.StatusInternalServerError, Message: "42", Severity: domain.SeverityError},
			kind: KindOther,
		},
		{
			name: "nil",
			in:   nil,
			want: Record{Status: http.StatusInternalServerError, Message: "null", Severity: domain.SeverityError},
			kind: KindOther,
		},
		{
			name: "typed nil app error",
			in:   error(nilApp),
			want: Record{Status: http.StatusInternalServerError, Message: "null", Severity: domain.SeverityError},
			kind: KindOther,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.in); got != tc.want {
				t.Fatalf("Classify = %+v; want %+v", got, tc.want)
			}
			if got := KindOf(tc.in); got != tc.kind {
				t.Fatalf("KindOf = %v; want %v", got, tc.kind)
			}
		})
	}
}

func TestClassify_UnencodableObject_FallsBack(t *testing.T) {
	rec := Classify(map[string]any{"f": func() {}})
	if rec.Status != http.StatusInternalServerError || !strings.HasPrefix(rec.Message, "map[f:") {
		t.Fatalf("unexpected fallback: %+v", rec)
	}
}

// Re-raising a classified failure as an AppError classifies the same way.
func TestClassify_Idempotent(t *testing.T) {
	inputs := []any{
		New("gone", http.StatusGone, domain.SeverityWarn),
		Forbidden("Forbidden resource"),
		errors.New("Redis timeout"),
		map[string]int{"n": 1},
		nil,
	}
	for _, in := range inputs {
		first := Classify(in)
		again := Classify(New(first.Message, first.Status, first.Severity))
		if again != first {
			t.Fatalf("not idempotent for %#v: %+v then %+v", in, first, again)
		}
	}
}

func TestKind_String(t *testing.T) {
	want := map[Kind]string{
		KindAppError:    "app_error",
		KindHTTPError:   "http_error",
		KindNativeError: "native_error",
		KindPlainObject: "plain_object",
		KindOther:       "other",
	}
	for k, s := range want {
		if k.String() != s {
			t.Fatalf("%d.String() = %q; want %q", int(k), k.String(), s)
		}
	}
}

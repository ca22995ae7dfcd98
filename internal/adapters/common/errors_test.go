package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/example/reservation-notifier/internal/models"
)

func TestWrapHelpers(t *testing.T) {
	base := errors.New("twilio error 63016: not opted in")

	cases := []struct {
		wrapped  error
		sentinel error
		kind     string
	}{
		{WrapConfiguration(base), ErrConfiguration, models.KindConfiguration},
		{WrapValidation(base), ErrValidation, models.KindValidation},
		{WrapProvider(base), ErrProvider, models.KindProvider},
		{WrapTransport(base), ErrTransport, models.KindTransport},
	}

	for _, tc := range cases {
		if !errors.Is(tc.wrapped, tc.sentinel) {
			t.Fatalf("expected %v to wrap %v", tc.wrapped, tc.sentinel)
		}
		if !strings.Contains(tc.wrapped.Error(), base.Error()) {
			t.Fatalf("expected wrapped error message to include original message")
		}
		if got := Kind(tc.wrapped); got != tc.kind {
			t.Fatalf("Kind(%v) = %q, want %q", tc.wrapped, got, tc.kind)
		}
	}
}

func TestWrapNil(t *testing.T) {
	if !errors.Is(WrapProvider(nil), ErrProvider) {
		t.Fatalf("expected nil provider wrap to fall back to ErrProvider")
	}
	if !errors.Is(WrapTransport(nil), ErrTransport) {
		t.Fatalf("expected nil transport wrap to fall back to ErrTransport")
	}
}

func TestKindUnclassified(t *testing.T) {
	if got := Kind(fmt.Errorf("post: %w", context.DeadlineExceeded)); got != models.KindTransport {
		t.Fatalf("expected deadline to classify as transport, got %q", got)
	}
	if got := Kind(errors.New("http 400: bad request")); got != models.KindProvider {
		t.Fatalf("expected plain error to classify as provider, got %q", got)
	}
	if got := Kind(nil); got != "" {
		t.Fatalf("expected empty kind for nil, got %q", got)
	}
}

func TestFailedTruncatesDetail(t *testing.T) {
	res := Failed(WrapProvider(errors.New(strings.Repeat("x", 50))), 10)
	if res.Success {
		t.Fatalf("expected failure")
	}
	if len([]rune(res.Error)) != 10 {
		t.Fatalf("expected 10 runes, got %d", len([]rune(res.Error)))
	}
	if res.Kind != models.KindProvider {
		t.Fatalf("expected provider kind, got %q", res.Kind)
	}
}

func TestTruncateRaw(t *testing.T) {
	if got := TruncateRaw("héllo", 2); got != "hé" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := TruncateRaw("hello", 0); got != "" {
		t.Fatalf("expected empty string for zero limit, got %q", got)
	}
}

type codedError struct{ code int }

func (e *codedError) Error() string { return fmt.Sprintf("code %d", e.code) }

func TestWrapKeepsInnerErrorReachable(t *testing.T) {
	err := WrapProvider(fmt.Errorf("twilio: %w", &codedError{code: 63016}))

	var coded *codedError
	if !errors.As(err, &coded) || coded.code != 63016 {
		t.Fatalf("expected wrapped error to expose the inner error, got %v", err)
	}
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected provider sentinel")
	}
}

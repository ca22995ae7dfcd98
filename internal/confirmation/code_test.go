package confirmation_test

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/example/reservation-notifier/internal/confirmation"
)

var codePattern = regexp.MustCompile(`^TS-[A-Z0-9]{6}$`)

func TestGenerateFormat(t *testing.T) {
	gen := confirmation.NewGenerator()
	for i := 0; i < 200; i++ {
		code := gen.Generate()
		if !codePattern.MatchString(code) {
			t.Fatalf("code %q does not match %s", code, codePattern)
		}
	}
}

func TestGenerateCustomPrefix(t *testing.T) {
	gen := confirmation.NewGenerator(confirmation.WithPrefix("rsv-"))
	code := gen.Generate()
	if !regexp.MustCompile(`^RSV-[A-Z0-9]{6}$`).MatchString(code) {
		t.Fatalf("unexpected code %q", code)
	}
}

func TestGenerateDeterministicSource(t *testing.T) {
	src := func() *bytes.Reader { return bytes.NewReader(bytes.Repeat([]byte{0x00}, 64)) }

	a := confirmation.NewGenerator(confirmation.WithRandom(src())).Generate()
	b := confirmation.NewGenerator(confirmation.WithRandom(src())).Generate()
	if a != b {
		t.Fatalf("expected identical codes from identical sources, got %q and %q", a, b)
	}
	if a != "TS-AAAAAA" {
		t.Fatalf("expected TS-AAAAAA from zero source, got %q", a)
	}
}

func TestGenerateExhaustedSource(t *testing.T) {
	gen := confirmation.NewGenerator(confirmation.WithRandom(bytes.NewReader(nil)))
	if code := gen.Generate(); !codePattern.MatchString(code) {
		t.Fatalf("expected well-formed code from failing source, got %q", code)
	}
}

package pgerror

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
)

func TestClassifyRecoversCodeAndSeverity(t *testing.T) {
	err := New(pgerrcode.InvalidCursorName, "missing portal")

	severity, code, msg := Classify(err)
	if severity != SeverityError {
		t.Fatalf("severity = %v, want ERROR", severity)
	}
	if code != pgerrcode.InvalidCursorName {
		t.Fatalf("code = %v, want %v", code, pgerrcode.InvalidCursorName)
	}
	if msg != "missing portal" {
		t.Fatalf("message = %q", msg)
	}
}

func TestClassifyUnknownErrorDefaultsToDataException(t *testing.T) {
	_, code, _ := Classify(errors.New("boom"))
	if code != pgerrcode.DataException {
		t.Fatalf("code = %v, want %v", code, pgerrcode.DataException)
	}
}

func TestFatalIsFatal(t *testing.T) {
	err := Fatal(pgerrcode.ProtocolViolation, "expected startup message")
	if !IsFatal(err) {
		t.Fatal("expected Fatal error to be classified FATAL")
	}
}

func TestWithCodeWrapsChain(t *testing.T) {
	base := errors.New("sqlite: constraint failed")
	wrapped := WithCode(base, pgerrcode.UniqueViolation)

	if Code(wrapped) != pgerrcode.UniqueViolation {
		t.Fatalf("Code() = %v", Code(wrapped))
	}
	if !errors.Is(wrapped, base) {
		t.Fatal("errors.Is should find the wrapped cause in the chain")
	}
}

func TestWithSeverityOverridesExistingCode(t *testing.T) {
	err := New(pgerrcode.SyntaxError, "bad token")
	fatal := WithSeverity(err, SeverityFatal)

	severity, code, _ := Classify(fatal)
	if severity != SeverityFatal {
		t.Fatalf("severity = %v, want FATAL", severity)
	}
	if code != pgerrcode.SyntaxError {
		t.Fatalf("code = %v, want preserved %v", code, pgerrcode.SyntaxError)
	}
}

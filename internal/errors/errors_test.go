package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapFormatsMessageAndKeepsCause(t *testing.T) {
	cause := errors.New("no such zone")
	err := Wrap(KindInvalidConfig, cause, "unknown timezone %q", "Mars/Olympus_Mons")

	if got := err.Error(); got != `unknown timezone "Mars/Olympus_Mons": no such zone` {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped cause is not reachable through errors.Is")
	}
	if KindOf(err) != KindInvalidConfig {
		t.Errorf("kind = %v, want invalid config", KindOf(err))
	}
}

func TestNewPreservesPercentInArgs(t *testing.T) {
	err := New(KindInvalidConfig, "time of day must be HH:MM, got %q", "9%M")
	if !strings.Contains(err.Error(), `"9%M"`) {
		t.Errorf("Error() = %q, want the argument quoted verbatim", err.Error())
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
	err := New(KindStorage, "suppression write failed")
	if got := Format(err); got != "Error: suppression write failed" {
		t.Errorf("Format = %q", got)
	}
}

func TestKindPredicates(t *testing.T) {
	if !IsTransient(New(KindGatewayTransient, "503 from gateway")) {
		t.Error("transient gateway error not classified as transient")
	}
	if IsTransient(New(KindGatewayPermanent, "404 from gateway")) {
		t.Error("permanent gateway error classified as transient")
	}
	if !IsTokenExpired(New(KindTokenExpired, "410 sync token expired")) {
		t.Error("token-expired error not classified")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("foreign error should map to the unknown kind")
	}
}

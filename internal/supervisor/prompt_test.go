package supervisor

import (
	"bytes"
	"strings"
	"testing"
)

func TestAskYesNoAcceptsY(t *testing.T) {
	var out bytes.Buffer
	for _, input := range []string{"y\n", "Y\n", "yes\n"} {
		if !askYesNo(&out, strings.NewReader(input), "proceed") {
			t.Errorf("askYesNo(%q) = false, want true", input)
		}
	}
}

func TestAskYesNoRejectsOtherInput(t *testing.T) {
	var out bytes.Buffer
	for _, input := range []string{"n\n", "\n", "no\n", "maybe\n"} {
		if askYesNo(&out, strings.NewReader(input), "proceed") {
			t.Errorf("askYesNo(%q) = true, want false", input)
		}
	}
}

func TestAskYesNoRendersPrompt(t *testing.T) {
	var out bytes.Buffer
	askYesNo(&out, strings.NewReader("n\n"), "create tap9")
	if !strings.Contains(out.String(), "create tap9? [y/N] (default: No)") {
		t.Errorf("prompt = %q, missing expected text", out.String())
	}
}

// Package condition implements the assertion/condition algebra described in
// spec §4.4: Condition values describe a requirement the host must satisfy;
// checking one either succeeds or produces an Assertion describing why it
// failed and whether the failure can be auto-repaired.
package condition

import "strings"

// Repair is a recovery closure captured inside a Recoverable assertion. It
// mirrors the teacher's preference for small function values over
// interfaces for one-shot behavior (c.f. qcli's QMPLog callbacks); an
// implementation without closures would substitute a tagged action record.
type Repair func() error

// Kind distinguishes the three shapes an Assertion can take.
type Kind int

const (
	// KindFatal marks a failure that requires explicit operator action.
	KindFatal Kind = iota
	// KindRecoverable marks a failure that the supervisor may repair by
	// invoking the assertion's Repair closure.
	KindRecoverable
	// KindContainer combines a labeled list of child assertions.
	KindContainer
)

// Child is one labeled branch of a Container assertion.
type Child struct {
	Label     string
	Assertion Assertion
}

// Assertion is the tagged variant Fatal | Recoverable | Container from
// spec §3. Scope/Reason are always populated for Fatal and Recoverable;
// Children only for Container.
type Assertion struct {
	Kind     Kind
	Scope    string
	Reason   string
	Repair   Repair
	Children []Child
}

// Fatal builds a non-recoverable assertion.
func Fatal(scope, reason string) Assertion {
	return Assertion{Kind: KindFatal, Scope: scope, Reason: reason}
}

// Recoverable builds an assertion whose failure can be repaired by calling
// repair.
func Recoverable(scope, reason string, repair Repair) Assertion {
	return Assertion{Kind: KindRecoverable, Scope: scope, Reason: reason, Repair: repair}
}

// Container combines a list of (label, assertion) branches.
func Container(children []Child) Assertion {
	return Assertion{Kind: KindContainer, Children: children}
}

// IsRecoverable reports whether a assertion (Fatal -> false, Recoverable ->
// true, Container -> all children recoverable) can be repaired in full.
func (a Assertion) IsRecoverable() bool {
	switch a.Kind {
	case KindFatal:
		return false
	case KindRecoverable:
		return true
	case KindContainer:
		for _, c := range a.Children {
			if !c.Assertion.IsRecoverable() {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Recover invokes the repair closure(s) captured by the assertion tree. A
// Fatal node is a no-op; a Container recurses into every child regardless
// of that child's own recoverability, matching the original's behavior of
// not bailing at the first unrecoverable branch; it stops at the first
// repair that returns an error.
func (a Assertion) Recover() error {
	switch a.Kind {
	case KindRecoverable:
		if a.Repair == nil {
			return nil
		}
		return a.Repair()
	case KindContainer:
		for _, c := range a.Children {
			if err := c.Assertion.Recover(); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// RecoveryPrompt renders the interactive confirmation text offered to the
// operator: "<scope>: <reason>" for a single Recoverable assertion, or one
// indented line per recoverable child of a Container. A Fatal assertion
// renders as nothing; inside a Container, rendering stops at the first
// non-recoverable child (the children before it are kept), mirroring the
// original's early return the moment a non-recoverable child is seen.
func (a Assertion) RecoveryPrompt() string {
	var b strings.Builder
	switch a.Kind {
	case KindFatal:
		return ""
	case KindRecoverable:
		b.WriteString(a.Scope)
		b.WriteString(": ")
		b.WriteString(a.Reason)
	case KindContainer:
		for _, c := range a.Children {
			if !c.Assertion.IsRecoverable() {
				return b.String()
			}
			b.WriteString(c.Label)
			b.WriteString(":")
			for _, line := range linesLikeRust(c.Assertion.RecoveryPrompt()) {
				b.WriteString("\n  ")
				b.WriteString(line)
			}
		}
	}
	return b.String()
}

// linesLikeRust splits on "\n" the way Rust's str::lines() does: a
// trailing newline does not produce a trailing empty element.
func linesLikeRust(s string) []string {
	parts := strings.Split(s, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// Print renders the assertion tree using the same box-drawing connectors as
// the original implementation: "├─"/"└─" for a branch, "|  "/"   " for
// continuation lines under it.
func (a Assertion) Print(scope string) string {
	switch a.Kind {
	case KindFatal:
		return "[fatal] " + a.Scope + ": " + a.Reason
	case KindRecoverable:
		return "[recoverable] " + a.Scope + ": " + a.Reason
	case KindContainer:
		var b strings.Builder
		b.WriteString(scope)
		b.WriteString("\n")
		for i, c := range a.Children {
			prefix := "├─"
			cont := "|"
			if i == len(a.Children)-1 {
				prefix = "└─"
				cont = " "
			}

			for j, line := range linesLikeRust(c.Assertion.Print(c.Label)) {
				if j == 0 {
					b.WriteString(prefix)
					b.WriteString(line)
					b.WriteString("\n")
				} else {
					b.WriteString(cont)
					b.WriteString("  ")
					b.WriteString(line)
					b.WriteString("\n")
				}
			}
		}
		return b.String()
	}
	return ""
}

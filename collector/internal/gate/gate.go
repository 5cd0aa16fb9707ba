// Package gate decides whether an execution event is worth processing.
//
// Two filters run in order: the event state must be terminal (SUCCEEDED or
// FAILED), and the pipeline name must match the configured glob. A filtered
// event is not an error; the caller ends the invocation cleanly without
// touching any external service.
package gate

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// Reason explains why an event was filtered.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNonTerminalState Reason = "non-terminal-state"
	ReasonPatternMismatch  Reason = "pattern-mismatch"
)

// Decision is the result of Admit. When Admitted is false, Reason is set.
type Decision struct {
	Admitted bool
	Reason   Reason
}

// Gate filters events by state and pipeline-name pattern.
// All methods are safe for concurrent use.
type Gate struct {
	pattern atomic.Pointer[compiledPattern]
}

// New returns a Gate for the given shell glob: *, ?, [...] with [!...] or
// [^...] negation. A [ with no closing ] matches itself. A glob that is still
// malformed is rejected here rather than at match time.
func New(pattern string) (*Gate, error) {
	g := &Gate{}
	if err := g.SetPattern(pattern); err != nil {
		return nil, err
	}
	return g, nil
}

// SetPattern replaces the glob. On error the previous pattern stays active.
func (g *Gate) SetPattern(pattern string) error {
	compiled, err := Compile(pattern)
	if err != nil {
		return err
	}
	g.pattern.Store(&compiledPattern{source: pattern, glob: compiled})
	return nil
}

// Pattern returns the active glob as configured.
func (g *Gate) Pattern() string {
	return g.pattern.Load().source
}

type compiledPattern struct {
	source string
	glob   string
}

// Compile validates pattern and returns the equivalent doublestar glob, with
// every unterminated [ escaped so it matches literally.
func Compile(pattern string) (string, error) {
	glob := escapeOpenBrackets(pattern)
	if !doublestar.ValidatePattern(glob) {
		return "", fmt.Errorf("gate: pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	return glob, nil
}

// escapeOpenBrackets escapes each [ that does not start a complete class.
// A ] directly after [, [! or [^ is part of the class, not its end.
func escapeOpenBrackets(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '\\' && i+1 < len(pattern) {
			b.WriteByte(c)
			b.WriteByte(pattern[i+1])
			i++
			continue
		}
		if c != '[' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		if j < len(pattern) && (pattern[j] == '!' || pattern[j] == '^') {
			j++
		}
		if j < len(pattern) && pattern[j] == ']' {
			j++
		}
		for j < len(pattern) && pattern[j] != ']' {
			j++
		}
		if j >= len(pattern) {
			b.WriteString(`\[`)
			continue
		}
		b.WriteString(pattern[i : j+1])
		i = j
	}
	return b.String()
}

// Admit applies both filters to ev.
func (g *Gate) Admit(ev types.ExecutionEvent) Decision {
	if !ev.State.Terminal() {
		return Decision{Reason: ReasonNonTerminalState}
	}
	// The pattern was validated in SetPattern, so Match cannot fail here.
	if ok, _ := doublestar.Match(g.pattern.Load().glob, ev.PipelineName); !ok {
		return Decision{Reason: ReasonPatternMismatch}
	}
	return Decision{Admitted: true}
}

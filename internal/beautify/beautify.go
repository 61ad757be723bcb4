// Package beautify decides whether a piece of text is a JSON document,
// recovers it when it was truncated, and prepares it for display.
package beautify

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/jsonlens/internal/jsontree"
	"github.com/dgallion1/jsonlens/internal/jsonvalue"
	"github.com/dgallion1/jsonlens/internal/repair"
	"github.com/dgallion1/jsonlens/internal/stats"
)

// Outcome is the result class of one Beautify call.
type Outcome string

const (
	OutcomeParsed       Outcome = "parsed"
	OutcomeRepaired     Outcome = "repaired"
	OutcomeNotJSON      Outcome = "not_json"
	OutcomeRepairFailed Outcome = "repair_failed"
	OutcomeEmpty        Outcome = "empty"
)

// Engine selects the repair strategy used when strict parsing fails.
type Engine string

const (
	EngineTruncation Engine = "truncation"
	EngineLenient    Engine = "lenient"
)

// ParseEngine maps a configuration string to an Engine. The empty string
// selects EngineTruncation.
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case "", EngineTruncation:
		return EngineTruncation, nil
	case EngineLenient:
		return EngineLenient, nil
	}
	return "", fmt.Errorf("unknown repair engine %q", s)
}

// TryParse trims text and strictly parses it when it looks like a single
// object or array. ok is false for anything else; that is a normal result.
func TryParse(text string) (jsonvalue.Value, bool) {
	trimmed := Trim(text)
	if !isCandidate(trimmed) {
		return jsonvalue.Value{}, false
	}
	v, err := jsonvalue.ParseString(trimmed)
	if err != nil {
		return jsonvalue.Value{}, false
	}
	return v, true
}

// Trim removes leading and trailing white space, including the byte order
// mark. It uses the same white space set as the repair patterns.
func Trim(text string) string {
	return strings.TrimFunc(text, repair.IsSpace)
}

func isCandidate(s string) bool {
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}

// Result is what a renderer needs for one beautified value. Tree and Pretty
// are set only for the parsed and repaired outcomes.
type Result struct {
	Outcome Outcome
	Value   jsonvalue.Value
	Tree    *jsontree.Tree
	Pretty  string // two-space indented copy text
}

// Repaired reports whether the value was recovered from truncated text.
// Renderers must flag such values, because trailing data may be missing.
func (r Result) Repaired() bool { return r.Outcome == OutcomeRepaired }

// OK reports whether there is something to display.
func (r Result) OK() bool {
	return r.Outcome == OutcomeParsed || r.Outcome == OutcomeRepaired
}

// Beautifier runs the parse, repair and build sequence for candidate text.
// It is safe for concurrent use.
type Beautifier struct {
	Repair bool
	Engine Engine

	Latency  *stats.Latency
	Counters *stats.Counters
	Log      *slog.Logger
}

// Beautify processes one candidate text.
func (b *Beautifier) Beautify(text string) Result {
	start := time.Now()
	res := b.beautify(text)
	if b.Latency != nil {
		b.Latency.Record(time.Since(start))
	}
	b.count(res.Outcome)
	if b.Log != nil && !res.OK() {
		b.Log.Debug("candidate skipped", "outcome", res.Outcome, "length", len(text))
	}
	return res
}

func (b *Beautifier) beautify(text string) Result {
	if text == "" {
		return Result{Outcome: OutcomeNotJSON}
	}

	outcome := OutcomeParsed
	v, ok := TryParse(text)
	if !ok {
		if !b.Repair {
			return Result{Outcome: OutcomeNotJSON}
		}
		v, ok = b.repair(Trim(text))
		if !ok {
			return Result{Outcome: OutcomeRepairFailed}
		}
		outcome = OutcomeRepaired
	}

	// Empty objects and arrays have nothing worth displaying.
	if v.Len() == 0 {
		return Result{Outcome: OutcomeEmpty, Value: v}
	}

	return Result{
		Outcome: outcome,
		Value:   v,
		Tree:    jsontree.NewTree(v),
		Pretty:  jsonvalue.Indent(v, "  "),
	}
}

func (b *Beautifier) repair(text string) (jsonvalue.Value, bool) {
	if b.Engine == EngineLenient {
		return repair.TryLenient(text)
	}
	return repair.TryRepair(text)
}

func (b *Beautifier) count(o Outcome) {
	if b.Counters == nil {
		return
	}
	switch o {
	case OutcomeParsed:
		b.Counters.IncParsed()
	case OutcomeRepaired:
		b.Counters.IncRepaired()
	case OutcomeNotJSON:
		b.Counters.IncNotJSON()
	case OutcomeRepairFailed:
		b.Counters.IncRepairFailed()
	case OutcomeEmpty:
		b.Counters.IncEmpty()
	}
}

// WithRepair returns a copy of b with repair switched on or off.
func (b *Beautifier) WithRepair(enabled bool) *Beautifier {
	c := *b
	c.Repair = enabled
	return &c
}

// WithEngine returns a copy of b using engine e.
func (b *Beautifier) WithEngine(e Engine) *Beautifier {
	c := *b
	c.Engine = e
	return &c
}

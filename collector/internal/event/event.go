// Package event decodes inbound pipeline execution state-change events.
//
// The raw payload is the event bus envelope:
//
//	{"id": "...", "time": "2021-04-26T15:11:59Z", "region": "us-east-1",
//	 "account": "123456789012",
//	 "detail": {"pipeline": "foobar", "execution-id": "...", "state": "SUCCEEDED"}}
//
// Decode validates the envelope against an embedded JSON Schema, maps the
// state onto types.EventState and parses the timestamp with the exact
// YYYY-MM-DDTHH:MM:SSZ layout. Every failure is a MalformedError. An
// unrecognised but non-empty state is not a failure: it decodes to a
// non-terminal EventState.
package event

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pipelinedash/pipelinedash/pkg/types"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/pipelinedash/pipelinedash/schemas/execution-event.json"

// ErrMalformed matches every MalformedError via errors.Is.
var ErrMalformed = errors.New("malformed event")

// MalformedError reports an event that cannot be processed.
type MalformedError struct {
	// Field is the offending JSON path, empty when the payload as a whole is bad.
	Field string
	Err   error
}

func (e *MalformedError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed event: %v", e.Err)
	}
	return fmt.Sprintf("malformed event: %s: %v", e.Field, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

// envelope mirrors the fields of the event bus payload that are consumed.
type envelope struct {
	ID      string `json:"id"`
	Time    string `json:"time"`
	Region  string `json:"region"`
	Account string `json:"account"`
	Detail  struct {
		Pipeline    string `json:"pipeline"`
		ExecutionID string `json:"execution-id"`
		State       string `json:"state"`
	} `json:"detail"`
}

// Decoder validates and decodes raw events. It is safe for concurrent use.
type Decoder struct {
	schema *jsonschema.Schema
}

// NewDecoder compiles the embedded event schema.
func NewDecoder() (*Decoder, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("event: add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("event: compile schema: %w", err)
	}
	return &Decoder{schema: schema}, nil
}

// Decode turns a raw payload into an ExecutionEvent.
func (d *Decoder) Decode(raw []byte) (types.ExecutionEvent, error) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return types.ExecutionEvent{}, &MalformedError{Err: err}
	}
	if err := d.schema.Validate(payload); err != nil {
		return types.ExecutionEvent{}, &MalformedError{Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return types.ExecutionEvent{}, &MalformedError{Err: err}
	}

	// A state outside the known vocabulary is carried through as-is; it is
	// never terminal, so the gate filters it instead of failing the event.
	state, err := types.ParseEventState(env.Detail.State)
	if err != nil {
		slog.Debug("event: unrecognised state", "state", env.Detail.State, "err", err)
		state = types.EventState(env.Detail.State)
	}

	ts, err := ParseTime(env.Time)
	if err != nil {
		return types.ExecutionEvent{}, &MalformedError{Field: "time", Err: err}
	}

	return types.ExecutionEvent{
		ID:           env.ID,
		PipelineName: env.Detail.Pipeline,
		ExecutionID:  env.Detail.ExecutionID,
		State:        state,
		Time:         ts,
		Region:       env.Region,
		Account:      env.Account,
	}, nil
}

// ParseTime parses an event timestamp. Only the exact second-precision UTC
// layout is accepted; time.Parse alone would also take fractional seconds.
func ParseTime(s string) (time.Time, error) {
	if len(s) != len(types.EventTimeLayout) {
		return time.Time{}, fmt.Errorf("timestamp %q does not match layout %s", s, types.EventTimeLayout)
	}
	return time.Parse(types.EventTimeLayout, s)
}

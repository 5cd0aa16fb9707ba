package event

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// succeededEvent is a realistic CodePipeline execution state change.
const succeededEvent = `{
  "version": "0",
  "id": "54e8c14a-656d-a3f0-1301-ddb7d16aad1f",
  "detail-type": "CodePipeline Pipeline Execution State Change",
  "source": "aws.codepipeline",
  "account": "123456789012",
  "time": "2021-04-26T15:11:59Z",
  "region": "us-east-1",
  "resources": ["arn:aws:codepipeline:us-east-1:123456789012:foobar"],
  "detail": {
    "pipeline": "foobar",
    "execution-id": "a577f902-c777-4b06-859a-378e2f3a8abe",
    "state": "SUCCEEDED",
    "version": 2.0
  }
}`

func newDecoder(t *testing.T) *Decoder {
	t.Helper()
	d, err := NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder() error: %v", err)
	}
	return d
}

func TestDecode_Valid(t *testing.T) {
	ev, err := newDecoder(t).Decode([]byte(succeededEvent))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if ev.PipelineName != "foobar" {
		t.Errorf("PipelineName = %q", ev.PipelineName)
	}
	if ev.ExecutionID != "a577f902-c777-4b06-859a-378e2f3a8abe" {
		t.Errorf("ExecutionID = %q", ev.ExecutionID)
	}
	if ev.State != types.EventSucceeded {
		t.Errorf("State = %q", ev.State)
	}
	want := time.Date(2021, 4, 26, 15, 11, 59, 0, time.UTC)
	if !ev.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", ev.Time, want)
	}
	if ev.ID != "54e8c14a-656d-a3f0-1301-ddb7d16aad1f" || ev.Region != "us-east-1" || ev.Account != "123456789012" {
		t.Errorf("envelope fields not decoded: %+v", ev)
	}
}

func TestDecode_NonTerminalStateIsNotMalformed(t *testing.T) {
	raw := strings.Replace(succeededEvent, `"SUCCEEDED"`, `"STARTED"`, 1)
	ev, err := newDecoder(t).Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if ev.State.Terminal() {
		t.Errorf("STARTED decoded as terminal")
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"not json", `{"detail":`, ""},
		{"missing detail", `{"time": "2021-04-26T15:11:59Z"}`, ""},
		{"missing time", `{"detail": {"pipeline": "p", "execution-id": "e", "state": "FAILED"}}`, ""},
		{"empty pipeline", `{"time": "2021-04-26T15:11:59Z", "detail": {"pipeline": "", "execution-id": "e", "state": "FAILED"}}`, ""},
		{"numeric state", `{"time": "2021-04-26T15:11:59Z", "detail": {"pipeline": "p", "execution-id": "e", "state": 3}}`, ""},
		{"empty state", `{"time": "2021-04-26T15:11:59Z", "detail": {"pipeline": "p", "execution-id": "e", "state": ""}}`, ""},
		{"offset timestamp", `{"time": "2021-04-26T15:11:59+02:00", "detail": {"pipeline": "p", "execution-id": "e", "state": "FAILED"}}`, "time"},
		{"fractional timestamp", `{"time": "2021-04-26T15:11:59.123Z", "detail": {"pipeline": "p", "execution-id": "e", "state": "FAILED"}}`, "time"},
		{"date only", `{"time": "2021-04-26", "detail": {"pipeline": "p", "execution-id": "e", "state": "FAILED"}}`, "time"},
	}
	d := newDecoder(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.Decode([]byte(tc.raw))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("Decode() error = %v, want ErrMalformed", err)
			}
			var me *MalformedError
			if !errors.As(err, &me) {
				t.Fatalf("expected *MalformedError, got %T", err)
			}
			if me.Field != tc.field {
				t.Errorf("Field = %q, want %q", me.Field, tc.field)
			}
		})
	}
}

func TestDecode_UnknownStateIsNonTerminal(t *testing.T) {
	for _, state := range []string{"QUEUED", "PAUSED", "succeeded"} {
		raw := strings.Replace(succeededEvent, `"SUCCEEDED"`, `"`+state+`"`, 1)
		ev, err := newDecoder(t).Decode([]byte(raw))
		if err != nil {
			t.Fatalf("Decode(%s) error: %v", state, err)
		}
		if ev.State != types.EventState(state) || ev.State.Terminal() {
			t.Errorf("Decode(%s) state = %q terminal=%v, want raw non-terminal", state, ev.State, ev.State.Terminal())
		}
	}
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2021-04-26T15:11:59Z")
	if err != nil {
		t.Fatalf("ParseTime() error: %v", err)
	}
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}
}

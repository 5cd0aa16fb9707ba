// Package derive turns reconciled reference points into metric points.
//
// Derive is pure: it performs no I/O and its result depends only on its
// inputs. Each rule is evaluated independently, zero-valued points are
// dropped, and a negative duration is reported as an Anomaly instead of being
// clamped or published.
package derive

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pipelinedash/pipelinedash/collector/internal/reconcile"
	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// ErrNegativeDuration is returned by Seconds when to is before from.
var ErrNegativeDuration = errors.New("negative duration")

// Anomaly is a duration metric that was computed as negative and withheld.
type Anomaly struct {
	Metric  types.MetricName `json:"metric"`
	Seconds int64            `json:"seconds"`
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s=%ds", a.Metric, a.Seconds)
}

// Derivation is the output of Derive.
type Derivation struct {
	// Points are ready to publish: every value is positive.
	Points    []types.MetricPoint
	Anomalies []Anomaly
}

// Seconds returns to-from in whole seconds, rounding half to even.
// A negative result is returned together with ErrNegativeDuration.
func Seconds(from, to time.Time) (int64, error) {
	secs := int64(math.RoundToEven(to.Sub(from).Seconds()))
	if secs < 0 {
		return secs, fmt.Errorf("%w: %ds", ErrNegativeDuration, secs)
	}
	return secs, nil
}

// Derive computes the metric points for ev given its reference points.
// Every point carries the event's pipeline name and timestamp.
func Derive(ev types.ExecutionEvent, refs reconcile.ReferencePoints) Derivation {
	d := deriver{ev: ev}

	outcome := ev.State.Outcome()
	if refs.Current != nil {
		outcome = refs.Current.Status
	}
	switch outcome {
	case types.StatusSucceeded:
		d.add(types.SuccessCount, 1)
	case types.StatusFailed:
		d.add(types.FailureCount, 1)
	}

	cur := refs.Current
	if cur == nil {
		return d.out
	}

	if refs.PriorState != nil && refs.PriorState.Status != cur.Status {
		switch cur.Status {
		case types.StatusSucceeded:
			d.duration(types.RedTime, refs.PriorState.StartTime, cur.StartTime)
		case types.StatusFailed:
			d.duration(types.YellowTime, refs.PriorState.StartTime, cur.StartTime)
		}
	}

	switch cur.Status {
	case types.StatusSucceeded:
		if refs.PriorSuccess != nil {
			d.duration(types.SuccessCycleTime, refs.PriorSuccess.LastUpdateTime, cur.LastUpdateTime)
		}
		d.duration(types.SuccessLeadTime, cur.StartTime, cur.LastUpdateTime)
		if refs.IsFinalState && refs.PriorSuccessPlusOne != nil {
			d.duration(types.DeliveryLeadTime, refs.PriorSuccessPlusOne.StartTime, cur.LastUpdateTime)
		}
	case types.StatusFailed:
		d.duration(types.FailureLeadTime, cur.StartTime, cur.LastUpdateTime)
	}

	return d.out
}

type deriver struct {
	ev  types.ExecutionEvent
	out Derivation
}

func (d *deriver) add(name types.MetricName, value int64) {
	if value == 0 {
		return
	}
	d.out.Points = append(d.out.Points, types.NewPoint(name, value, d.ev.PipelineName, d.ev.Time))
}

func (d *deriver) duration(name types.MetricName, from, to time.Time) {
	secs, err := Seconds(from, to)
	if err != nil {
		d.out.Anomalies = append(d.out.Anomalies, Anomaly{Metric: name, Seconds: secs})
		return
	}
	d.add(name, secs)
}

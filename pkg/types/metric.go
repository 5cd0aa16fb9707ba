package types

import "time"

// Namespace and Dimension identify where pipeline metrics live in the metric store.
const (
	Namespace = "Pipeline"
	Dimension = "PipelineName"
)

// MetricName is the closed set of metrics derived from execution events.
type MetricName string

const (
	SuccessCount     MetricName = "SuccessCount"
	FailureCount     MetricName = "FailureCount"
	RedTime          MetricName = "RedTime"    // time failing before recovery (MTTR)
	YellowTime       MetricName = "YellowTime" // time healthy before regressing (MTBF)
	SuccessCycleTime MetricName = "SuccessCycleTime"
	SuccessLeadTime  MetricName = "SuccessLeadTime"
	DeliveryLeadTime MetricName = "DeliveryLeadTime"
	FailureLeadTime  MetricName = "FailureLeadTime"
)

// MetricNames lists every MetricName in a stable order.
var MetricNames = []MetricName{
	SuccessCount,
	FailureCount,
	RedTime,
	YellowTime,
	SuccessCycleTime,
	SuccessLeadTime,
	DeliveryLeadTime,
	FailureLeadTime,
}

// Unit returns the unit a metric is always published with.
func (m MetricName) Unit() Unit {
	switch m {
	case SuccessCount, FailureCount:
		return UnitCount
	}
	return UnitSeconds
}

// Unit is the measurement unit of a MetricPoint.
type Unit string

const (
	UnitCount   Unit = "Count"
	UnitSeconds Unit = "Seconds"
)

// MetricPoint is one data point bound for the metric store.
type MetricPoint struct {
	Name         MetricName `json:"name"`
	Unit         Unit       `json:"unit"`
	Value        int64      `json:"value"`
	PipelineName string     `json:"pipeline_name"`
	Timestamp    time.Time  `json:"timestamp"`
}

// NewPoint builds a MetricPoint with the metric's canonical unit.
func NewPoint(name MetricName, value int64, pipeline string, ts time.Time) MetricPoint {
	return MetricPoint{
		Name:         name,
		Unit:         name.Unit(),
		Value:        value,
		PipelineName: pipeline,
		Timestamp:    ts,
	}
}

// Statistic is the aggregation a dashboard series is charted with.
type Statistic string

const (
	StatSum     Statistic = "Sum"
	StatAverage Statistic = "Average"
)

// Series describes how one metric is charted and explained on the dashboard.
type Series struct {
	Metric      MetricName
	Label       string
	Stat        Statistic
	Color       string
	Description string
}

// DashboardSeries is the fixed, ordered list of charted metrics.
// SuccessLeadTime is published but intentionally not charted.
var DashboardSeries = []Series{
	{SuccessCount, "Success Count", StatSum, "#000000", "total number of successful pipeline executions"},
	{FailureCount, "Failed Count", StatSum, "#808080", "total number of failed pipeline executions"},
	{SuccessCycleTime, "Cycle Time", StatAverage, "#212ebd", "mean time between successful pipeline executions"},
	{DeliveryLeadTime, "Lead Time", StatAverage, "#d6721b", "mean lead time from commit to production, including rework"},
	{YellowTime, "MTBF", StatAverage, "#ffcc33", "mean time between pipeline failures"},
	{RedTime, "MTTR", StatAverage, "#d62728", "mean time to pipeline recovery"},
	{FailureLeadTime, "Feedback Time", StatAverage, "#a02899", "mean lead time for failed pipeline executions"},
}

// Package observability publishes operational metrics for the background
// jobs to AWS CloudWatch. Metric emission is best-effort: a failed
// PutMetricData call is logged and dropped, never surfaced to the job.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"contesthub/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metric and dimension names.
const (
	metricJobRun       = "JobRun"
	metricJobDuration  = "JobDuration"
	metricIngestCount  = "IngestedContests"
	metricIngestFailed = "IngestFailures"

	dimJob      = "Job"
	dimResult   = "Result"
	dimPlatform = "Platform"
)

// CloudWatchMetrics emits job and ingestion metrics to a CloudWatch
// namespace.
//
// Metrics emitted:
//   - JobRun: Dims {Job, Result} -- one count per job run outcome
//   - JobDuration: Dims {Job} -- wall time of the run in milliseconds
//   - IngestedContests: Dims {Platform} -- rows upserted per cycle
//   - IngestFailures: Dims {Platform} -- rows rejected per cycle
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics publishing to namespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordJobRun emits one JobRun count and the run's duration.
func (m *CloudWatchMetrics) RecordJobRun(ctx context.Context, job string, dur time.Duration, runErr error) {
	result := "success"
	if runErr != nil {
		result = "failure"
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricJobRun),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{Name: aws.String(dimJob), Value: aws.String(job)},
					{Name: aws.String(dimResult), Value: aws.String(result)},
				},
			},
			{
				MetricName: aws.String(metricJobDuration),
				Value:      aws.Float64(float64(dur.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: []cwtypes.Dimension{
					{Name: aws.String(dimJob), Value: aws.String(job)},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to record job metrics",
			"job", job,
			"result", result,
			"error", err,
		)
	}
}

// RecordIngestCycle emits the per-platform counters of one ingestion cycle.
func (m *CloudWatchMetrics) RecordIngestCycle(ctx context.Context, platform types.Platform, fetched, upserted, failed int, dur time.Duration) {
	platformDim := []cwtypes.Dimension{
		{Name: aws.String(dimPlatform), Value: aws.String(string(platform))},
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricIngestCount),
				Value:      aws.Float64(float64(upserted)),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: platformDim,
			},
			{
				MetricName: aws.String(metricIngestFailed),
				Value:      aws.Float64(float64(failed)),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: platformDim,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to record ingest metrics",
			"platform", platform,
			"fetched", fetched,
			"error", err,
		)
	}
}

// NopMetrics discards every metric. Used when metrics are disabled.
type NopMetrics struct{}

func (NopMetrics) RecordJobRun(context.Context, string, time.Duration, error) {}
func (NopMetrics) RecordIngestCycle(context.Context, types.Platform, int, int, int, time.Duration) {
}

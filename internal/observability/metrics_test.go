package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contesthub/internal/types"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dimValue(datum cwtypes.MetricDatum, name string) string {
	for _, d := range datum.Dimensions {
		if *d.Name == name {
			return *d.Value
		}
	}
	return ""
}

func TestRecordJobRun_Success(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewCloudWatchMetrics(cw, "ContestHubTest", testLogger())

	m.RecordJobRun(context.Background(), "contest-ingest", 1500*time.Millisecond, nil)

	require.Len(t, cw.inputs, 1)
	input := cw.inputs[0]
	assert.Equal(t, "ContestHubTest", *input.Namespace)
	require.Len(t, input.MetricData, 2)

	run := input.MetricData[0]
	assert.Equal(t, "JobRun", *run.MetricName)
	assert.Equal(t, float64(1), *run.Value)
	assert.Equal(t, "contest-ingest", dimValue(run, "Job"))
	assert.Equal(t, "success", dimValue(run, "Result"))

	dur := input.MetricData[1]
	assert.Equal(t, "JobDuration", *dur.MetricName)
	assert.Equal(t, float64(1500), *dur.Value)
	assert.Equal(t, cwtypes.StandardUnitMilliseconds, dur.Unit)
}

func TestRecordJobRun_FailureResult(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewCloudWatchMetrics(cw, "ContestHubTest", testLogger())

	m.RecordJobRun(context.Background(), "status-sweep", time.Second, errors.New("db down"))

	require.Len(t, cw.inputs, 1)
	assert.Equal(t, "failure", dimValue(cw.inputs[0].MetricData[0], "Result"))
}

func TestRecordIngestCycle(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewCloudWatchMetrics(cw, "ContestHubTest", testLogger())

	m.RecordIngestCycle(context.Background(), types.PlatformCodeforces, 40, 38, 2, time.Second)

	require.Len(t, cw.inputs, 1)
	require.Len(t, cw.inputs[0].MetricData, 2)

	upserted := cw.inputs[0].MetricData[0]
	assert.Equal(t, "IngestedContests", *upserted.MetricName)
	assert.Equal(t, float64(38), *upserted.Value)
	assert.Equal(t, "Codeforces", dimValue(upserted, "Platform"))

	failed := cw.inputs[0].MetricData[1]
	assert.Equal(t, "IngestFailures", *failed.MetricName)
	assert.Equal(t, float64(2), *failed.Value)
}

func TestRecordJobRun_PublishErrorIsSwallowed(t *testing.T) {
	cw := &fakeCloudWatch{err: errors.New("throttled")}
	m := NewCloudWatchMetrics(cw, "ContestHubTest", testLogger())

	// Must not panic or propagate; the job outcome is independent of metrics.
	m.RecordJobRun(context.Background(), "notify-digest", time.Second, nil)
	require.Len(t, cw.inputs, 1)
}

package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// PutMetricDataAPI is the slice of the CloudWatch client used here.
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// SyncRunReport summarises one weather sync run.
type SyncRunReport struct {
	Cities    int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// CloudWatchMetrics publishes sync run outcomes to CloudWatch.
type CloudWatchMetrics struct {
	namespace string
	client    PutMetricDataAPI
	logger    *zap.Logger
}

// NewCloudWatchMetrics creates a publisher. A nil client turns every call into a no-op.
func NewCloudWatchMetrics(namespace string, client PutMetricDataAPI, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordSyncRun sends the counts and duration of a sync run.
func (m *CloudWatchMetrics) RecordSyncRun(ctx context.Context, report SyncRunReport) {
	if m == nil || m.client == nil {
		return
	}

	now := aws.Time(time.Now())
	dims := []types.Dimension{{Name: aws.String("Job"), Value: aws.String("weather-sync")}}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String("SyncCities"),
				Dimensions: dims,
				Value:      aws.Float64(float64(report.Cities)),
				Unit:       types.StandardUnitCount,
				Timestamp:  now,
			},
			{
				MetricName: aws.String("SyncJobsSucceeded"),
				Dimensions: dims,
				Value:      aws.Float64(float64(report.Succeeded)),
				Unit:       types.StandardUnitCount,
				Timestamp:  now,
			},
			{
				MetricName: aws.String("SyncJobsFailed"),
				Dimensions: dims,
				Value:      aws.Float64(float64(report.Failed)),
				Unit:       types.StandardUnitCount,
				Timestamp:  now,
			},
			{
				MetricName: aws.String("SyncDuration"),
				Dimensions: dims,
				Value:      aws.Float64(float64(report.Duration.Milliseconds())),
				Unit:       types.StandardUnitMilliseconds,
				Timestamp:  now,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Warn("Failed to send sync metrics", zap.Error(err))
	}
}

package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCollector(t *testing.T) {
	t.Run("Should count cache and upstream outcomes per label", func(t *testing.T) {
		c := NewCollector("weather")

		c.RecordCacheHit("weather:current")
		c.RecordCacheHit("weather:current")
		c.RecordCacheMiss("weather:forecast")
		c.RecordCacheError("user", "get")
		c.RecordUpstreamAttempt("api.weatherapi.com", "timeout")
		c.RecordSyncJob("succeeded")

		assert.Equal(t, 2.0, testutil.ToFloat64(c.CacheHits.WithLabelValues("weather:current")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheMisses.WithLabelValues("weather:forecast")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheErrors.WithLabelValues("user", "get")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.UpstreamAttempts.WithLabelValues("api.weatherapi.com", "timeout")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.SyncJobs.WithLabelValues("succeeded")))
	})

	t.Run("Should expose its own registry over http", func(t *testing.T) {
		c := NewCollector("weather")
		c.RecordHTTPRequest(http.MethodGet, "/api/v1/ping", http.StatusOK, 10*time.Millisecond)

		rec := httptest.NewRecorder()
		c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `weather_http_requests_total{method="GET",route="/api/v1/ping",status="200"} 1`)
	})

	t.Run("Should allow two collectors side by side", func(t *testing.T) {
		assert.NotPanics(t, func() {
			NewCollector("weather")
			NewCollector("weather")
		})
	})
}

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestCloudWatchMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Should publish one datum per figure", func(t *testing.T) {
		fake := &fakeCloudWatch{}
		m := NewCloudWatchMetrics("WeatherAPI", fake, zap.NewNop())

		m.RecordSyncRun(ctx, SyncRunReport{Cities: 3, Succeeded: 2, Failed: 1, Duration: time.Second})

		require.Len(t, fake.inputs, 1)
		assert.Equal(t, "WeatherAPI", *fake.inputs[0].Namespace)
		require.Len(t, fake.inputs[0].MetricData, 4)
		assert.Equal(t, 1.0, *fake.inputs[0].MetricData[2].Value)
	})

	t.Run("Should log and carry on when CloudWatch fails", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		m := NewCloudWatchMetrics("WeatherAPI", &fakeCloudWatch{err: errors.New("throttled")}, zap.New(core))

		m.RecordSyncRun(ctx, SyncRunReport{})
		assert.Equal(t, 1, logs.FilterMessage("Failed to send sync metrics").Len())
	})

	t.Run("Should do nothing without a client", func(t *testing.T) {
		var m *CloudWatchMetrics
		assert.NotPanics(t, func() { m.RecordSyncRun(ctx, SyncRunReport{}) })
	})
}

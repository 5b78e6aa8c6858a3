package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// XRayTracer records subsegments when running inside Lambda, where the function
// invocation already owns the segment.
type XRayTracer struct {
	serviceName string
}

// NewXRayTracer creates a new tracer instance
func NewXRayTracer(serviceName string) *XRayTracer {
	return &XRayTracer{serviceName: serviceName}
}

// TraceFunction wraps fn in a subsegment named after the service and operation.
func (t *XRayTracer) TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, seg := xray.BeginSubsegment(ctx, fmt.Sprintf("%s.%s", t.serviceName, name))
	if seg == nil {
		return fn(ctx)
	}

	err := fn(ctx)
	seg.Close(err)
	return err
}

// AddAnnotation adds an indexed annotation to the current segment
func (t *XRayTracer) AddAnnotation(ctx context.Context, key string, value string) {
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddAnnotation(key, value)
	}
}

// InstrumentHTTPClient makes every outbound call of c a subsegment.
func InstrumentHTTPClient(c *http.Client) *http.Client {
	return xray.Client(c)
}

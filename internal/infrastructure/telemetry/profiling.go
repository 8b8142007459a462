package telemetry

import (
	"context"

	"github.com/grafana/pyroscope-go"
)

// Profile label names attached to samples taken while serving a request
const (
	ProfileLabelRoute    = "route"
	ProfileLabelMethod   = "method"
	ProfileLabelTenantID = "tenant_id"
)

// WithProfileLabels runs fn with pprof labels so its CPU samples can be
// filtered in Pyroscope. Empty values are skipped.
func WithProfileLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := make([]string, 0, len(labels)*2)
	for k, v := range labels {
		if k == "" || v == "" {
			continue
		}
		pairs = append(pairs, k, v)
	}
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

package instrumentation

import (
	"context"
	"fmt"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends everything in gatherer to the Pushgateway at url under the
// given job, replacing the metrics previously pushed for that job.
func Push(ctx context.Context, url, job string, gatherer promclient.Gatherer) error {
	if url == "" {
		return fmt.Errorf("pushgateway URL cannot be empty")
	}
	if job == "" {
		return fmt.Errorf("pushgateway job cannot be empty")
	}

	if err := push.New(url, job).Gatherer(gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}

// Package logger exposes a standard-library logger backed by Cloud Logging,
// for code paths that predate the slog handler. Only usable on GCP, where the
// metadata server provides the project id.
package logger

import (
	"context"
	"log"
	"sync"

	"cloud.google.com/go/compute/metadata"
	"cloud.google.com/go/logging"
)

const logName = "messenger"

var (
	once   sync.Once
	stdLog *log.Logger
)

// FromContext returns the process-wide Cloud Logging standard logger,
// creating it on first use. Startup fails hard when the logging client
// cannot be built; running blind on GCP is worse than not starting.
func FromContext(ctx context.Context) *log.Logger {
	once.Do(func() {
		projectID, err := metadata.ProjectIDWithContext(ctx)
		if err != nil {
			log.Fatalf("failed to get project ID: %v", err)
		}
		client, err := logging.NewClient(ctx, projectID)
		if err != nil {
			log.Fatalf("failed to create logging client: %v", err)
		}
		stdLog = client.Logger(logName).StandardLogger(logging.Info)
	})
	return stdLog
}

// Command reconciler triggers a system-wide reconciliation run against a
// running API. Exit status 2 means drift was found and corrected.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"dompet/internal/config"
	"dompet/internal/logger"
	"dompet/internal/maintenance"
)

func main() {
	cfg, err := config.LoadReconciler()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Env)
	defer logger.Sync()
	log := logger.Get().With("job", "reconciler")

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	client := maintenance.NewClient(cfg.APIURL, cfg.APIKey, httpClient)

	summary, err := client.ReconcileAll(context.Background())
	if err != nil {
		log.Errorw("reconciliation run failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}

	log.Infow("reconciliation run completed",
		"checked", summary.Checked,
		"drifted", len(summary.Drifted),
	)

	for _, r := range summary.Drifted {
		log.Warnw("drift corrected",
			"entity_type", r.EntityType,
			"entity_id", r.EntityID,
			"stored", r.Stored.String(),
			"computed", r.Computed.String(),
			"drift", r.Drift.String(),
		)
	}

	if len(summary.Drifted) > 0 {
		logger.Sync()
		os.Exit(2)
	}
}

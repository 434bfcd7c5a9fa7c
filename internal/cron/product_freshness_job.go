package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

const defaultFreshWindow = 48 * time.Hour

type productFreshener interface {
	ClearNewFlags(ctx context.Context, createdBefore time.Time) (int64, error)
}

type ProductFreshnessJobParams struct {
	Logger   *logger.Logger
	Products productFreshener
	Window   time.Duration
}

// NewProductFreshnessJob clears the "new" badge on products listed longer
// than Window ago.
func NewProductFreshnessJob(params ProductFreshnessJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultFreshWindow
	}
	return &productFreshnessJob{
		logg:     params.Logger,
		products: params.Products,
		window:   window,
		now:      time.Now,
	}, nil
}

type productFreshnessJob struct {
	logg     *logger.Logger
	products productFreshener
	window   time.Duration
	now      func() time.Time
}

func (j *productFreshnessJob) Name() string { return "product_freshness" }

func (j *productFreshnessJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.window)
	updated, err := j.products.ClearNewFlags(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("clear new flags: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":           cutoff,
		"products_updated": updated,
	})
	j.logg.Info(logCtx, "cron.product_freshness.complete")
	return nil
}

package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

type couponSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

type CouponExpiryJobParams struct {
	Logger  *logger.Logger
	Coupons couponSweeper
}

// NewCouponExpiryJob marks coupons whose end date has passed as expired.
// Coupon reads sweep on their own; the job keeps the table honest for
// listings and reports that never touch the service.
func NewCouponExpiryJob(params CouponExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon sweeper required")
	}
	return &couponExpiryJob{logg: params.Logger, coupons: params.Coupons}, nil
}

type couponExpiryJob struct {
	logg    *logger.Logger
	coupons couponSweeper
}

func (j *couponExpiryJob) Name() string { return "coupon_expiry" }

func (j *couponExpiryJob) Run(ctx context.Context) error {
	expired, err := j.coupons.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("sweep expired coupons: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "coupons_expired", expired), "cron.coupon_expiry.complete")
	return nil
}

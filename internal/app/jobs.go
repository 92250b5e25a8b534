package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 10m", func() {
		go a.SchedSweepStaleOrders()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@hourly", func() {
		go a.SchedAuditStockCounters()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedSweepStaleOrders cancels online orders whose payment never arrived
// within the configured window, restocking their items.
func (a *Application) SchedSweepStaleOrders() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	window := time.Duration(a.appConfig.Checkout.PaymentWindowMin) * time.Minute
	if window <= 0 {
		window = time.Hour
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	swept, err := a.checkout.SweepStaleOnlineOrders(ctx, window)
	if err != nil {
		zap.L().Error("stale order sweep failed", zap.Error(err))
		return
	}
	if swept > 0 {
		zap.L().Info("swept stale online orders", zap.Int("count", swept))
	}
}

// SchedAuditStockCounters reports drift between denormalized stock
// aggregates and their underlying variant/unit sums.
func (a *Application) SchedAuditStockCounters() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	drift, err := a.checkout.AuditStockCounters(ctx)
	if err != nil {
		zap.L().Error("stock audit failed", zap.Error(err))
		return
	}
	if drift > 0 {
		zap.L().Warn("stock counter drift detected", zap.Int("counters", drift))
	}
}

package metricspush

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/gstbook/internal/config"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("metrics.push",
	fx.Provide(NewPusher),
	fx.Invoke(startWorker),
)

// liveInvoices is refreshed from the database before every push.
type liveInvoices struct {
	gauge *prometheus.GaugeVec
}

func newLiveInvoices(registerer prometheus.Registerer) *liveInvoices {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gstbook_invoices_live",
		Help: "Invoices that are not soft-deleted, by invoice type.",
	}, []string{"invoice_type"})
	registerer.MustRegister(gauge)
	return &liveInvoices{gauge: gauge}
}

func (l *liveInvoices) refresh(ctx context.Context, db *gorm.DB) error {
	var rows []struct {
		InvoiceType string
		Count       int64
	}
	err := db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Select("invoice_type, COUNT(*) AS count").
		Group("invoice_type").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	l.gauge.Reset()
	for _, row := range rows {
		l.gauge.WithLabelValues(row.InvoiceType).Set(float64(row.Count))
	}
	return nil
}

func startWorker(lc fx.Lifecycle, cfg config.Config, pusher Pusher, registerer prometheus.Registerer, db *gorm.DB, logger *zap.Logger) {
	if pusher == nil {
		return
	}
	interval := time.Duration(cfg.MetricsPushInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	gatherer := prometheus.DefaultGatherer
	if g, ok := registerer.(prometheus.Gatherer); ok {
		gatherer = g
	}
	live := newLiveInvoices(registerer)
	log := logger.Named("metrics.push")

	pushOnce := func(ctx context.Context) {
		if err := live.refresh(ctx, db); err != nil {
			log.Warn("refresh live invoice count failed", zap.Error(err))
		}
		if err := pusher.Push(ctx, gatherer); err != nil {
			log.Error("metrics push failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("starting metrics push worker", zap.Duration("interval", interval))
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				pushOnce(ctx)
				for {
					select {
					case <-ticker.C:
						pushOnce(ctx)
					case <-ctx.Done():
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			// Final flush so short-lived runs still report.
			flushCtx, flushCancel := context.WithTimeout(context.Background(), defaultPushTimeout)
			defer flushCancel()
			if err := pusher.Push(flushCtx, gatherer); err != nil {
				log.Warn("final metrics push failed", zap.Error(err))
			}
			return nil
		},
	})
}

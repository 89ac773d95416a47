// Prometheus监控指标，由事件流循环更新，可选地通过HTTP暴露
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "metrics")

var (
	// 事件流
	EventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "traffic_sim_events_total",
			Help: "Total number of events written to the event log",
		},
	)

	LastEventID = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "traffic_sim_last_event_id",
			Help: "Id of the last event written to the event log",
		},
	)

	EventSpeed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "traffic_sim_event_speed_kmh",
			Help:    "Distribution of synthesized vehicle speeds",
			Buckets: prometheus.LinearBuckets(10, 10, 18),
		},
	)

	// 发布通道
	PublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traffic_sim_publish_errors_total",
			Help: "Total number of failed publishes per sink",
		},
		[]string{"sink"},
	)

	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "traffic_sim_publish_duration_seconds",
			Help:    "Duration of publish calls per sink",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	// 目录
	CatalogSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "traffic_sim_catalog_size",
			Help: "Number of records in each frozen catalog",
		},
		[]string{"catalog"},
	)
)

// Serve 在listen地址上暴露/metrics，ctx取消时关闭
// 说明：阻塞直到服务退出；正常关闭返回nil
func Serve(ctx context.Context, listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	log.Infof("serving metrics on %s/metrics", listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

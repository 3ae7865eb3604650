// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// store.FailureRecorder、display.SessionRecorder、screen.CRUDRecorderを
// 実装し、各層から注入されて使用される。
type Collector struct {
	screensCreated     prometheus.Counter
	screensUpdated     prometheus.Counter
	screensDeleted     prometheus.Counter
	newsImported       prometheus.Counter
	storeReadFailures  prometheus.Counter
	storeWriteFailures prometheus.Counter
	activeSessions     prometheus.Gauge
	countdownTicks     prometheus.Counter
	carouselRotations  prometheus.Counter
	httpStatus         *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		screensCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "standby_screens_created_total",
			Help: "作成されたスタンバイ画面の合計数",
		}),
		screensUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "standby_screens_updated_total",
			Help: "更新されたスタンバイ画面の合計数",
		}),
		screensDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "standby_screens_deleted_total",
			Help: "削除されたスタンバイ画面の合計数",
		}),
		newsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "standby_news_imported_total",
			Help: "フィードから取り込まれたニュースアイテムの合計数",
		}),
		storeReadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "standby_store_read_failures_total",
			Help: "ストア読み込み失敗（パース失敗を含む）の合計数",
		}),
		storeWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "standby_store_write_failures_total",
			Help: "ストア書き込み失敗の合計数",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "standby_display_sessions_active",
			Help: "アクティブな表示セッション数",
		}),
		countdownTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "standby_countdown_ticks_total",
			Help: "配信されたカウントダウンティックの合計数",
		}),
		carouselRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "standby_carousel_rotations_total",
			Help: "カルーセル回転の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "standby_http_status_total",
			Help: "HTTPレスポンスのステータスコード別合計数",
		}, []string{"status"}),
	}

	reg.MustRegister(
		c.screensCreated,
		c.screensUpdated,
		c.screensDeleted,
		c.newsImported,
		c.storeReadFailures,
		c.storeWriteFailures,
		c.activeSessions,
		c.countdownTicks,
		c.carouselRotations,
		c.httpStatus,
	)

	return c
}

// RecordScreenCreated は画面の作成を記録する。
func (c *Collector) RecordScreenCreated() { c.screensCreated.Inc() }

// RecordScreenUpdated は画面の更新を記録する。
func (c *Collector) RecordScreenUpdated() { c.screensUpdated.Inc() }

// RecordScreenDeleted は画面の削除を記録する。
func (c *Collector) RecordScreenDeleted() { c.screensDeleted.Inc() }

// RecordNewsImported は取り込まれたニュースアイテム数を記録する。
func (c *Collector) RecordNewsImported(count int) { c.newsImported.Add(float64(count)) }

// RecordStoreReadFailure はストア読み込み失敗を記録する。
func (c *Collector) RecordStoreReadFailure() { c.storeReadFailures.Inc() }

// RecordStoreWriteFailure はストア書き込み失敗を記録する。
func (c *Collector) RecordStoreWriteFailure() { c.storeWriteFailures.Inc() }

// RecordSessionStart は表示セッションの開始を記録する。
func (c *Collector) RecordSessionStart() { c.activeSessions.Inc() }

// RecordSessionEnd は表示セッションの終了を記録する。
func (c *Collector) RecordSessionEnd() { c.activeSessions.Dec() }

// RecordCountdownTick はカウントダウンティックの配信を記録する。
func (c *Collector) RecordCountdownTick() { c.countdownTicks.Inc() }

// RecordCarouselRotation はカルーセル回転を記録する。
func (c *Collector) RecordCarouselRotation() { c.carouselRotations.Inc() }

// RecordHTTPStatus はHTTPレスポンスのステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

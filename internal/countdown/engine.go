// Package countdown はスタンバイ画面のカウントダウンタイマーを提供する。
// 残り秒数の状態機械と、1秒間隔のティッカーループを含む。
package countdown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BotleApps/StandBy-Screen/internal/model"
)

// Engine はカウントダウンの状態機械。
// 残り秒数は設定時間から詳細画面のアクティベーションごとに新しく計算される。
// 永続化された締め切り時刻には紐づかないため、同じ画面を開き直すと
// カウントダウンは設定時間の最初からやり直しになる。
//
// ResetToはティックループと並行して呼ばれるため、状態はミューテックスで保護する。
type Engine struct {
	mu        sync.Mutex
	remaining int

	// tickInterval はティックの間隔。本番では常に1秒。
	tickInterval time.Duration
}

// NewEngine は設定時間を残り秒数として解釈したEngineを生成する。
// 合計が負になる場合は0から開始する。
func NewEngine(d model.CountdownDuration) *Engine {
	return NewEngineFromSeconds(d.TotalSeconds())
}

// NewEngineFromSeconds は指定秒数から開始するEngineを生成する。
func NewEngineFromSeconds(seconds int) *Engine {
	if seconds < 0 {
		seconds = 0
	}
	return &Engine{
		remaining:    seconds,
		tickInterval: time.Second,
	}
}

// Remaining は現在の残り秒数を返す。
func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

// Tick は残り秒数を1減らす。0未満にはならない。
// 残り秒数が0に到達している場合は値を変化させず、terminal=trueを返す。
// 0は終端状態であり、表示値は00:00:00で凍結される。
func (e *Engine) Tick() (remaining int, terminal bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.remaining > 0 {
		e.remaining--
	}
	return e.remaining, e.remaining == 0
}

// ResetTo は残り秒数を即座に指定値へ設定する。
// 終端状態からでもそこからティックが再開される（クイックプリセット用）。
// 負の値は0として扱う。
func (e *Engine) ResetTo(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.remaining = seconds
}

// FormattedRemaining は現在の残り秒数をHH:MM:SS形式で返す。
func (e *Engine) FormattedRemaining() string {
	return Format(e.Remaining())
}

// Format は秒数をゼロ埋めのHH:MM:SS形式に変換する。
// 0以下の値は00:00:00になる。
func Format(seconds int) string {
	if seconds <= 0 {
		return "00:00:00"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Run は1秒間隔のティッカーでカウントダウンを進める。
// コンテキストがキャンセルされるまで実行を継続する。
// 残り秒数が変化したティックごとにonTickを呼び出す。
// 終端状態では値が変化しないためonTickは呼ばれないが、
// ResetToで値が復帰するとティックも再開される。
//
// 1つの詳細画面につきアクティブなループは常に1つであり、
// 画面を切り替える際は先行ループのキャンセルが保証される
// （displayパッケージのセッションがこの責務を持つ）。
func (e *Engine) Run(ctx context.Context, onTick func(remaining int, terminal bool)) {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := e.Remaining()
			remaining, terminal := e.Tick()
			if remaining == before {
				continue
			}
			if onTick != nil {
				onTick(remaining, terminal)
			}
		}
	}
}

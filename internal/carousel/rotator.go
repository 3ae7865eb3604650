// Package carousel はニュースアイテムのカルーセル回転を提供する。
// 固定間隔で次のアイテムへ進む状態機械と、ティッカーループを含む。
package carousel

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval はカルーセルのデフォルト回転間隔。
const DefaultInterval = 7 * time.Second

// Rotator はカルーセル回転の状態機械。
// 現在位置と一時停止フラグを保持する。
// アイテムが2つ以上ある場合のみ回転し、1つ以下の場合は
// 位置が進まず回転インジケーターも表示されない。
type Rotator struct {
	mu      sync.Mutex
	length  int
	current int
	paused  bool
}

// NewRotator は指定アイテム数のRotatorを位置0で生成する。
// 負のアイテム数は0として扱う。
func NewRotator(length int) *Rotator {
	if length < 0 {
		length = 0
	}
	return &Rotator{length: length}
}

// Current は現在のアイテム位置を返す。
func (r *Rotator) Current() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Rotates は回転が有効かどうかを返す。
// アイテムが1つ以下のシーケンスは回転せず、インジケーターも出さない。
func (r *Rotator) Rotates() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.length > 1
}

// Advance は位置を1つ進める。末尾の次は先頭に戻る。
// 一時停止中またはアイテムが1つ以下の場合は位置を変えない。
// 位置が進んだ場合にtrueを返す。
func (r *Rotator) Advance() (index int, advanced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused || r.length <= 1 {
		return r.current, false
	}
	r.current = (r.current + 1) % r.length
	return r.current, true
}

// Pause はホバー等のユーザー操作による一時停止を設定する。
// 現在位置はリセットされない。
func (r *Rotator) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = true
}

// Resume は一時停止を解除する。
func (r *Rotator) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = false
}

// Paused は一時停止中かどうかを返す。
func (r *Rotator) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// Run は固定間隔のティッカーでカルーセルを回転させる。
// コンテキストがキャンセルされるまで実行を継続し、
// 位置が進んだ回転ごとにonRotateを呼び出す。
// intervalが0以下の場合はDefaultIntervalを使用する。
func (r *Rotator) Run(ctx context.Context, interval time.Duration, onRotate func(index int)) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if index, advanced := r.Advance(); advanced && onRotate != nil {
				onRotate(index)
			}
		}
	}
}

// Package display は詳細画面のライブ表示セッションを管理する。
//
// 1セッションは1つの画面に対するカウントダウンエンジンとカルーセル
// ローテーターの組であり、イベントはServer-Sent Events経由で
// 表示層へストリームされる。セッションの終了（クライアント切断または
// サーバーシャットダウン）は両方のティッカーループのキャンセルを保証し、
// 画面遷移の繰り返しでタイマーがリークすることを防ぐ。
package display

import (
	"context"

	"github.com/BotleApps/StandBy-Screen/internal/carousel"
	"github.com/BotleApps/StandBy-Screen/internal/countdown"
	"github.com/BotleApps/StandBy-Screen/internal/model"
)

// イベント種別
const (
	EventTypeScreen    = "screen"
	EventTypeCountdown = "countdown"
	EventTypeRotate    = "rotate"
)

// Event は表示層へストリームされるイベント。
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ScreenSnapshot はセッション開始時に送信される初期状態。
type ScreenSnapshot struct {
	Screen    model.StandbyScreen `json:"screen"`
	Remaining int                 `json:"remaining"`
	Formatted string              `json:"formatted"`
	Rotates   bool                `json:"rotates"`
}

// CountdownTick はカウントダウンの1ティック分の状態。
type CountdownTick struct {
	Remaining int    `json:"remaining"`
	Formatted string `json:"formatted"`
	Terminal  bool   `json:"terminal"`
}

// Rotation はカルーセルが次のアイテムへ進んだことを示す。
type Rotation struct {
	Index  int    `json:"index"`
	ItemID string `json:"itemId,omitempty"`
}

// Session は1つの詳細画面表示に対応するライブセッション。
// エンジンとローテーターのティッカーループを所有し、
// Closeで両方のキャンセルを保証する。
type Session struct {
	ID       string
	ScreenID string

	engine  *countdown.Engine
	rotator *carousel.Rotator
	items   []model.ContentItem

	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
}

// Events はセッションのイベントチャネルを返す。
// 読み手が追いつかない場合、イベントは破棄される（ブロックしない）。
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done はセッションの両ループが終了したときにクローズされるチャネルを返す。
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// snapshot はセッション開始時点の初期状態イベントを生成する。
func (s *Session) snapshot(screen model.StandbyScreen) Event {
	remaining := s.engine.Remaining()
	return Event{
		Type: EventTypeScreen,
		Data: ScreenSnapshot{
			Screen:    screen,
			Remaining: remaining,
			Formatted: countdown.Format(remaining),
			Rotates:   s.rotator.Rotates(),
		},
	}
}

// emit はイベントを非ブロッキングで送信する。
// バッファが満杯の場合は破棄する（遅い読み手が全体を止めない）。
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// emitCountdown は現在の残り秒数をカウントダウンイベントとして送信する。
func (s *Session) emitCountdown(remaining int, terminal bool) {
	s.emit(Event{
		Type: EventTypeCountdown,
		Data: CountdownTick{
			Remaining: remaining,
			Formatted: countdown.Format(remaining),
			Terminal:  terminal,
		},
	})
}

// emitRotation は回転後の位置をローテーションイベントとして送信する。
func (s *Session) emitRotation(index int) {
	ev := Rotation{Index: index}
	if index >= 0 && index < len(s.items) {
		ev.ItemID = s.items[index].ID
	}
	s.emit(Event{Type: EventTypeRotate, Data: ev})
}

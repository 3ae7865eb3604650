package display

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BotleApps/StandBy-Screen/internal/carousel"
	"github.com/BotleApps/StandBy-Screen/internal/countdown"
	"github.com/BotleApps/StandBy-Screen/internal/model"
)

// sessionEventBuffer はセッションごとのイベントバッファサイズ。
const sessionEventBuffer = 64

// SessionRecorder は表示セッションのメトリクス記録インターフェース。
type SessionRecorder interface {
	RecordSessionStart()
	RecordSessionEnd()
	RecordCountdownTick()
	RecordCarouselRotation()
}

// nopSessionRecorder はメトリクス未設定時に使用するレコーダー。
type nopSessionRecorder struct{}

func (nopSessionRecorder) RecordSessionStart()      {}
func (nopSessionRecorder) RecordSessionEnd()        {}
func (nopSessionRecorder) RecordCountdownTick()     {}
func (nopSessionRecorder) RecordCarouselRotation()  {}

// Hub はアクティブな表示セッションのレジストリ。
// 画面IDごとのセッション集合を保持し、クイックプリセットのリセットや
// ホバーによる一時停止をその画面の全セッションへブロードキャストする。
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session            // セッションID -> セッション
	byScreen map[string]map[string]*Session // 画面ID -> セッションID -> セッション

	carouselInterval time.Duration
	logger           *slog.Logger
	recorder         SessionRecorder
}

// NewHub はHubを生成する。
// carouselIntervalが0以下の場合はcarousel.DefaultIntervalを使用する。
// recorderがnilの場合はメトリクス記録を行わない。
func NewHub(carouselInterval time.Duration, logger *slog.Logger, recorder SessionRecorder) *Hub {
	if carouselInterval <= 0 {
		carouselInterval = carousel.DefaultInterval
	}
	if recorder == nil {
		recorder = nopSessionRecorder{}
	}
	return &Hub{
		sessions:         make(map[string]*Session),
		byScreen:         make(map[string]map[string]*Session),
		carouselInterval: carouselInterval,
		logger:           logger,
		recorder:         recorder,
	}
}

// StartSession は指定画面のライブセッションを開始する。
// カウントダウンは画面の設定時間から新しく開始され、
// カルーセルは先頭アイテムから回転する。
// 返されるセッションの最初のイベントは初期状態スナップショットである。
// 親コンテキストのキャンセルまたはCloseSession呼び出しで
// 両方のティッカーループが停止する。
func (h *Hub) StartSession(parent context.Context, screen model.StandbyScreen) *Session {
	ctx, cancel := context.WithCancel(parent)

	s := &Session{
		ID:       uuid.New().String(),
		ScreenID: screen.ID,
		engine:   countdown.NewEngine(screen.CountdownDuration),
		rotator:  carousel.NewRotator(len(screen.NewsItems)),
		items:    screen.NewsItems,
		events:   make(chan Event, sessionEventBuffer),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	h.register(s)

	// 初期状態スナップショットを最初のイベントとして積む
	s.emit(s.snapshot(screen))

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.engine.Run(ctx, func(remaining int, terminal bool) {
			h.recorder.RecordCountdownTick()
			s.emitCountdown(remaining, terminal)
		})
	}()

	go func() {
		defer wg.Done()
		s.rotator.Run(ctx, h.carouselInterval, func(index int) {
			h.recorder.RecordCarouselRotation()
			s.emitRotation(index)
		})
	}()

	go func() {
		wg.Wait()
		h.unregister(s)
		close(s.done)
	}()

	h.logger.Info("表示セッションを開始しました",
		slog.String("session_id", s.ID),
		slog.String("screen_id", s.ScreenID),
		slog.Int("news_item_count", len(screen.NewsItems)),
	)

	return s
}

// CloseSession はセッションの両ティッカーループを停止し、登録を解除する。
// 同一セッションへの多重呼び出しは安全。
func (h *Hub) CloseSession(s *Session) {
	s.cancel()
	<-s.done
	h.logger.Info("表示セッションを終了しました",
		slog.String("session_id", s.ID),
		slog.String("screen_id", s.ScreenID),
	)
}

// CloseAll は全アクティブセッションを終了する。
// SSE接続が残っているとHTTPサーバーのShutdownが完了しないため、
// シャットダウン時に先に呼ぶ。
func (h *Hub) CloseAll() {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		h.CloseSession(s)
	}
}

// ResetCountdown は指定画面の全アクティブセッションのカウントダウンを
// 指定秒数へ即座にリセットする。リセットしたセッション数を返す。
// クイックプリセット（1/2/5分に戻す等）から使用される。
func (h *Hub) ResetCountdown(screenID string, seconds int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, s := range h.byScreen[screenID] {
		s.engine.ResetTo(seconds)
		s.emitCountdown(s.engine.Remaining(), s.engine.Remaining() == 0)
		count++
	}
	return count
}

// PauseCarousel は指定画面の全セッションのカルーセル回転を一時停止する。
// ホバー相当のシグナルとして表示層から呼ばれる。位置はリセットされない。
func (h *Hub) PauseCarousel(screenID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, s := range h.byScreen[screenID] {
		s.rotator.Pause()
		count++
	}
	return count
}

// ResumeCarousel は指定画面の全セッションのカルーセル回転を再開する。
func (h *Hub) ResumeCarousel(screenID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, s := range h.byScreen[screenID] {
		s.rotator.Resume()
		count++
	}
	return count
}

// ActiveSessions は現在アクティブなセッション数を返す。
func (h *Hub) ActiveSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[s.ID] = s
	if h.byScreen[s.ScreenID] == nil {
		h.byScreen[s.ScreenID] = make(map[string]*Session)
	}
	h.byScreen[s.ScreenID][s.ID] = s
	h.recorder.RecordSessionStart()
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s.ID]; !ok {
		return
	}
	delete(h.sessions, s.ID)
	if group := h.byScreen[s.ScreenID]; group != nil {
		delete(group, s.ID)
		if len(group) == 0 {
			delete(h.byScreen, s.ScreenID)
		}
	}
	h.recorder.RecordSessionEnd()
}

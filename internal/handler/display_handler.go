package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BotleApps/StandBy-Screen/internal/display"
	"github.com/BotleApps/StandBy-Screen/internal/model"
)

// DisplayHubInterface は表示ハンドラーが必要とするセッションハブの
// インターフェース。
type DisplayHubInterface interface {
	// StartSession は画面のライブ表示セッションを開始する。
	StartSession(ctx context.Context, screen model.StandbyScreen) *display.Session
	// CloseSession はセッションを終了し、タイマーループの停止を待つ。
	CloseSession(s *display.Session)
	// ResetCountdown は指定画面の全セッションのカウントダウンを指定秒数に戻す。
	// 影響を受けたセッション数を返す。
	ResetCountdown(screenID string, seconds int) int
	// PauseCarousel は指定画面の全セッションのカルーセルを一時停止する。
	PauseCarousel(screenID string) int
	// ResumeCarousel は一時停止中のカルーセルを再開する。
	ResumeCarousel(screenID string) int
}

// ScreenGetter は表示セッション開始時に画面を取得するための
// 最小限のインターフェース。
type ScreenGetter interface {
	GetScreen(ctx context.Context, id string) (*model.StandbyScreen, error)
}

// DisplayHandler は詳細画面のライブ表示（SSE）のHTTPハンドラー。
type DisplayHandler struct {
	screens ScreenGetter
	hub     DisplayHubInterface
}

// NewDisplayHandler はDisplayHandlerを生成する。
func NewDisplayHandler(screens ScreenGetter, hub DisplayHubInterface) *DisplayHandler {
	return &DisplayHandler{
		screens: screens,
		hub:     hub,
	}
}

// sessionCountResponse はセッション操作系エンドポイントのレスポンス。
type sessionCountResponse struct {
	AffectedSessions int `json:"affectedSessions"`
}

// Stream は画面のライブ表示イベントをServer-Sent Eventsで配信する。
// GET /api/screens/:id/display
//
// クライアント切断またはサーバーシャットダウンでセッションは必ず
// 終了し、カウントダウンとカルーセルのティッカーも停止する。
func (h *DisplayHandler) Stream(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "id")

	screen, err := h.screens.GetScreen(r.Context(), screenID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     "STREAMING_UNSUPPORTED",
			Message:  "ストリーミングがサポートされていません。",
			Category: "system",
			Action:   "SSE対応のクライアントで接続してください。",
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	session := h.hub.StartSession(r.Context(), *screen)
	defer h.hub.CloseSession(session)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-session.Done():
			return
		case ev, ok := <-session.Events():
			if !ok {
				return
			}
			if err := writeSSEEvent(w, ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// resetCountdownRequest はカウントダウンリセットリクエストのボディ。
// secondsはクイックプリセット（1/2/5分に戻す等）用の任意指定で、
// 省略時は画面の設定時間へ戻す。
type resetCountdownRequest struct {
	Seconds *int `json:"seconds"`
}

// ResetCountdown は表示中セッションのカウントダウンをリセットする。
// ボディで秒数が指定された場合はその値へ、なければ設定時間へ戻す。
// POST /api/screens/:id/display/reset
func (h *DisplayHandler) ResetCountdown(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "id")

	screen, err := h.screens.GetScreen(r.Context(), screenID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	seconds := screen.CountdownDuration.TotalSeconds()

	var req resetCountdownRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		writeDecodeError(w, decodeErr)
		return
	}
	if req.Seconds != nil {
		if *req.Seconds < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_REQUEST",
				Message:  "リセット秒数は0以上で指定してください。",
				Category: "validation",
				Action:   "secondsに0以上の値を指定してください。",
			})
			return
		}
		seconds = *req.Seconds
	}

	count := h.hub.ResetCountdown(screenID, seconds)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessionCountResponse{AffectedSessions: count})
}

// PauseCarousel は表示中セッションのカルーセルを一時停止する。
// POST /api/screens/:id/display/pause
func (h *DisplayHandler) PauseCarousel(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "id")

	if _, err := h.screens.GetScreen(r.Context(), screenID); err != nil {
		handleServiceError(w, err)
		return
	}

	count := h.hub.PauseCarousel(screenID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessionCountResponse{AffectedSessions: count})
}

// ResumeCarousel は一時停止中のカルーセルを再開する。
// POST /api/screens/:id/display/resume
func (h *DisplayHandler) ResumeCarousel(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "id")

	if _, err := h.screens.GetScreen(r.Context(), screenID); err != nil {
		handleServiceError(w, err)
		return
	}

	count := h.hub.ResumeCarousel(screenID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessionCountResponse{AffectedSessions: count})
}

// writeSSEEvent はSSEフォーマット（event + dataの2行）でイベントを書き込む。
func writeSSEEvent(w http.ResponseWriter, ev display.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}

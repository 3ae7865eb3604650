package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BotleApps/StandBy-Screen/internal/model"
)

// ScreenServiceInterface はスクリーンハンドラーが必要とするサービスインターフェース。
type ScreenServiceInterface interface {
	// ListScreens は保存済みスタンバイ画面の一覧を返す。
	ListScreens(ctx context.Context) ([]model.StandbyScreen, error)
	// GetScreen はIDで画面を取得する。見つからない場合はAPIErrorを返す。
	GetScreen(ctx context.Context, id string) (*model.StandbyScreen, error)
	// CreateScreen はドラフトから画面を作成し、更新後の一覧を返す。
	CreateScreen(ctx context.Context, draft model.ScreenDraft) ([]model.StandbyScreen, error)
	// UpdateScreen は既存画面を更新し、更新後の一覧を返す。
	UpdateScreen(ctx context.Context, screen model.StandbyScreen) ([]model.StandbyScreen, error)
	// DeleteScreen は画面を削除し、更新後の一覧を返す。
	DeleteScreen(ctx context.Context, id string) ([]model.StandbyScreen, error)
	// ImportNews はフィードからニュースを取り込み、更新後の画面を返す。
	ImportNews(ctx context.Context, screenID, feedURL string) (*model.StandbyScreen, error)
}

// ScreenHandler はスタンバイ画面管理のHTTPハンドラー。
type ScreenHandler struct {
	service ScreenServiceInterface
}

// NewScreenHandler はScreenHandlerを生成する。
func NewScreenHandler(service ScreenServiceInterface) *ScreenHandler {
	return &ScreenHandler{service: service}
}

// importNewsRequest はニュース取り込みリクエストのボディ。
type importNewsRequest struct {
	FeedURL string `json:"feedUrl"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ListScreens は画面一覧を返す。
// GET /api/screens
func (h *ScreenHandler) ListScreens(w http.ResponseWriter, r *http.Request) {
	screens, err := h.service.ListScreens(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 空コレクションでもnullではなく[]を返す
	if screens == nil {
		screens = []model.StandbyScreen{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(screens)
}

// GetScreen は画面詳細を返す。
// GET /api/screens/:id
func (h *ScreenHandler) GetScreen(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "id")

	screen, err := h.service.GetScreen(r.Context(), screenID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(screen)
}

// CreateScreen は画面を新規作成する。
// POST /api/screens
func (h *ScreenHandler) CreateScreen(w http.ResponseWriter, r *http.Request) {
	var draft model.ScreenDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeDecodeError(w, err)
		return
	}

	screens, err := h.service.CreateScreen(r.Context(), draft)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(screens)
}

// UpdateScreen は既存画面を更新する。
// PUT /api/screens/:id
func (h *ScreenHandler) UpdateScreen(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "id")

	var screen model.StandbyScreen
	if err := json.NewDecoder(r.Body).Decode(&screen); err != nil {
		writeDecodeError(w, err)
		return
	}

	// パスのIDが常に優先される
	screen.ID = screenID

	screens, err := h.service.UpdateScreen(r.Context(), screen)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(screens)
}

// DeleteScreen は画面を削除し、削除後の一覧を返す。
// 存在しないIDの削除もno-opとして200を返す（冪等）。
// DELETE /api/screens/:id
func (h *ScreenHandler) DeleteScreen(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "id")

	screens, err := h.service.DeleteScreen(r.Context(), screenID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if screens == nil {
		screens = []model.StandbyScreen{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(screens)
}

// ImportNews はフィードからニュースを取り込み画面に追加する。
// POST /api/screens/:id/news/import
func (h *ScreenHandler) ImportNews(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "id")

	var req importNewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if req.FeedURL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "フィードURLが空です。",
			Category: "validation",
			Action:   "feedUrlを指定してください。",
		})
		return
	}

	screen, err := h.service.ImportNews(r.Context(), screenID, req.FeedURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(screen)
}

// --- ヘルパー関数 ---

// writeDecodeError はリクエストボディ解析失敗の統一レスポンスを書き込む。
func writeDecodeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		// ContentValueのUnmarshalJSONが返す種別エラーはそのまま返す
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeScreenNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidDraft,
		model.ErrCodeInvalidDuration,
		model.ErrCodeInvalidContentKind,
		model.ErrCodeInvalidImageURL,
		"INVALID_REQUEST":
		return http.StatusBadRequest
	case model.ErrCodeFeedImportFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

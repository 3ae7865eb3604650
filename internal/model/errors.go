package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, screen, feed, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeScreenNotFound     = "SCREEN_NOT_FOUND"
	ErrCodeInvalidDraft       = "INVALID_DRAFT"
	ErrCodeInvalidDuration    = "INVALID_DURATION"
	ErrCodeInvalidContentKind = "INVALID_CONTENT_KIND"
	ErrCodeInvalidImageURL    = "INVALID_IMAGE_URL"
	ErrCodeFeedImportFailed   = "FEED_IMPORT_FAILED"
)

// NewScreenNotFoundError は画面未検出エラーを生成する。
// 存在しないIDの参照は想定内の結果であり、クラッシュではなく
// 専用の「見つかりません」状態として表示される。
func NewScreenNotFoundError(screenID string) *APIError {
	return &APIError{
		Code:     ErrCodeScreenNotFound,
		Message:  fmt.Sprintf("指定されたスタンバイ画面が見つかりません: %s", screenID),
		Category: "screen",
		Action:   "一覧画面に戻って画面を選び直してください。",
	}
}

// NewInvalidDraftError は必須フィールド欠落エラーを生成する。
func NewInvalidDraftError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDraft,
		Message:  fmt.Sprintf("必須フィールドが入力されていません: %s", field),
		Category: "validation",
		Action:   "タイトルとカテゴリを入力してください。",
	}
}

// NewInvalidDurationError はカウントダウン時間の範囲外エラーを生成する。
func NewInvalidDurationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDuration,
		Message:  fmt.Sprintf("カウントダウン時間が不正です: %s", reason),
		Category: "validation",
		Action:   "時間は0以上、分・秒は0〜59の範囲で指定してください。",
	}
}

// NewInvalidContentKindError は未知のコンテンツ種別エラーを生成する。
func NewInvalidContentKindError(kind string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidContentKind,
		Message:  fmt.Sprintf("未知のコンテンツ種別です: %q", kind),
		Category: "validation",
		Action:   "コンテンツ種別には text または image を指定してください。",
	}
}

// NewInvalidImageURLError は画像URL検証エラーを生成する。
func NewInvalidImageURLError(rawURL, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImageURL,
		Message:  fmt.Sprintf("画像URLが不正です (%s): %s", reason, rawURL),
		Category: "validation",
		Action:   "httpsで始まる公開URLを指定してください。",
	}
}

// NewFeedImportFailedError はフィード取り込み失敗エラーを生成する。
func NewFeedImportFailedError(feedURL string, cause error) *APIError {
	return &APIError{
		Code:     ErrCodeFeedImportFailed,
		Message:  fmt.Sprintf("フィードの取り込みに失敗しました: %s: %v", feedURL, cause),
		Category: "feed",
		Action:   "フィードURLが正しいか確認し、しばらく待ってから再度お試しください。",
	}
}

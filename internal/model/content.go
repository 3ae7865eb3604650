package model

import (
	"encoding/json"
	"fmt"
)

// ContentKind はカルーセルコンテンツの種別を表す。
type ContentKind string

const (
	// ContentKindText はリッチテキスト（サニタイズ済みHTML）コンテンツを示す。
	ContentKindText ContentKind = "text"
	// ContentKindImage は画像URLコンテンツを示す。
	ContentKindImage ContentKind = "image"
)

// ContentValue はテキストまたは画像のタグ付きユニオン。
// 常にどちらか一方の種別のみが有効になる。
type ContentValue struct {
	Kind  ContentKind `json:"kind"`
	Value string      `json:"value"`
}

// Validate は種別が既知のものであることを検証する。
func (c ContentValue) Validate() error {
	switch c.Kind {
	case ContentKindText, ContentKindImage:
		return nil
	default:
		return NewInvalidContentKindError(string(c.Kind))
	}
}

// IsText はテキストコンテンツかどうかを返す。
func (c ContentValue) IsText() bool { return c.Kind == ContentKindText }

// IsImage は画像コンテンツかどうかを返す。
func (c ContentValue) IsImage() bool { return c.Kind == ContentKindImage }

// UnmarshalJSON は未知のkindをデコード時に拒否する。
// 永続化済みレコードの読み戻しではなく、APIバウンダリでの
// 入力検証として機能する。
func (c *ContentValue) UnmarshalJSON(data []byte) error {
	type raw ContentValue
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("コンテンツ値のデコードに失敗しました: %w", err)
	}
	v := ContentValue(r)
	if err := v.Validate(); err != nil {
		return err
	}
	*c = v
	return nil
}

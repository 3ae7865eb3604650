// Package model はドメインモデルを定義する。
package model

import "time"

// DefaultWelcomeMessage はwelcomeMessageが空の場合に表示層が使用する
// デフォルト文言。永続化はされず、表示時のみ適用される。
const DefaultWelcomeMessage = "Session Starting Soon"

// CountdownDuration はカウントダウンの設定時間を表す。
// 締め切り時刻ではなく「設定された長さ」であり、
// 詳細画面を開くたびに残り秒数として再解釈される。
type CountdownDuration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// TotalSeconds は設定時間を合計秒数に変換する。
func (d CountdownDuration) TotalSeconds() int {
	return d.Hours*3600 + d.Minutes*60 + d.Seconds
}

// StandbyScreen は永続化されるスタンバイ画面を表す。
// IDは作成時に採番され、以後変更されない（コレクション全体で一意）。
type StandbyScreen struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	WelcomeMessage    string            `json:"welcomeMessage,omitempty"`
	CountdownDuration CountdownDuration `json:"countdownDuration"`
	Category          string            `json:"category"`
	BackgroundColor   string            `json:"backgroundColor"`
	// NewsItems はカルーセルに表示するコンテンツの順序付きリスト。
	// 追加順 = 表示順。古いレコードではフィールド自体が存在しないことが
	// あるため、欠落は「カルーセルなし」として扱う。
	NewsItems []ContentItem `json:"newsItems,omitempty"`
}

// ContentItem は画面に埋め込まれたカルーセルエントリを表す。
// 親画面のcreate/update経由でのみ生成・破棄され、単独のCRUDは持たない。
type ContentItem struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Content   ContentValue `json:"content"`
	Tags      []string     `json:"tags"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ScreenDraft はフォーム層から送信される未永続の画面定義。
// IDとタイムスタンプはリポジトリが採番する。
type ScreenDraft struct {
	Title             string             `json:"title"`
	WelcomeMessage    string             `json:"welcomeMessage"`
	CountdownDuration CountdownDuration  `json:"countdownDuration"`
	Category          string             `json:"category"`
	BackgroundColor   string             `json:"backgroundColor"`
	NewsItems         []ContentItemDraft `json:"newsItems,omitempty"`
}

// ContentItemDraft は未永続のカルーセルエントリ。
type ContentItemDraft struct {
	Title   string       `json:"title"`
	Content ContentValue `json:"content"`
	Tags    []string     `json:"tags"`
}

// Package store はスタンバイ画面コレクションのローカル永続化を提供する。
//
// コレクション全体をJSON配列として単一の固定キー配下に保存する。
// 破損したペイロードの読み込みは空のコレクションに縮退し、
// 呼び出し元にエラーとして伝播しない。
package store

import "github.com/BotleApps/StandBy-Screen/internal/model"

// StorageKey はコレクションを保存する固定キー。
const StorageKey = "standbyScreens"

// ScreenStore は画面コレクションの読み書きインターフェース。
// 上位のリポジトリ以外のコンポーネントはStoreに直接触れない。
type ScreenStore interface {
	// LoadAll は永続化されたコレクション全体を返す。
	// データが存在しない場合、またはペイロードが配列としてパースできない
	// 場合は空のスライスを返す（パース失敗はログに記録し、伝播しない）。
	LoadAll() []model.StandbyScreen

	// SaveAll はコレクション全体をシリアライズして上書き保存する。
	// 書き込みはトランザクション単位で行われ、部分的な書き込みは
	// 外部から観測されない。失敗時はエラーを返すが、呼び出し元は
	// ログに記録して処理を継続する（強い永続性保証はしない）。
	SaveAll(screens []model.StandbyScreen) error
}

// FailureRecorder はストア障害のメトリクス記録インターフェース。
type FailureRecorder interface {
	RecordStoreReadFailure()
	RecordStoreWriteFailure()
}

// nopRecorder はメトリクス未設定時に使用するレコーダー。
type nopRecorder struct{}

func (nopRecorder) RecordStoreReadFailure()  {}
func (nopRecorder) RecordStoreWriteFailure() {}

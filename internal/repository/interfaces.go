// Package repository はスタンバイ画面コレクションの永続化操作を定義する。
package repository

import (
	"context"

	"github.com/BotleApps/StandBy-Screen/internal/model"
)

// ScreenRepository は画面コレクションのCRUDインターフェース。
// 全操作はコレクション全体のread-modify-writeとして実行される。
//
// 「見つからない」と「保存失敗」は通常運用の一部であり、
// エラーとしては伝播しない。前者はnil、後者はログ記録の上で
// 計算済みのメモリ上の結果を返す（永続性ギャップは仕様として許容）。
type ScreenRepository interface {
	// List は保存順（追加順）のコレクション全体を返す。
	List(ctx context.Context) ([]model.StandbyScreen, error)

	// GetByID は指定IDの画面を返す。見つからない場合は(nil, nil)を返す。
	GetByID(ctx context.Context, id string) (*model.StandbyScreen, error)

	// Add はドラフトに画面IDを採番し、各ニュースアイテムにID と
	// 作成タイムスタンプを付与した上でコレクション末尾に追加する。
	// 更新後のコレクション全体を返す。
	Add(ctx context.Context, draft model.ScreenDraft) ([]model.StandbyScreen, error)

	// Update はIDが一致するレコードを与えられた値で丸ごと置き換える。
	// 一致するレコードがない場合、コレクションは変更されない（エラーにもならない）。
	// ニュースアイテムはタイトル+コンテンツ値が既存アイテムと一致する場合に
	// 元のIDとcreatedAtを引き継ぎ、新規アイテムにのみ新しいID/タイムスタンプを
	// 採番する。
	Update(ctx context.Context, screen model.StandbyScreen) ([]model.StandbyScreen, error)

	// Delete は指定IDのレコードを削除する。一致しない場合は何もしない（冪等）。
	Delete(ctx context.Context, id string) ([]model.StandbyScreen, error)
}

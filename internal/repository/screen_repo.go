package repository

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BotleApps/StandBy-Screen/internal/model"
	"github.com/BotleApps/StandBy-Screen/internal/store"
)

// StoreScreenRepo はScreenStoreを使用したScreenRepositoryの実装。
// ストアへのアクセスはこのリポジトリが独占し、read-modify-writeは
// 内部ミューテックスで直列化される。
type StoreScreenRepo struct {
	mu     sync.Mutex
	store  store.ScreenStore
	logger *slog.Logger
	now    func() time.Time
}

// NewStoreScreenRepo はStoreScreenRepoを生成する。
func NewStoreScreenRepo(s store.ScreenStore, logger *slog.Logger) *StoreScreenRepo {
	return &StoreScreenRepo{
		store:  s,
		logger: logger,
		now:    time.Now,
	}
}

// List は保存順のコレクション全体を返す。
func (r *StoreScreenRepo) List(ctx context.Context) ([]model.StandbyScreen, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.LoadAll(), nil
}

// GetByID は指定IDの画面を線形探索で返す。見つからない場合は(nil, nil)。
func (r *StoreScreenRepo) GetByID(ctx context.Context, id string) (*model.StandbyScreen, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.store.LoadAll() {
		if s.ID == id {
			screen := s
			return &screen, nil
		}
	}
	return nil, nil
}

// Add はドラフトから完全なレコードを組み立ててコレクション末尾に追加する。
// 画面IDと各ニュースアイテムのID/createdAtはここで採番される。
func (r *StoreScreenRepo) Add(ctx context.Context, draft model.ScreenDraft) ([]model.StandbyScreen, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	screens := r.store.LoadAll()

	var items []model.ContentItem
	if len(draft.NewsItems) > 0 {
		items = make([]model.ContentItem, len(draft.NewsItems))
		createdAt := r.now()
		for i, d := range draft.NewsItems {
			items[i] = model.ContentItem{
				ID:        uuid.New().String(),
				Title:     d.Title,
				Content:   d.Content,
				Tags:      d.Tags,
				CreatedAt: createdAt,
			}
		}
	}

	newScreen := model.StandbyScreen{
		ID:                uuid.New().String(),
		Title:             draft.Title,
		WelcomeMessage:    draft.WelcomeMessage,
		CountdownDuration: draft.CountdownDuration,
		Category:          draft.Category,
		BackgroundColor:   draft.BackgroundColor,
		NewsItems:         items,
	}

	screens = append(screens, newScreen)
	r.save(screens)
	return screens, nil
}

// Update はIDが一致するレコードを置き換える。一致しない場合は無変更。
func (r *StoreScreenRepo) Update(ctx context.Context, screen model.StandbyScreen) ([]model.StandbyScreen, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	screens := r.store.LoadAll()
	replaced := false
	for i, s := range screens {
		if s.ID != screen.ID {
			continue
		}
		screen.NewsItems = r.reconcileNewsItems(s.NewsItems, screen.NewsItems)
		screens[i] = screen
		replaced = true
		break
	}

	if !replaced {
		// 一致なしは想定内。保存も行わずコレクションをそのまま返す。
		return screens, nil
	}

	r.save(screens)
	return screens, nil
}

// Delete は指定IDのレコードを取り除く。2回目以降の呼び出しはno-op。
func (r *StoreScreenRepo) Delete(ctx context.Context, id string) ([]model.StandbyScreen, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	screens := r.store.LoadAll()
	filtered := screens[:0:0]
	removed := false
	for _, s := range screens {
		if s.ID == id {
			removed = true
			continue
		}
		filtered = append(filtered, s)
	}
	if filtered == nil {
		filtered = []model.StandbyScreen{}
	}

	if removed {
		r.save(filtered)
	}
	return filtered, nil
}

// reconcileNewsItems は編集後のアイテム列を保存済みアイテムと突き合わせる。
// タイトルとコンテンツ値の両方が一致するアイテムは元のIDとcreatedAtを
// 引き継ぎ、一致しないアイテムは新規として採番する。
// これにより設定保存のたびに未変更アイテムへ偽の「新規」タイムスタンプが
// 付くことを防ぐ。
func (r *StoreScreenRepo) reconcileNewsItems(stored, incoming []model.ContentItem) []model.ContentItem {
	if len(incoming) == 0 {
		return incoming
	}

	// 同一のタイトル+コンテンツ値を持つアイテムが複数あっても
	// 保存済みIDを重複して引き継がないよう、一致したものは候補から外す
	consumed := make([]bool, len(stored))

	out := make([]model.ContentItem, len(incoming))
	for i, item := range incoming {
		if prev := takeMatchingItem(stored, consumed, item); prev != nil {
			item.ID = prev.ID
			item.CreatedAt = prev.CreatedAt
		} else {
			item.ID = uuid.New().String()
			item.CreatedAt = r.now()
		}
		out[i] = item
	}
	return out
}

// takeMatchingItem はタイトル+コンテンツ値が一致する未消費の保存済み
// アイテムを返し、消費済みとしてマークする。
func takeMatchingItem(stored []model.ContentItem, consumed []bool, item model.ContentItem) *model.ContentItem {
	for i := range stored {
		if consumed[i] {
			continue
		}
		if stored[i].Title == item.Title && stored[i].Content.Value == item.Content.Value {
			consumed[i] = true
			return &stored[i]
		}
	}
	return nil
}

// save はストアへの書き込みを行う。失敗時はログに記録して処理を継続する。
// 呼び出し元に返すメモリ上のコレクションはロールバックされないため、
// 呼び出し元の見ている「現在」は永続化済み状態と乖離しうる。
func (r *StoreScreenRepo) save(screens []model.StandbyScreen) {
	if err := r.store.SaveAll(screens); err != nil {
		r.logger.Error("画面コレクションの保存に失敗しました",
			slog.Int("screen_count", len(screens)),
			slog.String("error", err.Error()),
		)
	}
}

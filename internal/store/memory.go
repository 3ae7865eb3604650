package store

import (
	"sync"

	"github.com/BotleApps/StandBy-Screen/internal/model"
)

// MemoryStore はメモリ上に保持するScreenStoreの実装。
// テストおよびストアファイルを開けない環境での縮退動作に使用する。
type MemoryStore struct {
	mu      sync.RWMutex
	screens []model.StandbyScreen

	// SaveErr を設定すると以後のSaveAllがそのエラーを返す。
	// 書き込み失敗時の縮退動作のテストに使用する。
	SaveErr error
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{screens: []model.StandbyScreen{}}
}

// LoadAll は保持中のコレクションのコピーを返す。
func (s *MemoryStore) LoadAll() []model.StandbyScreen {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.StandbyScreen, len(s.screens))
	copy(out, s.screens)
	return out
}

// SaveAll はコレクションを置き換える。
// SaveErrが設定されている場合は保存せずにそのエラーを返す。
func (s *MemoryStore) SaveAll(screens []model.StandbyScreen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.screens = make([]model.StandbyScreen, len(screens))
	copy(s.screens, screens)
	return nil
}

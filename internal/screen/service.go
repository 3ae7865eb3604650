// Package screen はスタンバイ画面のビジネスロジックを提供する。
// ドラフト検証、コンテンツのサニタイズ、画像URL検証、
// フィードからのニュース取り込みを含む。
package screen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BotleApps/StandBy-Screen/internal/model"
	"github.com/BotleApps/StandBy-Screen/internal/repository"
	"github.com/BotleApps/StandBy-Screen/internal/security"
)

// defaultImportLimit はフィード取り込みの1回あたり最大件数（デフォルト）。
const defaultImportLimit = 10

// NewsImporter はフィード取り込みのインターフェース。
type NewsImporter interface {
	FetchItems(ctx context.Context, feedURL string, limit int) ([]model.ContentItemDraft, error)
}

// URLValidator は画像URL検証のインターフェース。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// CRUDRecorder は画面CRUD操作のメトリクス記録インターフェース。
type CRUDRecorder interface {
	RecordScreenCreated()
	RecordScreenUpdated()
	RecordScreenDeleted()
	RecordNewsImported(count int)
}

// nopCRUDRecorder はメトリクス未設定時に使用するレコーダー。
type nopCRUDRecorder struct{}

func (nopCRUDRecorder) RecordScreenCreated()         {}
func (nopCRUDRecorder) RecordScreenUpdated()         {}
func (nopCRUDRecorder) RecordScreenDeleted()         {}
func (nopCRUDRecorder) RecordNewsImported(count int) {}

// Service はスタンバイ画面のドメインサービス。
//
// 検証ポリシー: タイトル・カテゴリの必須チェックと時間フィールドの
// 範囲チェック（時は0以上、分・秒は0〜59）はここで強制する。
// リポジトリ層は再検証しないため、サービスを迂回した呼び出しは
// 非負である限り範囲外の値も保存できる（格納時の挙動は permissive のまま）。
type Service struct {
	repo        repository.ScreenRepository
	sanitizer   security.ContentSanitizerService
	validator   URLValidator
	importer    NewsImporter
	logger      *slog.Logger
	recorder    CRUDRecorder
	importLimit int
}

// NewService はServiceを生成する。
// importerはnil可（取り込み機能を無効化する）。
// recorderがnilの場合はメトリクス記録を行わない。
// importLimitが0以下の場合はデフォルトの10を使用する。
func NewService(
	repo repository.ScreenRepository,
	sanitizer security.ContentSanitizerService,
	validator URLValidator,
	importer NewsImporter,
	logger *slog.Logger,
	recorder CRUDRecorder,
	importLimit int,
) *Service {
	if recorder == nil {
		recorder = nopCRUDRecorder{}
	}
	if importLimit <= 0 {
		importLimit = defaultImportLimit
	}
	return &Service{
		repo:        repo,
		sanitizer:   sanitizer,
		validator:   validator,
		importer:    importer,
		logger:      logger,
		recorder:    recorder,
		importLimit: importLimit,
	}
}

// ListScreens はコレクション全体を保存順で返す。
func (s *Service) ListScreens(ctx context.Context) ([]model.StandbyScreen, error) {
	return s.repo.List(ctx)
}

// GetScreen は指定IDの画面を返す。
// 見つからない場合はSCREEN_NOT_FOUNDエラーを返す（想定内の結果であり、
// 表示層は専用の「見つかりません」状態を描画する）。
func (s *Service) GetScreen(ctx context.Context, id string) (*model.StandbyScreen, error) {
	screen, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if screen == nil {
		return nil, model.NewScreenNotFoundError(id)
	}
	return screen, nil
}

// CreateScreen はドラフトを検証・サニタイズした上で新しい画面を追加し、
// 更新後のコレクション全体を返す。
func (s *Service) CreateScreen(ctx context.Context, draft model.ScreenDraft) ([]model.StandbyScreen, error) {
	if err := s.validateDraftFields(draft.Title, draft.Category, draft.CountdownDuration); err != nil {
		return nil, err
	}

	items, err := s.prepareItemDrafts(draft.NewsItems)
	if err != nil {
		return nil, err
	}
	draft.NewsItems = items

	screens, err := s.repo.Add(ctx, draft)
	if err != nil {
		return nil, err
	}

	s.recorder.RecordScreenCreated()
	s.logger.Info("スタンバイ画面を作成しました",
		slog.String("title", draft.Title),
		slog.String("category", draft.Category),
		slog.Int("news_item_count", len(draft.NewsItems)),
	)
	return screens, nil
}

// UpdateScreen は画面を検証・サニタイズした上で丸ごと置き換え、
// 更新後のコレクション全体を返す。
// IDが一致するレコードがない場合、コレクションは変更されない。
func (s *Service) UpdateScreen(ctx context.Context, screen model.StandbyScreen) ([]model.StandbyScreen, error) {
	if err := s.validateDraftFields(screen.Title, screen.Category, screen.CountdownDuration); err != nil {
		return nil, err
	}

	for i, item := range screen.NewsItems {
		sanitized, err := s.prepareContent(item.Content)
		if err != nil {
			return nil, err
		}
		screen.NewsItems[i].Content = sanitized
	}

	screens, err := s.repo.Update(ctx, screen)
	if err != nil {
		return nil, err
	}

	s.recorder.RecordScreenUpdated()
	return screens, nil
}

// DeleteScreen は指定IDの画面を削除し、更新後のコレクション全体を返す。
// 存在しないIDの削除はno-op（冪等）。
func (s *Service) DeleteScreen(ctx context.Context, id string) ([]model.StandbyScreen, error) {
	screens, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.recorder.RecordScreenDeleted()
	return screens, nil
}

// ImportNews は指定フィードのエントリを画面のニュースアイテム末尾に
// 追加する。取り込んだアイテムのテキストは保存前にサニタイズされ、
// ID/createdAtはリポジトリの照合ロジックで採番される。
// 取り込み後の画面を返す。
func (s *Service) ImportNews(ctx context.Context, screenID, feedURL string) (*model.StandbyScreen, error) {
	if s.importer == nil {
		return nil, model.NewFeedImportFailedError(feedURL, fmt.Errorf("取り込み機能が無効です"))
	}

	screen, err := s.GetScreen(ctx, screenID)
	if err != nil {
		return nil, err
	}

	drafts, err := s.importer.FetchItems(ctx, feedURL, s.importLimit)
	if err != nil {
		return nil, model.NewFeedImportFailedError(feedURL, err)
	}

	for _, d := range drafts {
		content, err := s.prepareContent(d.Content)
		if err != nil {
			return nil, err
		}
		screen.NewsItems = append(screen.NewsItems, model.ContentItem{
			Title:   d.Title,
			Content: content,
			Tags:    d.Tags,
		})
	}

	screens, err := s.repo.Update(ctx, *screen)
	if err != nil {
		return nil, err
	}

	s.recorder.RecordNewsImported(len(drafts))

	for i := range screens {
		if screens[i].ID == screenID {
			updated := screens[i]
			return &updated, nil
		}
	}
	// Updateの直後に消えることは通常ないが、見つからない扱いに縮退する
	return nil, model.NewScreenNotFoundError(screenID)
}

// validateDraftFields は必須フィールドと時間範囲を検証する。
func (s *Service) validateDraftFields(title, category string, d model.CountdownDuration) error {
	if title == "" {
		return model.NewInvalidDraftError("title")
	}
	if category == "" {
		return model.NewInvalidDraftError("category")
	}
	if d.Hours < 0 || d.Minutes < 0 || d.Seconds < 0 {
		return model.NewInvalidDurationError("負の値は指定できません")
	}
	if d.Minutes > 59 || d.Seconds > 59 {
		return model.NewInvalidDurationError("分・秒は59以下で指定してください")
	}
	return nil
}

// prepareItemDrafts は各ドラフトアイテムの検証とサニタイズを行う。
func (s *Service) prepareItemDrafts(items []model.ContentItemDraft) ([]model.ContentItemDraft, error) {
	if len(items) == 0 {
		return items, nil
	}

	out := make([]model.ContentItemDraft, len(items))
	for i, item := range items {
		if item.Title == "" {
			return nil, model.NewInvalidDraftError("newsItems.title")
		}
		content, err := s.prepareContent(item.Content)
		if err != nil {
			return nil, err
		}
		item.Content = content
		out[i] = item
	}
	return out, nil
}

// prepareContent はコンテンツ値の種別検証と種別ごとの処理を行う。
// テキストはサニタイズし、画像はURLを検証する。
func (s *Service) prepareContent(c model.ContentValue) (model.ContentValue, error) {
	if err := c.Validate(); err != nil {
		return c, err
	}

	switch c.Kind {
	case model.ContentKindText:
		c.Value = s.sanitizer.Sanitize(c.Value)
	case model.ContentKindImage:
		if err := s.validator.ValidateURL(c.Value); err != nil {
			return c, model.NewInvalidImageURLError(c.Value, err.Error())
		}
	}
	return c, nil
}

package screen

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/BotleApps/StandBy-Screen/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// mockScreenRepo はrepository.ScreenRepositoryのテスト用モック。
type mockScreenRepo struct {
	listFunc    func(ctx context.Context) ([]model.StandbyScreen, error)
	getByIDFunc func(ctx context.Context, id string) (*model.StandbyScreen, error)
	addFunc     func(ctx context.Context, draft model.ScreenDraft) ([]model.StandbyScreen, error)
	updateFunc  func(ctx context.Context, screen model.StandbyScreen) ([]model.StandbyScreen, error)
	deleteFunc  func(ctx context.Context, id string) ([]model.StandbyScreen, error)
}

func (m *mockScreenRepo) List(ctx context.Context) ([]model.StandbyScreen, error) {
	return m.listFunc(ctx)
}

func (m *mockScreenRepo) GetByID(ctx context.Context, id string) (*model.StandbyScreen, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockScreenRepo) Add(ctx context.Context, draft model.ScreenDraft) ([]model.StandbyScreen, error) {
	return m.addFunc(ctx, draft)
}

func (m *mockScreenRepo) Update(ctx context.Context, screen model.StandbyScreen) ([]model.StandbyScreen, error) {
	return m.updateFunc(ctx, screen)
}

func (m *mockScreenRepo) Delete(ctx context.Context, id string) ([]model.StandbyScreen, error) {
	return m.deleteFunc(ctx, id)
}

// passthroughSanitizer はタグ除去の代わりにマーカーを付けるテスト用サニタイザー。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(html string) string {
	return "sanitized:" + html
}

// mockURLValidator はURLValidatorのテスト用モック。
type mockURLValidator struct {
	validateFunc func(rawURL string) error
}

func (m *mockURLValidator) ValidateURL(rawURL string) error {
	if m.validateFunc == nil {
		return nil
	}
	return m.validateFunc(rawURL)
}

// mockImporter はNewsImporterのテスト用モック。
type mockImporter struct {
	fetchFunc func(ctx context.Context, feedURL string, limit int) ([]model.ContentItemDraft, error)
}

func (m *mockImporter) FetchItems(ctx context.Context, feedURL string, limit int) ([]model.ContentItemDraft, error) {
	return m.fetchFunc(ctx, feedURL, limit)
}

func newTestService(repo *mockScreenRepo, importer NewsImporter) *Service {
	return NewService(repo, passthroughSanitizer{}, &mockURLValidator{}, importer, testLogger(), nil, 0)
}

func validDraft() model.ScreenDraft {
	return model.ScreenDraft{
		Title:             "Sync",
		Category:          "meeting",
		CountdownDuration: model.CountdownDuration{Minutes: 15},
	}
}

func TestGetScreen_NotFound_ReturnsScreenNotFoundError(t *testing.T) {
	repo := &mockScreenRepo{
		getByIDFunc: func(ctx context.Context, id string) (*model.StandbyScreen, error) {
			return nil, nil
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.GetScreen(context.Background(), "missing")
	if err == nil {
		t.Fatal("存在しないIDはエラーを返すべき")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeScreenNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeScreenNotFound)
	}
}

func TestCreateScreen_MissingTitle_ReturnsValidationError(t *testing.T) {
	repo := &mockScreenRepo{
		addFunc: func(ctx context.Context, draft model.ScreenDraft) ([]model.StandbyScreen, error) {
			t.Error("検証エラー時はリポジトリが呼ばれてはならない")
			return nil, nil
		},
	}
	svc := newTestService(repo, nil)

	draft := validDraft()
	draft.Title = ""

	_, err := svc.CreateScreen(context.Background(), draft)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidDraft {
		t.Errorf("error = %v, want INVALID_DRAFT", err)
	}
}

func TestCreateScreen_MissingCategory_ReturnsValidationError(t *testing.T) {
	svc := newTestService(&mockScreenRepo{}, nil)

	draft := validDraft()
	draft.Category = ""

	_, err := svc.CreateScreen(context.Background(), draft)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidDraft {
		t.Errorf("error = %v, want INVALID_DRAFT", err)
	}
}

func TestCreateScreen_DurationOutOfRange_ReturnsValidationError(t *testing.T) {
	svc := newTestService(&mockScreenRepo{}, nil)

	tests := []struct {
		name string
		d    model.CountdownDuration
	}{
		{"negative hours", model.CountdownDuration{Hours: -1}},
		{"negative minutes", model.CountdownDuration{Minutes: -1}},
		{"negative seconds", model.CountdownDuration{Seconds: -1}},
		{"minutes over 59", model.CountdownDuration{Minutes: 60}},
		{"seconds over 59", model.CountdownDuration{Seconds: 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			draft.CountdownDuration = tt.d

			_, err := svc.CreateScreen(context.Background(), draft)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidDuration {
				t.Errorf("error = %v, want INVALID_DURATION", err)
			}
		})
	}
}

func TestCreateScreen_SanitizesTextContent(t *testing.T) {
	var gotDraft model.ScreenDraft
	repo := &mockScreenRepo{
		addFunc: func(ctx context.Context, draft model.ScreenDraft) ([]model.StandbyScreen, error) {
			gotDraft = draft
			return []model.StandbyScreen{}, nil
		},
	}
	svc := newTestService(repo, nil)

	draft := validDraft()
	draft.NewsItems = []model.ContentItemDraft{
		{Title: "n1", Content: model.ContentValue{Kind: model.ContentKindText, Value: "<p>hello</p>"}},
	}

	if _, err := svc.CreateScreen(context.Background(), draft); err != nil {
		t.Fatalf("CreateScreen failed: %v", err)
	}

	if !strings.HasPrefix(gotDraft.NewsItems[0].Content.Value, "sanitized:") {
		t.Errorf("テキストコンテンツがサニタイズされていない: %q", gotDraft.NewsItems[0].Content.Value)
	}
}

func TestCreateScreen_InvalidImageURL_ReturnsError(t *testing.T) {
	repo := &mockScreenRepo{
		addFunc: func(ctx context.Context, draft model.ScreenDraft) ([]model.StandbyScreen, error) {
			t.Error("URL検証失敗時はリポジトリが呼ばれてはならない")
			return nil, nil
		},
	}
	validator := &mockURLValidator{
		validateFunc: func(rawURL string) error {
			return errors.New("private address")
		},
	}
	svc := NewService(repo, passthroughSanitizer{}, validator, nil, testLogger(), nil, 0)

	draft := validDraft()
	draft.NewsItems = []model.ContentItemDraft{
		{Title: "n1", Content: model.ContentValue{Kind: model.ContentKindImage, Value: "http://10.0.0.1/a.png"}},
	}

	_, err := svc.CreateScreen(context.Background(), draft)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidImageURL {
		t.Errorf("error = %v, want INVALID_IMAGE_URL", err)
	}
}

func TestCreateScreen_ItemMissingTitle_ReturnsValidationError(t *testing.T) {
	svc := newTestService(&mockScreenRepo{}, nil)

	draft := validDraft()
	draft.NewsItems = []model.ContentItemDraft{
		{Content: model.ContentValue{Kind: model.ContentKindText, Value: "x"}},
	}

	_, err := svc.CreateScreen(context.Background(), draft)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidDraft {
		t.Errorf("error = %v, want INVALID_DRAFT", err)
	}
}

func TestUpdateScreen_SanitizesEachItem(t *testing.T) {
	var gotScreen model.StandbyScreen
	repo := &mockScreenRepo{
		updateFunc: func(ctx context.Context, screen model.StandbyScreen) ([]model.StandbyScreen, error) {
			gotScreen = screen
			return []model.StandbyScreen{screen}, nil
		},
	}
	svc := newTestService(repo, nil)

	screen := model.StandbyScreen{
		ID:       "s1",
		Title:    "Sync",
		Category: "meeting",
		NewsItems: []model.ContentItem{
			{ID: "n1", Title: "a", Content: model.ContentValue{Kind: model.ContentKindText, Value: "<b>x</b>"}},
		},
	}

	if _, err := svc.UpdateScreen(context.Background(), screen); err != nil {
		t.Fatalf("UpdateScreen failed: %v", err)
	}

	if !strings.HasPrefix(gotScreen.NewsItems[0].Content.Value, "sanitized:") {
		t.Errorf("更新経路でサニタイズされていない: %q", gotScreen.NewsItems[0].Content.Value)
	}
}

func TestDeleteScreen_DelegatesToRepo(t *testing.T) {
	deleted := ""
	repo := &mockScreenRepo{
		deleteFunc: func(ctx context.Context, id string) ([]model.StandbyScreen, error) {
			deleted = id
			return []model.StandbyScreen{}, nil
		},
	}
	svc := newTestService(repo, nil)

	if _, err := svc.DeleteScreen(context.Background(), "s1"); err != nil {
		t.Fatalf("DeleteScreen failed: %v", err)
	}
	if deleted != "s1" {
		t.Errorf("deleted id = %q, want %q", deleted, "s1")
	}
}

func TestImportNews_AppendsSanitizedItems(t *testing.T) {
	stored := model.StandbyScreen{
		ID:       "s1",
		Title:    "Sync",
		Category: "meeting",
		NewsItems: []model.ContentItem{
			{ID: "existing", Title: "old", Content: model.ContentValue{Kind: model.ContentKindText, Value: "old"}},
		},
	}

	var updatedScreen model.StandbyScreen
	repo := &mockScreenRepo{
		getByIDFunc: func(ctx context.Context, id string) (*model.StandbyScreen, error) {
			s := stored
			return &s, nil
		},
		updateFunc: func(ctx context.Context, screen model.StandbyScreen) ([]model.StandbyScreen, error) {
			updatedScreen = screen
			return []model.StandbyScreen{screen}, nil
		},
	}
	importer := &mockImporter{
		fetchFunc: func(ctx context.Context, feedURL string, limit int) ([]model.ContentItemDraft, error) {
			if limit != 10 {
				t.Errorf("limit = %d, want 10", limit)
			}
			return []model.ContentItemDraft{
				{Title: "headline", Content: model.ContentValue{Kind: model.ContentKindText, Value: "<p>body</p>"}, Tags: []string{"news"}},
			}, nil
		},
	}
	svc := newTestService(repo, importer)

	got, err := svc.ImportNews(context.Background(), "s1", "https://news.example.com/rss")
	if err != nil {
		t.Fatalf("ImportNews failed: %v", err)
	}

	if len(updatedScreen.NewsItems) != 2 {
		t.Fatalf("更新された画面のitems length = %d, want 2", len(updatedScreen.NewsItems))
	}
	// 既存アイテムは維持され、取り込み分は末尾に追加される
	if updatedScreen.NewsItems[0].ID != "existing" {
		t.Errorf("既存アイテムが先頭になっていない: %q", updatedScreen.NewsItems[0].ID)
	}
	appended := updatedScreen.NewsItems[1]
	if appended.Title != "headline" {
		t.Errorf("取り込みアイテムのTitle = %q, want %q", appended.Title, "headline")
	}
	if !strings.HasPrefix(appended.Content.Value, "sanitized:") {
		t.Errorf("取り込みアイテムがサニタイズされていない: %q", appended.Content.Value)
	}
	// IDはリポジトリの照合ロジックに委ねるため未採番で渡す
	if appended.ID != "" {
		t.Errorf("取り込みアイテムのIDはサービス層で採番しない: %q", appended.ID)
	}

	if got == nil || got.ID != "s1" {
		t.Errorf("返却された画面が対象と一致しない: %v", got)
	}
}

func TestImportNews_FetchFailure_ReturnsFeedImportFailedError(t *testing.T) {
	repo := &mockScreenRepo{
		getByIDFunc: func(ctx context.Context, id string) (*model.StandbyScreen, error) {
			s := model.StandbyScreen{ID: id, Title: "Sync", Category: "meeting"}
			return &s, nil
		},
	}
	importer := &mockImporter{
		fetchFunc: func(ctx context.Context, feedURL string, limit int) ([]model.ContentItemDraft, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := newTestService(repo, importer)

	_, err := svc.ImportNews(context.Background(), "s1", "https://news.example.com/rss")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeFeedImportFailed {
		t.Errorf("error = %v, want FEED_IMPORT_FAILED", err)
	}
}

func TestImportNews_ScreenNotFound_ReturnsError(t *testing.T) {
	repo := &mockScreenRepo{
		getByIDFunc: func(ctx context.Context, id string) (*model.StandbyScreen, error) {
			return nil, nil
		},
	}
	importer := &mockImporter{
		fetchFunc: func(ctx context.Context, feedURL string, limit int) ([]model.ContentItemDraft, error) {
			t.Error("画面未検出時はフィードフェッチが行われてはならない")
			return nil, nil
		},
	}
	svc := newTestService(repo, importer)

	_, err := svc.ImportNews(context.Background(), "missing", "https://news.example.com/rss")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeScreenNotFound {
		t.Errorf("error = %v, want SCREEN_NOT_FOUND", err)
	}
}

func TestImportNews_ImporterDisabled_ReturnsError(t *testing.T) {
	svc := newTestService(&mockScreenRepo{}, nil)

	_, err := svc.ImportNews(context.Background(), "s1", "https://news.example.com/rss")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeFeedImportFailed {
		t.Errorf("error = %v, want FEED_IMPORT_FAILED", err)
	}
}

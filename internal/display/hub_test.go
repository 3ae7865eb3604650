package display

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/BotleApps/StandBy-Screen/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testScreen(id string, items int) model.StandbyScreen {
	screen := model.StandbyScreen{
		ID:                id,
		Title:             "Sync",
		CountdownDuration: model.CountdownDuration{Minutes: 15},
		Category:          "meeting",
	}
	for i := 0; i < items; i++ {
		screen.NewsItems = append(screen.NewsItems, model.ContentItem{
			ID:      "n" + string(rune('1'+i)),
			Title:   "item",
			Content: model.ContentValue{Kind: model.ContentKindText, Value: "body"},
		})
	}
	return screen
}

func waitEvent(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case ev := <-s.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("イベントが届かない")
		return Event{}
	}
}

func TestStartSession_FirstEventIsSnapshot(t *testing.T) {
	hub := NewHub(7*time.Second, testLogger(), nil)

	session := hub.StartSession(context.Background(), testScreen("s1", 2))
	defer hub.CloseSession(session)

	ev := waitEvent(t, session)
	if ev.Type != EventTypeScreen {
		t.Fatalf("event type = %q, want %q", ev.Type, EventTypeScreen)
	}

	snapshot, ok := ev.Data.(ScreenSnapshot)
	if !ok {
		t.Fatalf("event data type = %T, want ScreenSnapshot", ev.Data)
	}
	if snapshot.Remaining != 900 {
		t.Errorf("Remaining = %d, want 900", snapshot.Remaining)
	}
	if snapshot.Formatted != "00:15:00" {
		t.Errorf("Formatted = %q, want %q", snapshot.Formatted, "00:15:00")
	}
	if !snapshot.Rotates {
		t.Error("アイテム2つの画面はRotates = trueであるべき")
	}
}

func TestStartSession_SingleItem_SnapshotReportsNoRotation(t *testing.T) {
	hub := NewHub(7*time.Second, testLogger(), nil)

	session := hub.StartSession(context.Background(), testScreen("s1", 1))
	defer hub.CloseSession(session)

	ev := waitEvent(t, session)
	snapshot := ev.Data.(ScreenSnapshot)
	if snapshot.Rotates {
		t.Error("アイテム1つの画面はRotates = falseであるべき")
	}
}

func TestSession_EmitsRotationEvents(t *testing.T) {
	// 短い回転間隔でローテーションイベントを観測する
	hub := NewHub(10*time.Millisecond, testLogger(), nil)

	session := hub.StartSession(context.Background(), testScreen("s1", 3))
	defer hub.CloseSession(session)

	// スナップショットを読み飛ばす
	waitEvent(t, session)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-session.Events():
			if ev.Type != EventTypeRotate {
				continue
			}
			rotation := ev.Data.(Rotation)
			if rotation.Index != 1 {
				t.Errorf("first rotation index = %d, want 1", rotation.Index)
			}
			if rotation.ItemID != "n2" {
				t.Errorf("ItemID = %q, want %q", rotation.ItemID, "n2")
			}
			return
		case <-deadline:
			t.Fatal("ローテーションイベントが届かない")
		}
	}
}

func TestCloseSession_StopsLoopsAndUnregisters(t *testing.T) {
	hub := NewHub(7*time.Second, testLogger(), nil)

	session := hub.StartSession(context.Background(), testScreen("s1", 0))
	if hub.ActiveSessions() != 1 {
		t.Fatalf("active sessions = %d, want 1", hub.ActiveSessions())
	}

	hub.CloseSession(session)

	if hub.ActiveSessions() != 0 {
		t.Errorf("クローズ後のactive sessions = %d, want 0", hub.ActiveSessions())
	}

	select {
	case <-session.Done():
	default:
		t.Error("CloseSession後はDoneがクローズされているべき")
	}
}

func TestCloseSession_Idempotent(t *testing.T) {
	hub := NewHub(7*time.Second, testLogger(), nil)

	session := hub.StartSession(context.Background(), testScreen("s1", 0))

	hub.CloseSession(session)
	// 2回目の呼び出しもブロックしない
	hub.CloseSession(session)
}

func TestParentContextCancel_TearsDownSession(t *testing.T) {
	hub := NewHub(7*time.Second, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	session := hub.StartSession(ctx, testScreen("s1", 0))

	cancel()

	select {
	case <-session.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("親コンテキストのキャンセルでセッションが終了しない")
	}

	if hub.ActiveSessions() != 0 {
		t.Errorf("active sessions = %d, want 0", hub.ActiveSessions())
	}
}

func TestResetCountdown_BroadcastsToScreenSessions(t *testing.T) {
	hub := NewHub(7*time.Second, testLogger(), nil)

	s1 := hub.StartSession(context.Background(), testScreen("s1", 0))
	defer hub.CloseSession(s1)
	s2 := hub.StartSession(context.Background(), testScreen("s1", 0))
	defer hub.CloseSession(s2)
	other := hub.StartSession(context.Background(), testScreen("s2", 0))
	defer hub.CloseSession(other)

	// スナップショットを読み飛ばす
	waitEvent(t, s1)
	waitEvent(t, s2)
	waitEvent(t, other)

	count := hub.ResetCountdown("s1", 120)
	if count != 2 {
		t.Errorf("reset count = %d, want 2", count)
	}

	// 対象画面の両セッションにカウントダウンイベントが届く
	for _, s := range []*Session{s1, s2} {
		ev := waitEvent(t, s)
		if ev.Type != EventTypeCountdown {
			t.Fatalf("event type = %q, want %q", ev.Type, EventTypeCountdown)
		}
		tick := ev.Data.(CountdownTick)
		if tick.Remaining != 120 {
			t.Errorf("Remaining = %d, want 120", tick.Remaining)
		}
		if tick.Formatted != "00:02:00" {
			t.Errorf("Formatted = %q, want %q", tick.Formatted, "00:02:00")
		}
	}

	// 無関係な画面のセッションには届かない
	select {
	case ev := <-other.Events():
		t.Errorf("無関係なセッションにイベントが届いた: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPauseCarousel_StopsRotationUntilResume(t *testing.T) {
	hub := NewHub(10*time.Millisecond, testLogger(), nil)

	session := hub.StartSession(context.Background(), testScreen("s1", 3))
	defer hub.CloseSession(session)

	waitEvent(t, session)

	if count := hub.PauseCarousel("s1"); count != 1 {
		t.Fatalf("pause count = %d, want 1", count)
	}

	// 一時停止中はローテーションイベントが発生しない
	drainDeadline := time.After(100 * time.Millisecond)
drain:
	for {
		select {
		case ev := <-session.Events():
			// 一時停止前に回転した分は許容する
			if ev.Type != EventTypeRotate {
				t.Errorf("想定外のイベント: %v", ev)
			}
		case <-drainDeadline:
			break drain
		}
	}

	select {
	case ev := <-session.Events():
		t.Errorf("一時停止中にイベントが届いた: %v", ev)
	case <-time.After(100 * time.Millisecond):
	}

	if count := hub.ResumeCarousel("s1"); count != 1 {
		t.Fatalf("resume count = %d, want 1", count)
	}

	// 再開後はローテーションが再び流れる
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-session.Events():
			if ev.Type == EventTypeRotate {
				return
			}
		case <-deadline:
			t.Fatal("再開後にローテーションイベントが届かない")
		}
	}
}

func TestResetCountdown_NoSessions_ReturnsZero(t *testing.T) {
	hub := NewHub(7*time.Second, testLogger(), nil)

	if count := hub.ResetCountdown("missing", 60); count != 0 {
		t.Errorf("reset count = %d, want 0", count)
	}
}

func TestCloseAll_ClosesEverySession(t *testing.T) {
	hub := NewHub(7*time.Second, testLogger(), nil)

	s1 := hub.StartSession(context.Background(), testScreen("s1", 0))
	s2 := hub.StartSession(context.Background(), testScreen("s2", 2))
	if hub.ActiveSessions() != 2 {
		t.Fatalf("active sessions = %d, want 2", hub.ActiveSessions())
	}

	hub.CloseAll()

	if hub.ActiveSessions() != 0 {
		t.Errorf("CloseAll後のactive sessions = %d, want 0", hub.ActiveSessions())
	}
	for _, s := range []*Session{s1, s2} {
		select {
		case <-s.Done():
		default:
			t.Errorf("セッション %s のDoneがクローズされていない", s.ID)
		}
	}
}

func TestCloseAll_NoSessions_IsNoOp(t *testing.T) {
	hub := NewHub(7*time.Second, testLogger(), nil)
	// セッションがなくてもブロックしない
	hub.CloseAll()
}

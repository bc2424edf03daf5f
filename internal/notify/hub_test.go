package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/where2dive/internal/achievement"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	return conn
}

func TestAchievementNotifierDeliversToUser(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Serve(w, r, 42); err != nil {
			t.Errorf("Serve returned error: %v", err)
		}
	}))
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()
	waitFor(t, func() bool { return hub.ConnectionCount(42) == 1 })

	notifier := NewAchievementNotifier(hub, achievement.DefaultCatalog())
	notifier.NotifyUnlocked(7, []string{"fish"})
	notifier.NotifyUnlocked(42, []string{"firstDive", "deepDiver"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event UnlockEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != EventAchievementUnlocked {
		t.Fatalf("unexpected event type %q", event.Type)
	}
	if len(event.Achievements) != 2 || event.Achievements[0].ID != "firstDive" || event.Achievements[1].TitleEn != "Deep Diver" {
		t.Fatalf("unexpected payload %+v", event.Achievements)
	}
}

func TestHubCloseUser(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, 5)
	}))
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()
	waitFor(t, func() bool { return hub.ConnectionCount(5) == 1 })

	hub.CloseUser(5)
	if hub.ConnectionCount(5) != 0 {
		t.Fatalf("expected no connections after CloseUser, got %d", hub.ConnectionCount(5))
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to be closed")
	}
}

package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"crypto-price-tracker/internal/storage"
)

func testNotification(t *testing.T) Notification {
	t.Helper()
	return Notification{
		Record: storage.AlertRecord{
			Timestamp:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Coin:          "bitcoin",
			PreviousPrice: dec(t, "100"),
			CurrentPrice:  dec(t, "85"),
			DropPct:       dec(t, "0.15"),
		},
		Threshold: dec(t, "0.10"),
	}
}

func TestTelegramNotifySendsMessage(t *testing.T) {
	var gotPath string
	var gotText string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		gotText = payload["text"]
		if payload["chat_id"] != "chat123" {
			t.Errorf("unexpected chat_id %q", payload["chat_id"])
		}
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer server.Close()

	notifier := NewTelegramNotifier("token", "chat123", server.URL, 5*time.Second, zerolog.Nop())
	if err := notifier.Notify(context.Background(), testNotification(t)); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if gotPath != "/bottoken/sendMessage" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	for _, fragment := range []string{"[Price Drop Alert]", "bitcoin", "15.00%", "threshold 10.00%"} {
		if !strings.Contains(gotText, fragment) {
			t.Fatalf("message missing %q:\n%s", fragment, gotText)
		}
	}
}

func TestTelegramNotifyRejectsNotOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok": false}`)
	}))
	defer server.Close()

	notifier := NewTelegramNotifier("token", "chat123", server.URL, 5*time.Second, zerolog.Nop())
	if err := notifier.Notify(context.Background(), testNotification(t)); err == nil {
		t.Fatal("ok=false must be an error")
	}
}

func TestTelegramNotifyRejectsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	notifier := NewTelegramNotifier("token", "chat123", server.URL, 5*time.Second, zerolog.Nop())
	if err := notifier.Notify(context.Background(), testNotification(t)); err == nil {
		t.Fatal("non-2xx status must be an error")
	}
}

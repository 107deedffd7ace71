package notifications

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSend_NoWebhook(t *testing.T) {
	s := NewSender("", "TestBuyer")
	if s.Enabled() {
		t.Fatal("should not be enabled with empty URL")
	}
	// console only, no error
	s.Send("purchase receipt goes to stdout")
}

func TestSend_SlackFormat(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "TestBuyer")
	if !s.Enabled() {
		t.Fatal("should be enabled")
	}

	s.Send("Purchased listing 3 for 2000000000000000 wei")

	if received["username"] != "TestBuyer" {
		t.Fatalf("username: got %s", received["username"])
	}
	if received["text"] == "" {
		t.Fatal("text should not be empty")
	}
}

func TestSend_DiscordFormat(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// URL containing "discord" switches the payload shape
	s := NewSender(srv.URL+"/discord/webhook", "MarketBot")
	s.Send("Purchase of listing 7 failed (listing_unavailable)")

	if received["content"] == "" {
		t.Fatal("content should not be empty for Discord")
	}
	if _, hasText := received["text"]; hasText {
		t.Fatal("Discord payload should not have 'text' field")
	}
}

func TestSend_WebhookError(t *testing.T) {
	s := NewSender("http://localhost:1/bogus", "TestBuyer")
	s.retry.BaseDelay = 0
	// must not panic, just log
	s.Send("this will fail gracefully")
}

func TestDefaultServiceName(t *testing.T) {
	s := NewSender("", "")
	if s.serviceName != "MarketplaceBuyer" {
		t.Fatalf("expected default service name, got %s", s.serviceName)
	}
}

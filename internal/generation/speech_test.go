package generation_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"litany/internal/config"
	"litany/internal/generation"
)

func TestSynthesizeReturnsAudioBytes(t *testing.T) {
	want := []byte{0x49, 0x44, 0x33, 0x04}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
			Voice string `json:"voice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Input != "text to speak" || req.Voice != "alloy" {
			t.Errorf("unexpected request: %+v", req)
		}
		_, _ = w.Write(want)
	}))
	defer server.Close()

	client := generation.NewSpeechClient(config.Speech{
		APIKey:  "test",
		BaseURL: server.URL,
		Model:   "tts",
		Voice:   "alloy",
		Format:  "mp3",
	})
	got, err := client.Synthesize(context.Background(), "text to speak")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("unexpected audio bytes: %v", got)
	}
	if client.Format() != "mp3" {
		t.Fatalf("unexpected format: %q", client.Format())
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	client := generation.NewSpeechClient(config.Speech{APIKey: "test", BaseURL: "http://127.0.0.1:0"})
	if _, err := client.Synthesize(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty text")
	}
}

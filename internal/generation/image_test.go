package generation_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"litany/internal/config"
	"litany/internal/generation"
)

func TestGenerateDecodesBase64Image(t *testing.T) {
	want := []byte{0x89, 0x50, 0x4e, 0x47}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(want)}},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := generation.NewImageClient(config.Image{
		APIKey:  "test",
		BaseURL: server.URL,
		Model:   "img",
		Size:    "1024x1024",
	})
	got, err := client.Generate(context.Background(), "a quiet chapel at dawn")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("unexpected image bytes: %v", got)
	}
}

func TestGenerateSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"content rejected"}}`))
	}))
	defer server.Close()

	client := generation.NewImageClient(config.Image{APIKey: "test", BaseURL: server.URL})
	if _, err := client.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected api error")
	}
}

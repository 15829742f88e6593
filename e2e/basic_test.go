package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/markb/bcon/internal/config"
	"github.com/markb/bcon/internal/server"
)

// TestServer_EmbeddedPostgres runs the full server against an embedded
// PostgreSQL. It downloads PostgreSQL binaries on first run.
func TestServer_EmbeddedPostgres(t *testing.T) {
	if os.Getenv("BCON_E2E") == "" {
		t.Skip("BCON_E2E not set")
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            18081,
			CORSOrigins:     "*",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Store: config.StoreConfig{
			Driver: "postgres",
			Embedded: config.EmbeddedConfig{
				Enabled:  true,
				Port:     15434,
				DataDir:  t.TempDir(),
				Username: "postgres",
				Password: "postgres",
				Database: "bcon",
			},
		},
		Auth:  config.AuthConfig{JWTSecret: "e2e-secret"},
		Email: config.EmailConfig{Provider: config.ProviderNone},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- server.New(cfg).Run(ctx) }()

	base := "http://127.0.0.1:18081/api"

	t.Log("Waiting for server to start...")
	var err error
	for i := 0; i < 120; i++ {
		time.Sleep(1 * time.Second)
		var resp *http.Response
		resp, err = http.Get(base + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				t.Logf("Server started after %d seconds", i+1)
				break
			}
		}
	}
	if err != nil {
		t.Fatalf("Health check failed: %v", err)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	resp := call(t, http.MethodPost, base+"/admin/register", "", map[string]any{
		"email": "admin@bcon.ro", "password": "secret1", "name": "Admin",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		t.Fatal(err)
	}

	resp = call(t, http.MethodPost, base+"/admin/blog", tok.AccessToken, map[string]any{
		"title":     "Hello from B-CON",
		"slug":      "hello",
		"excerpt":   "Our first article",
		"content":   "A longer body so the post passes the minimum content length check.",
		"published": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create post returned %d", resp.StatusCode)
	}

	resp = call(t, http.MethodGet, base+"/blog/hello", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("public post returned %d", resp.StatusCode)
	}
	var post struct {
		Title  string `json:"title"`
		Author string `json:"author"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		t.Fatal(err)
	}
	if post.Title != "Hello from B-CON" || post.Author != "Admin" {
		t.Errorf("post = %+v", post)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("Server error: %v", err)
	}
}

func call(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

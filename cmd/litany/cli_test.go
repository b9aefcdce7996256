package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"litany/internal/config"
	"litany/internal/daemon"
	"litany/internal/logging"
	"litany/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	apiAddr    string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"titles": ["Oração da Manhã"]}`}},
			},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(backend.Close)

	cfg := testsupport.NewConfig(t)
	cfg.TextGen.BaseURL = backend.URL

	configPath := filepath.Join(home, "config.toml")
	writeTestConfig(t, configPath, cfg)

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	return &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		apiAddr:    d.APIAddr(),
		configPath: configPath,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--api", env.apiAddr, "--config", env.configPath}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestCLIStartWaitAndInspect(t *testing.T) {
	env := setupCLITestEnv(t)

	output, err := runCLI(t, env, "start", "gratidão", "--duration", "Padrão", "--wait")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, output, "Started process ")
	requireContains(t, output, "Result: ")

	firstLine, _, _ := strings.Cut(output, "\n")
	id := strings.TrimPrefix(firstLine, "Started process ")
	if id == "" || id == firstLine {
		t.Fatalf("could not extract process id from %q", output)
	}

	output, err = runCLI(t, env, "titles", id)
	if err != nil {
		t.Fatalf("titles: %v", err)
	}
	requireContains(t, output, "Oração da Manhã")

	output, err = runCLI(t, env, "result", id)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if strings.TrimSpace(output) == "" {
		t.Fatal("expected result reference")
	}

	output, err = runCLI(t, env, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, output, id)

	output, err = runCLI(t, env, "status", id)
	if err != nil {
		t.Fatalf("status %s: %v", id, err)
	}
	requireContains(t, output, "100%")
	requireContains(t, output, "yes")
}

func TestCLIDaemonStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	output, err := runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, output, "Daemon")
	requireContains(t, output, "pid")
	requireContains(t, output, "Completed")
}

func TestCLIErrorsFromDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, err := runCLI(t, env, "titles", "missing-id"); err == nil {
		t.Fatal("expected error for unknown process")
	}
	if _, err := runCLI(t, env, "select-title", "missing-id", "Qualquer"); err == nil {
		t.Fatal("expected error for unknown process")
	}
}

func TestCLIUnreachableDaemonHint(t *testing.T) {
	env := setupCLITestEnv(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	unused := listener.Addr().String()
	listener.Close()
	env.apiAddr = unused

	_, err = runCLI(t, env, "status")
	if err == nil {
		t.Fatal("expected connection error")
	}
	requireContains(t, err.Error(), "litanyd")
}

func TestCLIConfigShowRedactsSecrets(t *testing.T) {
	env := setupCLITestEnv(t)

	output, err := runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, output, "<set>")
	if strings.Contains(output, `'test'`) || strings.Contains(output, `"test"`) {
		t.Fatalf("expected api key redacted, got %q", output)
	}
}

func TestCLIVersion(t *testing.T) {
	env := setupCLITestEnv(t)

	output, err := runCLI(t, env, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, output, "litany ")
}

func TestCLIConfigInit(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "litany.toml")
	output, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, output, target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config at %s: %v", target, err)
	}

	if _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, err := runCLI(t, env, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

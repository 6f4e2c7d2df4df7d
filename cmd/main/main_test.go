package main

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDataDir(t *testing.T, apiURL string) string {
	t.Helper()
	t.Setenv("KBC_LOGGER_ADDR", "")
	t.Setenv("KBC_LOGGER_PORT", "")

	dir := t.TempDir()
	cfg := fmt.Sprintf(`{"parameters": {
		"input_filename": "categories.csv",
		"api_url": %q,
		"sleep_time": 0,
		"chunk_size": 10,
		"login": 42,
		"#password": "secret"
	}}`, apiURL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(cfg), 0o644))

	in := filepath.Join(dir, "in", "tables")
	require.NoError(t, os.MkdirAll(in, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "categories.csv"), []byte("CATEGORY\n5\n"), 0o644))
	return dir
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/categories/tree", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"categoryId": 6}]}`))
	})
	mux.HandleFunc("/v1/categories/5", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"categoryId": 5, "path": ["Five"]}]}`))
	})
	mux.HandleFunc("/v1/categories/6", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"categoryId": 6, "path": ["Six"]}]}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func readResults(t *testing.T, dir string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, "out", "tables", "results.csv"))
	require.NoError(t, err)
	return string(b)
}

func TestRootUsesInputTable(t *testing.T) {
	dir := setupDataDir(t, newAPI(t).URL)

	require.NoError(t, execute(t, "--data-dir", dir))
	assert.Equal(t, "CATEGORY_ID,CATEGORY_NAME,CATEGORY_PATH\n5,Five,Five\n", readResults(t, dir))
}

func TestTreeCommand(t *testing.T) {
	dir := setupDataDir(t, newAPI(t).URL)

	require.NoError(t, execute(t, "tree", "--data-dir", dir))
	assert.Equal(t, "CATEGORY_ID,CATEGORY_NAME,CATEGORY_PATH\n6,Six,Six\n", readResults(t, dir))
}

func TestFileCommand(t *testing.T) {
	dir := setupDataDir(t, newAPI(t).URL)

	require.NoError(t, execute(t, "file", "--data-dir", dir))
	assert.Equal(t, "CATEGORY_ID,CATEGORY_NAME,CATEGORY_PATH\n5,Five,Five\n", readResults(t, dir))
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"parameters": {}}`), 0o644))

	err := execute(t, "--data-dir", dir)
	assert.ErrorContains(t, err, "api_url is required")
	assert.ErrorAs(t, err, new(loggedError))
}

func TestMissingConfig(t *testing.T) {
	assert.Error(t, execute(t, "--data-dir", t.TempDir()))
}

func TestFailureReachesCollector(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		for {
			msg, err := reader.ReadString(0)
			if err != nil {
				return
			}
			if strings.Contains(msg, "api_url is required") {
				received <- msg
				return
			}
		}
	}()

	t.Setenv("KBC_LOGGER_ADDR", "127.0.0.1")
	t.Setenv("KBC_LOGGER_PORT", strconv.Itoa(ln.Addr().(*net.TCPAddr).Port))
	t.Cleanup(func() {
		log.StandardLogger().ReplaceHooks(make(log.LevelHooks))
		log.SetOutput(os.Stderr)
	})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"parameters": {}}`), 0o644))

	require.Error(t, execute(t, "--data-dir", dir))

	select {
	case msg := <-received:
		assert.Contains(t, msg, "Application exited with error")
		assert.Contains(t, msg, `"level":3`)
	case <-time.After(5 * time.Second):
		t.Fatal("collector never received the failure")
	}
}

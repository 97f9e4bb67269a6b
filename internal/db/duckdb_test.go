package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func secretFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(path, []byte("top-secret"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenBlocksFileAccess(t *testing.T) {
	conn, err := Open(Config{})
	if err != nil {
		t.Skipf("duckdb unavailable: %v", err)
	}
	defer conn.Close()

	path := secretFile(t)
	for _, q := range []string{
		"SELECT content FROM read_text('" + path + "')",
		"SELECT * FROM read_csv('" + path + "')",
		"SELECT content FROM read_text('/etc/hostname')",
	} {
		var content string
		if err := conn.QueryRow(q).Scan(&content); err == nil {
			t.Errorf("%s: read %q", q, content)
		}
	}

	if _, err := conn.Exec("SET enable_external_access = true"); err == nil {
		t.Fatal("external access could be re-enabled")
	}
	if _, err := conn.Exec("SET lock_configuration = false"); err == nil {
		t.Fatal("configuration could be unlocked")
	}

	var n int
	if err := conn.QueryRow("SELECT 41 + 1").Scan(&n); err != nil || n != 42 {
		t.Fatalf("plain query: n=%d err=%v", n, err)
	}
}

func TestOpenAllowExternalAccess(t *testing.T) {
	conn, err := Open(Config{AllowExternalAccess: true})
	if err != nil {
		t.Skipf("duckdb unavailable: %v", err)
	}
	defer conn.Close()

	var content string
	if err := conn.QueryRow("SELECT content FROM read_text('" + secretFile(t) + "')").Scan(&content); err != nil {
		t.Fatalf("read_text: %v", err)
	}
	if !strings.Contains(content, "top-secret") {
		t.Fatalf("content=%q", content)
	}
}

package models_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/JonathanStorey/gowhisper/internal/models"
)

func TestDefaultManifestParses(t *testing.T) {
	manifest, err := models.DefaultManifest()
	if err != nil {
		t.Fatalf("DefaultManifest error: %v", err)
	}
	base, ok := manifest.Variants["base"]
	if !ok {
		t.Fatal("embedded manifest missing base variant")
	}
	if base.Filename != "ggml-base.bin" {
		t.Fatalf("unexpected base filename %q", base.Filename)
	}
	if !strings.HasPrefix(base.URL, "https://") {
		t.Fatalf("unexpected base URL %q", base.URL)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	manifest := models.Manifest{Variants: map[string]models.Variant{
		"base": {DisplayName: "Base", Filename: "ggml-base.bin", URL: "https://example.com/base", SHA256: "abc", SizeBytes: 3},
	}}
	var buf strings.Builder
	if err := models.WriteManifest(&buf, manifest); err != nil {
		t.Fatalf("WriteManifest error: %v", err)
	}
	parsed, err := models.LoadManifest(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("LoadManifest error: %v", err)
	}
	if parsed.Variants["base"] != manifest.Variants["base"] {
		t.Fatalf("round trip mismatch: %+v", parsed.Variants["base"])
	}
}

func TestEnsureVariantDownloadsOnce(t *testing.T) {
	payload := []byte("pretend this is a ggml model")
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(payload)
	}))
	defer srv.Close()

	sum := sha256.Sum256(payload)
	manifest := models.Manifest{Variants: map[string]models.Variant{
		"base": {
			Filename:  "ggml-base.bin",
			URL:       srv.URL,
			SHA256:    hex.EncodeToString(sum[:]),
			SizeBytes: int64(len(payload)),
		},
	}}

	manager, err := models.NewManager(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	path, err := manager.EnsureVariant(context.Background(), "base", models.EnsureOptions{Manifest: manifest})
	if err != nil {
		t.Fatalf("EnsureVariant error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("downloaded payload mismatch")
	}

	// Second call resolves locally without touching the server.
	if _, err := manager.EnsureVariant(context.Background(), "base", models.EnsureOptions{Manifest: manifest}); err != nil {
		t.Fatalf("second EnsureVariant error: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected 1 download, got %d", hits.Load())
	}
}

func TestEnsureVariantRejectsChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("corrupted"))
	}))
	defer srv.Close()

	manifest := models.Manifest{Variants: map[string]models.Variant{
		"base": {Filename: "ggml-base.bin", URL: srv.URL, SHA256: strings.Repeat("0", 64)},
	}}

	manager, err := models.NewManager(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	if _, err := manager.EnsureVariant(context.Background(), "base", models.EnsureOptions{Manifest: manifest}); err == nil {
		t.Fatal("expected checksum mismatch error")
	}

	// No partial artefact may survive.
	entries, err := os.ReadDir(manager.ModelsDir())
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty models dir, found %d entries", len(entries))
	}
}

func TestEnsureVariantHonoursOverride(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "custom.bin")
	if err := os.WriteFile(override, []byte("model"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	manager, err := models.NewManager(dir, nil)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	path, err := manager.EnsureVariant(context.Background(), "base", models.EnsureOptions{Override: override})
	if err != nil {
		t.Fatalf("EnsureVariant error: %v", err)
	}
	if path != override {
		t.Fatalf("expected override path %q, got %q", override, path)
	}

	if _, err := manager.EnsureVariant(context.Background(), "base", models.EnsureOptions{Override: filepath.Join(dir, "missing.bin")}); err == nil {
		t.Fatal("expected error for missing override")
	}
}

func TestResolveUnknownVariant(t *testing.T) {
	manager, err := models.NewManager(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	if _, err := manager.Resolve("no-such-variant", ""); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

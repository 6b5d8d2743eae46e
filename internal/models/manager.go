package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Manager resolves and downloads model artefacts under a local data directory.
type Manager struct {
	baseDir string
	log     *slog.Logger
	client  *http.Client
}

// EnsureOptions configures EnsureVariant.
type EnsureOptions struct {
	Manifest Manifest
	// Override, when set, points at a model file the caller manages; the
	// manager only verifies it exists.
	Override string
}

// NewManager creates a manager rooted at baseDir, creating the models
// directory if needed.
func NewManager(baseDir string, logger *slog.Logger) (*Manager, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("models: base directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		baseDir: filepath.Clean(baseDir),
		log:     logger.With("component", "models.Manager"),
		client:  &http.Client{Timeout: 30 * time.Minute},
	}
	if err := os.MkdirAll(m.ModelsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("models: create models directory: %w", err)
	}
	return m, nil
}

// ModelsDir returns the directory artefacts are stored in.
func (m *Manager) ModelsDir() string {
	return filepath.Join(m.baseDir, "models")
}

// Resolve returns the local path for a variant without downloading anything.
// An explicit override wins; otherwise the variant's manifest filename must
// already exist under ModelsDir.
func (m *Manager) Resolve(variant, override string) (string, error) {
	if strings.TrimSpace(override) != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("models: model path %q: %w", override, err)
		}
		return override, nil
	}

	manifest, err := DefaultManifest()
	if err != nil {
		return "", err
	}
	v, ok := manifest.Variants[variant]
	if !ok {
		return "", fmt.Errorf("models: unknown variant %q", variant)
	}
	path := filepath.Join(m.ModelsDir(), v.Filename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("models: variant %q not present locally: %w", variant, err)
	}
	return path, nil
}

// EnsureVariant returns the local path for a variant, downloading the
// artefact when it is not already present.
func (m *Manager) EnsureVariant(ctx context.Context, variant string, opts EnsureOptions) (string, error) {
	if strings.TrimSpace(opts.Override) != "" {
		if _, err := os.Stat(opts.Override); err != nil {
			return "", fmt.Errorf("models: model path %q: %w", opts.Override, err)
		}
		return opts.Override, nil
	}

	v, ok := opts.Manifest.Variants[variant]
	if !ok {
		return "", fmt.Errorf("models: unknown variant %q", variant)
	}
	if v.Filename == "" {
		return "", fmt.Errorf("models: variant %q has no filename", variant)
	}

	path := filepath.Join(m.ModelsDir(), v.Filename)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if v.URL == "" {
		return "", fmt.Errorf("models: variant %q is not present and has no download URL", variant)
	}
	if err := m.download(ctx, v, path); err != nil {
		return "", err
	}
	return path, nil
}

// download fetches the artefact into a temp file, verifies the checksum when
// known, and renames it into place so partial downloads never shadow a model.
func (m *Manager) download(ctx context.Context, v Variant, dest string) error {
	m.log.Info("downloading model", "url", v.URL, "dest", dest)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.URL, nil)
	if err != nil {
		return fmt.Errorf("models: create request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("models: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("models: download failed: HTTP %d", resp.StatusCode)
	}

	tmp := dest + ".download"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("models: create temp file: %w", err)
	}

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(file, hasher), resp.Body)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("models: write %s: %w", tmp, err)
	}

	if v.SHA256 != "" {
		sum := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(sum, v.SHA256) {
			os.Remove(tmp)
			return fmt.Errorf("models: checksum mismatch for %s: got %s, want %s", dest, sum, v.SHA256)
		}
	}
	if v.SizeBytes > 0 && written != v.SizeBytes {
		os.Remove(tmp)
		return fmt.Errorf("models: size mismatch for %s: got %d, want %d", dest, written, v.SizeBytes)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("models: finalise download: %w", err)
	}
	m.log.Info("model ready", "dest", dest, "bytes", written)
	return nil
}

package appinfo_test

import (
	"testing"

	"github.com/JonathanStorey/gowhisper/internal/appinfo"
)

func TestResultMetadata(t *testing.T) {
	meta := appinfo.ResultMetadata("base", "en")
	if meta["generator"] != appinfo.Info.Slug {
		t.Fatalf("generator = %q, want %q", meta["generator"], appinfo.Info.Slug)
	}
	if meta["model_variant"] != "base" {
		t.Fatalf("model_variant = %q, want base", meta["model_variant"])
	}
	if meta["language"] != "en" {
		t.Fatalf("language = %q, want en", meta["language"])
	}
}

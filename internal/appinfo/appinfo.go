package appinfo

// Metadata captures static identifiers for the service. Centralising the
// values keeps binaries and emitted payloads consistent.
type Metadata struct {
	Name        string
	BinaryName  string
	Slug        string
	Description string
}

// Info describes the current service.
var Info = Metadata{
	Name:        "GoWhisper Transcription Server",
	BinaryName:  "transcribe-server",
	Slug:        "gowhisper",
	Description: "Speech-to-text transcription service backed by whisper.cpp.",
}

// ResultMetadata produces the standard metadata payload attached to emitted
// transcription results.
func ResultMetadata(modelVariant, language string) map[string]string {
	return map[string]string{
		"generator":     Info.Slug,
		"model_variant": modelVariant,
		"language":      language,
	}
}

// Command transcribe runs one transcription over a WAV file and prints the
// timestamped transcript as segments are finalized.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonathanStorey/gowhisper/internal/audioio"
	"github.com/JonathanStorey/gowhisper/internal/config"
	"github.com/JonathanStorey/gowhisper/internal/models"
	"github.com/JonathanStorey/gowhisper/pkg/whisper"
)

func main() {
	var (
		modelPath = flag.String("model", "", "path to a ggml model file (overrides -variant)")
		variant   = flag.String("variant", config.DefaultModel, "model variant to download and use")
		dataDir   = flag.String("data-dir", config.DefaultDataDir, "directory for downloaded models")
		language  = flag.String("language", config.DefaultLanguage, "language hint, or auto")
		translate = flag.Bool("translate", false, "translate the transcript into English")
		threads   = flag.Int("threads", 0, "engine threads, 0 selects the engine default")
		beamSize  = flag.Int("beam-size", 0, "beam search width, 0 selects greedy decoding")
		useStub   = flag.Bool("stub", false, "use the stub engine instead of whisper.cpp")
		progress  = flag.Bool("progress", false, "report progress estimates on stderr")
		logLevel  = flag.String("log-level", "error", "log level: debug, info, warn, error")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <audio.wav>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(*logLevel),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Arg(0), options{
		modelPath: *modelPath,
		variant:   *variant,
		dataDir:   *dataDir,
		language:  *language,
		translate: *translate,
		threads:   *threads,
		beamSize:  *beamSize,
		useStub:   *useStub,
		progress:  *progress,
	}, logger); err != nil {
		fmt.Fprintf(os.Stderr, "transcribe: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	modelPath string
	variant   string
	dataDir   string
	language  string
	translate bool
	threads   int
	beamSize  int
	useStub   bool
	progress  bool
}

func run(ctx context.Context, audioPath string, opts options, logger *slog.Logger) error {
	frames, err := audioio.ReadFile(audioPath)
	if err != nil {
		return err
	}
	logger.Info("audio decoded",
		"frames", len(frames),
		"duration_sec", float64(len(frames))/whisper.SampleRate,
	)

	params := whisper.DefaultParams()
	params.Language = opts.language
	params.Translate = opts.translate
	params.Threads = opts.threads
	params.BeamSize = opts.beamSize

	sess, err := newSession(ctx, opts, params, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	if _, err := sess.TranscribeWithContext(ctx, frames); err != nil {
		return err
	}
	return nil
}

// newSession builds the session and wires a printing delegate: segments go to
// stdout as they are finalized, progress optionally to stderr.
func newSession(ctx context.Context, opts options, params whisper.Params, logger *slog.Logger) (*whisper.Session, error) {
	delegate := &printer{progress: opts.progress}

	if opts.useStub || !whisper.NativeAvailable() {
		if !opts.useStub {
			logger.Warn("native engine not built in, using stub engine")
		}
		return whisper.NewSession(whisper.NewStubContext(), params, delegate, logger), nil
	}

	manager, err := models.NewManager(opts.dataDir, logger)
	if err != nil {
		return nil, err
	}
	manifest, err := models.DefaultManifest()
	if err != nil {
		return nil, err
	}
	modelPath, err := manager.EnsureVariant(ctx, opts.variant, models.EnsureOptions{
		Manifest: manifest,
		Override: opts.modelPath,
	})
	if err != nil {
		return nil, err
	}
	return whisper.New(modelPath, params, delegate, logger)
}

// printer streams the transcript to stdout.
type printer struct {
	progress bool
}

func (p *printer) OnProgress(_ *whisper.Session, progress float64) {
	if p.progress {
		fmt.Fprintf(os.Stderr, "progress: %5.1f%%\n", progress*100)
	}
}

func (p *printer) OnNewSegments(_ *whisper.Session, segments []whisper.Segment, _ int) {
	for _, seg := range segments {
		fmt.Printf("[%s --> %s] %s\n", formatMillis(seg.StartMS), formatMillis(seg.EndMS), seg.Text)
	}
}

func (p *printer) OnCompletion(_ *whisper.Session, _ []whisper.Segment) {}

// formatMillis renders a millisecond offset as HH:MM:SS.mmm.
func formatMillis(ms int64) string {
	return fmt.Sprintf("%02d:%02d:%02d.%03d",
		ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

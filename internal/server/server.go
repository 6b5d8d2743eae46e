package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/JonathanStorey/gowhisper/internal/appinfo"
	"github.com/JonathanStorey/gowhisper/internal/config"
	"github.com/JonathanStorey/gowhisper/internal/telemetry"
	"github.com/JonathanStorey/gowhisper/pkg/whisper"
)

// TranscribeSession is the slice of whisper.Session the server depends on.
type TranscribeSession interface {
	Transcribe(frames []float32, complete whisper.CompletionHandler)
	Close() error
}

// SessionFactory creates one transcription session per websocket connection.
// The delegate must receive the session's streaming events.
type SessionFactory func(params whisper.Params, delegate whisper.Delegate) (TranscribeSession, error)

// Server upgrades websocket connections and bridges them onto transcription
// sessions: binary messages accumulate audio, "start"/"run" control messages
// drive runs, and session events stream back as JSON.
type Server struct {
	cfg        config.Config
	log        *slog.Logger
	newSession SessionFactory
	metrics    *telemetry.Recorder
	upgrader   websocket.Upgrader
}

// New returns a new Server instance.
func New(cfg config.Config, logger *slog.Logger, newSession SessionFactory, metrics *telemetry.Recorder) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if newSession == nil {
		panic("server: session factory must not be nil")
	}
	if metrics == nil {
		metrics = telemetry.NewRecorder(logger)
	}
	return &Server{
		cfg: cfg,
		log: logger.With(
			"component", "server",
			"model_variant", cfg.ModelVariant,
			"language", cfg.Language,
		),
		newSession: newSession,
		metrics:    metrics,
	}
}

// Handler returns the HTTP routes served by this server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/v1/transcribe", s)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// ServeHTTP handles one websocket transcription connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	connID := uuid.NewString()
	log := s.log.With("conn_id", connID)
	log.Info("connection opened", "remote_addr", r.RemoteAddr)

	c := &clientConn{
		server: s,
		connID: connID,
		ws:     ws,
		log:    log,
	}
	defer func() {
		// Close waits for any in-flight run; the session must outlive the
		// background engine call.
		if c.sess != nil {
			if err := c.sess.Close(); err != nil {
				log.Warn("failed to close session", "error", err)
			}
		}
		log.Info("connection closed")
	}()

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("read failed", "error", err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.appendAudio(data)
		case websocket.TextMessage:
			var msg clientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				c.sendError(fmt.Sprintf("malformed control message: %v", err))
				continue
			}
			c.handleControl(msg)
		}
	}
}

// clientConn owns per-connection state. Control handling runs on the read
// goroutine; session events arrive on the session's delivery goroutine, so
// websocket writes and the run pointer are guarded.
type clientConn struct {
	server *Server
	connID string
	log    *slog.Logger

	writeMu sync.Mutex
	ws      *websocket.Conn

	sess   TranscribeSession
	frames []float32

	runMu sync.Mutex
	run   *telemetry.RunMetrics
}

func (c *clientConn) handleControl(msg clientMessage) {
	switch msg.Type {
	case "start":
		c.handleStart(msg)
	case "run":
		c.handleRun()
	default:
		c.sendError(fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (c *clientConn) handleStart(msg clientMessage) {
	if c.sess != nil {
		c.sendError("session already started")
		return
	}

	params := c.server.runParams(msg)
	sess, err := c.server.newSession(params, c)
	if err != nil {
		c.log.Error("session creation failed", "error", err)
		c.sendError(fmt.Sprintf("session unavailable: %v", err))
		return
	}
	c.sess = sess
	c.frames = nil

	language := params.Language
	c.sendEvent(serverEvent{
		Type:     "ready",
		Metadata: appinfo.ResultMetadata(c.server.cfg.ModelVariant, language),
	})
}

func (c *clientConn) handleRun() {
	if c.sess == nil {
		c.sendError("no session: send a start message first")
		return
	}

	frames := c.frames
	c.frames = nil

	if len(frames) == 0 {
		c.server.metrics.RecordRejection("empty_frames")
		c.sendError(whisper.ErrInvalidFrames.Error())
		return
	}

	run := c.server.metrics.StartRun(c.connID, len(frames),
		appinfo.ResultMetadata(c.server.cfg.ModelVariant, c.server.cfg.Language))
	c.runMu.Lock()
	c.run = run
	c.runMu.Unlock()

	c.sess.Transcribe(frames, func(segments []whisper.Segment, err error) {
		c.runMu.Lock()
		c.run = nil
		c.runMu.Unlock()

		if err != nil {
			if errors.Is(err, whisper.ErrInstanceBusy) {
				c.server.metrics.RecordRejection("busy")
			}
			run.Finish(err)
			c.sendError(err.Error())
			return
		}
		// OnCompletion already streamed the terminal event.
		run.Finish(nil)
	})
}

func (c *clientConn) appendAudio(data []byte) {
	frames, err := decodeFrames(data)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.frames = append(c.frames, frames...)
}

// OnProgress implements whisper.Delegate.
func (c *clientConn) OnProgress(_ *whisper.Session, progress float64) {
	c.runMu.Lock()
	c.run.RecordProgress(progress)
	c.runMu.Unlock()
	c.sendEvent(serverEvent{Type: "progress", Progress: progress})
}

// OnNewSegments implements whisper.Delegate.
func (c *clientConn) OnNewSegments(_ *whisper.Session, segments []whisper.Segment, startIndex int) {
	c.runMu.Lock()
	c.run.RecordBatch(len(segments), startIndex)
	c.runMu.Unlock()
	c.sendEvent(serverEvent{
		Type:       "segments",
		StartIndex: startIndex,
		Segments:   wireSegments(segments),
	})
}

// OnCompletion implements whisper.Delegate.
func (c *clientConn) OnCompletion(_ *whisper.Session, segments []whisper.Segment) {
	c.sendEvent(serverEvent{
		Type:     "completion",
		Segments: wireSegments(segments),
	})
}

func (c *clientConn) sendError(message string) {
	c.sendEvent(serverEvent{Type: "error", Error: message})
}

func (c *clientConn) sendEvent(ev serverEvent) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(ev); err != nil {
		c.log.Debug("failed to send event", "type", ev.Type, "error", err)
	}
}

// runParams merges the configured defaults with per-connection overrides.
func (s *Server) runParams(msg clientMessage) whisper.Params {
	params := whisper.DefaultParams()
	params.Language = s.cfg.Language
	if s.cfg.Translate != nil {
		params.Translate = *s.cfg.Translate
	}
	if s.cfg.Threads != nil {
		params.Threads = *s.cfg.Threads
	}
	if s.cfg.BeamSize != nil {
		params.BeamSize = *s.cfg.BeamSize
	}
	if msg.Language != "" {
		params.Language = msg.Language
	}
	if msg.Translate != nil {
		params.Translate = *msg.Translate
	}
	return params
}

//go:build whispercpp

package whisper

/*
#cgo CFLAGS: -I${SRCDIR}/../../third_party/whisper.cpp -I${SRCDIR}/../../third_party/whisper.cpp/include -I${SRCDIR}/../../third_party/whisper.cpp/ggml/include
#cgo CXXFLAGS: -std=c++17 -I${SRCDIR}/../../third_party/whisper.cpp -I${SRCDIR}/../../third_party/whisper.cpp/include -I${SRCDIR}/../../third_party/whisper.cpp/ggml/include
#cgo LDFLAGS: -L${SRCDIR}/../../third_party/whisper.cpp/build -L${SRCDIR}/../../third_party/whisper.cpp/build/src -Wl,-rpath,${SRCDIR}/../../third_party/whisper.cpp/build/src -lwhisper -lstdc++ -lm

#include <stdlib.h>
#include "include/whisper.h"

void goWhisperNewSegment(struct whisper_context * ctx, struct whisper_state * state, int n_new, void * user_data);
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"strings"
	"unsafe"
)

// NativeAvailable reports whether the whisper.cpp backend is compiled in.
func NativeAvailable() bool { return true }

// NativeContext owns one whisper.cpp inference context. It is never usable
// after Free; the owning Session guarantees single release.
type NativeContext struct {
	ctx *C.struct_whisper_context
}

// NewContext initialises a native context from a model file on disk.
func NewContext(modelPath string) (Engine, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, fmt.Errorf("%w: model path required", ErrEngineInitFailed)
	}
	cPath := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cPath))

	ctx := C.whisper_init_from_file_with_params(cPath, C.whisper_context_default_params())
	if ctx == nil {
		return nil, fmt.Errorf("%w: cannot load model %s", ErrEngineInitFailed, modelPath)
	}
	return &NativeContext{ctx: ctx}, nil
}

// NewContextFromBuffer initialises a native context from an in-memory model.
// The native layer gives no lifetime guarantee for the caller's buffer beyond
// the call, so the bytes are copied into C memory owned by this call and
// released once initialisation returns.
func NewContextFromBuffer(model []byte) (Engine, error) {
	if len(model) == 0 {
		return nil, fmt.Errorf("%w: empty model buffer", ErrEngineInitFailed)
	}
	buf := C.CBytes(model)
	defer C.free(buf)

	ctx := C.whisper_init_from_buffer_with_params(buf, C.size_t(len(model)), C.whisper_context_default_params())
	if ctx == nil {
		return nil, fmt.Errorf("%w: cannot load model from buffer (%d bytes)", ErrEngineInitFailed, len(model))
	}
	return &NativeContext{ctx: ctx}, nil
}

// RunFull implements the Engine interface. It blocks until the whole sample
// buffer has been consumed, invoking the bound session's callback from the
// engine thread as segments are finalized.
func (n *NativeContext) RunFull(params Params, samples []float32) error {
	if len(samples) == 0 {
		return ErrInvalidFrames
	}

	strategy := C.enum_whisper_sampling_strategy(C.WHISPER_SAMPLING_GREEDY)
	if params.BeamSize > 1 {
		strategy = C.enum_whisper_sampling_strategy(C.WHISPER_SAMPLING_BEAM_SEARCH)
	}
	cParams := C.whisper_full_default_params(strategy)
	cParams.print_progress = C.bool(false)
	cParams.print_realtime = C.bool(false)
	cParams.print_timestamps = C.bool(false)
	cParams.print_special = C.bool(false)
	cParams.translate = C.bool(params.Translate)
	cParams.no_context = C.bool(params.NoContext)
	cParams.single_segment = C.bool(params.SingleSegment)
	cParams.suppress_blank = C.bool(params.SuppressBlank)
	if params.Threads > 0 {
		cParams.n_threads = C.int(params.Threads)
	}
	if params.BeamSize > 1 {
		cParams.beam_search.beam_size = C.int(params.BeamSize)
	}
	if params.MaxTokens > 0 {
		cParams.max_tokens = C.int(params.MaxTokens)
	}
	if params.AudioCtx > 0 {
		cParams.audio_ctx = C.int(params.AudioCtx)
	}
	if params.Temperature > 0 {
		cParams.temperature = C.float(params.Temperature)
	}

	lang := strings.TrimSpace(params.Language)
	if lang == "" {
		lang = "auto"
	}
	cLang := C.CString(lang)
	defer C.free(unsafe.Pointer(cLang))
	cParams.language = cLang
	if strings.EqualFold(lang, "auto") {
		cParams.detect_language = C.bool(true)
	}

	var cPrompt *C.char
	if params.InitialPrompt != "" {
		cPrompt = C.CString(params.InitialPrompt)
		defer C.free(unsafe.Pointer(cPrompt))
		cParams.initial_prompt = cPrompt
	}

	// The token lives on this stack frame for the duration of the blocking
	// call; the C side only dereferences it while whisper_full is executing.
	handle := params.token
	cParams.new_segment_callback = (C.whisper_new_segment_callback)(C.goWhisperNewSegment)
	cParams.new_segment_callback_user_data = unsafe.Pointer(&handle)

	cSamples := (*C.float)(unsafe.Pointer(&samples[0]))
	if ret := C.whisper_full(n.ctx, cParams, cSamples, C.int(len(samples))); ret != 0 {
		return fmt.Errorf("whisper: inference failed with code %d", int(ret))
	}
	return nil
}

// SegmentCount implements the Engine interface.
func (n *NativeContext) SegmentCount() int {
	return int(C.whisper_full_n_segments(n.ctx))
}

// SegmentText implements the Engine interface.
func (n *NativeContext) SegmentText(i int) string {
	return strings.TrimSpace(C.GoString(C.whisper_full_get_segment_text(n.ctx, C.int(i))))
}

// SegmentStart implements the Engine interface (10 ms ticks).
func (n *NativeContext) SegmentStart(i int) int64 {
	return int64(C.whisper_full_get_segment_t0(n.ctx, C.int(i)))
}

// SegmentEnd implements the Engine interface (10 ms ticks).
func (n *NativeContext) SegmentEnd(i int) int64 {
	return int64(C.whisper_full_get_segment_t1(n.ctx, C.int(i)))
}

// Free implements the Engine interface. Double free is undefined behaviour in
// the native layer; the nil reset keeps an accidental second call inert.
func (n *NativeContext) Free() {
	if n.ctx != nil {
		C.whisper_free(n.ctx)
		n.ctx = nil
	}
}

//export goWhisperNewSegment
func goWhisperNewSegment(cctx *C.struct_whisper_context, state *C.struct_whisper_state, nNew C.int, userData unsafe.Pointer) {
	if userData == nil {
		return
	}
	handlePtr := (*cgo.Handle)(userData)
	if handlePtr == nil {
		return
	}
	if s, ok := sessionFromHandle(*handlePtr); ok {
		s.collectNewSegments(int(nNew))
	}
}

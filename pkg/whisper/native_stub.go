//go:build !whispercpp

package whisper

// NativeAvailable reports whether the whisper.cpp backend is compiled in.
func NativeAvailable() bool { return false }

// NewContext returns an error when the native backend is not built.
func NewContext(modelPath string) (Engine, error) {
	return nil, ErrEngineUnavailable
}

// NewContextFromBuffer returns an error when the native backend is not built.
func NewContextFromBuffer(model []byte) (Engine, error) {
	return nil, ErrEngineUnavailable
}

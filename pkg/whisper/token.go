package whisper

import "runtime/cgo"

// sessionFromHandle resolves a callback token back to its session. The engine
// hands the token back as opaque user data; a stale or foreign handle must
// not crash the process, so resolution is fully defensive.
func sessionFromHandle(h cgo.Handle) (*Session, bool) {
	if h == 0 {
		return nil, false
	}

	var (
		value     any
		recovered bool
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				recovered = true
				value = nil
			}
		}()
		value = h.Value()
	}()

	if recovered || value == nil {
		return nil, false
	}

	s, ok := value.(*Session)
	return s, ok
}

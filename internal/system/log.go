package system

import "log"

// Logf is the package-level log sink used by library code. The CLI keeps the
// default; tests mute it with SetLogger(nil).
var Logf = log.Printf

// SetLogger replaces Logf. A nil function installs a no-op.
func SetLogger(fn func(format string, args ...interface{})) {
	if fn == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = fn
}

package warmlib

import (
	"log"
	"runtime/debug"
)

// safeGo runs fn in a goroutine with panic recovery. A panicking fetch
// must never take the daemon down; the worst acceptable outcome is one
// video not being prewarmed. Panics are logged with a stack trace when
// a logger is present, and onPanic (if non-nil) receives the recovered
// value so the caller can free the slot.
func safeGo(l *log.Logger, context string, onPanic func(r any), fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if l != nil {
					l.Printf("PANIC [%s]: %v\n%s", context, r, debug.Stack())
				}
				if onPanic != nil {
					onPanic(r)
				}
			}
		}()
		fn()
	}()
}

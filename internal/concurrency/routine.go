package concurrency

import (
	"log/slog"
	"runtime/debug"
)

// SafeGo runs a function in a goroutine with panic recovery.
func SafeGo(fn func(), onPanic func(interface{})) {
	go func() {
		defer Recover(onPanic)
		fn()
	}()
}

// Recover is deferred by callers that run fn inline but still must not crash
// the process, such as HTTP handlers and tool invocations.
func Recover(onPanic func(interface{})) {
	if r := recover(); r != nil {
		slog.Error("Panic recovered", "panic", r, "stack", string(debug.Stack()))
		if onPanic != nil {
			onPanic(r)
		}
	}
}

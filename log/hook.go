package log

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const maxStackDepth = 32

// callerStackHook attaches the calling goroutine's stack to error and more
// severe events, leaving out zerolog's own frames.
type callerStackHook struct{}

func (callerStackHook) Run(e *zerolog.Event, level zerolog.Level, _ string) {
	if level < zerolog.ErrorLevel || level == zerolog.NoLevel {
		return
	}

	arr := zerolog.Arr()
	for _, f := range callerFrames() {
		arr.Str(f)
	}
	e.Array("stack", arr)
}

func callerFrames() []string {
	var pcs [maxStackDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	out := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !strings.HasPrefix(frame.Function, "github.com/rs/zerolog") {
			out = append(out, frame.Function+" "+frame.File+":"+strconv.Itoa(frame.Line))
		}
		if !more {
			break
		}
	}

	return out
}

package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func AddToLogMessage(logMessagesBuilder *strings.Builder, strToAdd string) {

	if logMessagesBuilder.Len() == logMessagesBuilder.Cap() {

		logMessagesBuilder.Grow(len(strToAdd))
	}

	logMessagesBuilder.WriteString(strToAdd)
	logMessagesBuilder.WriteString(";")
	logMessagesBuilder.WriteString("\n")
}

// RequestLog collects the steps of one API call and writes them as a single
// log event when the handler returns.
type RequestLog struct {
	builder strings.Builder
	logger  zerolog.Logger
	api     string
	start   time.Time
	failed  bool
}

func NewRequestLog(logger zerolog.Logger, api string) *RequestLog {
	l := &RequestLog{logger: logger, api: api, start: time.Now()}
	AddToLogMessage(&l.builder, api)
	return l
}

func (l *RequestLog) Add(msg string) {
	AddToLogMessage(&l.builder, msg)
}

func (l *RequestLog) Addf(format string, args ...any) {
	AddToLogMessage(&l.builder, fmt.Sprintf(format, args...))
}

// Fail marks the request as failed so Flush logs at error level.
func (l *RequestLog) Fail() {
	l.failed = true
}

func (l *RequestLog) String() string {
	return l.builder.String()
}

func (l *RequestLog) Flush() {
	ev := l.logger.Info()
	if l.failed {
		ev = l.logger.Error()
	}
	ev.Str("api", l.api).Dur("took", time.Since(l.start)).Msg(l.builder.String())
}

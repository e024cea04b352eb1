package core

// Diagnostic logging. Lines are formatted in the low-priority context and
// handed to a sink; in the firmware the sink is the outbound ring buffer
// drained by the transport, so a full buffer simply drops the line.

// LogSink receives complete formatted lines. Put must be all-or-nothing;
// a ring.Buffer satisfies the interface.
type LogSink interface {
	Put(data []byte) error
}

// LogLevel filters diagnostic output.
type LogLevel uint8

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelNone
)

var (
	logSink  LogSink
	logLevel = LogLevelInfo
)

// Tags used by the core.
const (
	tagBoost = "boost"
)

// SetLogSink routes diagnostic lines to the given sink. A nil sink
// silences logging.
func SetLogSink(s LogSink) {
	logSink = s
}

// SetLogLevel sets the minimum level that reaches the sink.
func SetLogLevel(l LogLevel) {
	logLevel = l
}

func LogDebug(tag, msg string) { logWrite(LogLevelDebug, "D", tag, msg) }
func LogInfo(tag, msg string)  { logWrite(LogLevelInfo, "I", tag, msg) }
func LogWarn(tag, msg string)  { logWrite(LogLevelWarn, "W", tag, msg) }
func LogError(tag, msg string) { logWrite(LogLevelError, "E", tag, msg) }

func logWrite(level LogLevel, prefix, tag, msg string) {
	if logSink == nil || level < logLevel {
		return
	}
	// Dropped on overflow: diagnostics never block the producer.
	_ = logSink.Put([]byte(prefix + "/" + tag + ": " + msg + "\r\n"))
}

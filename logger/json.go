package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// JSONLogEntry defines a log entry
type JSONLogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Message   string                 `json:"message"`
	Severity  string                 `json:"severity,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// String renders an entry structure to a JSON log line.
func (e JSONLogEntry) String() string {
	if e.Severity == "" {
		e.Severity = "INFO"
	}
	out, err := json.Marshal(e)
	if err != nil {
		log.Printf("json.Marshal: %v", err)
	}
	return string(out)
}

type jsonLogger struct {
	metadata map[string]interface{}
	prefixes []string
	logLevel LogLevel
}

var _ Logger = (*jsonLogger)(nil)

func (j *jsonLogger) clone() *jsonLogger {
	prefixes := make([]string, len(j.prefixes))
	copy(prefixes, j.prefixes)
	metadata := make(map[string]interface{})
	for k, v := range j.metadata {
		metadata[k] = v
	}
	return &jsonLogger{
		prefixes: prefixes,
		metadata: metadata,
		logLevel: j.logLevel,
	}
}

func (j *jsonLogger) With(metadata map[string]interface{}) Logger {
	l := j.clone()
	for k, v := range metadata {
		l.metadata[k] = v
	}
	return l
}

// WithPrefix will return a new logger with a prefix prepended to the message
func (j *jsonLogger) WithPrefix(prefix string) Logger {
	l := j.clone()
	l.prefixes = append(l.prefixes, prefix)
	return l
}

func (j *jsonLogger) log(level LogLevel, severity string, msg string, args ...interface{}) {
	if level < j.logLevel {
		return
	}
	message := fmt.Sprintf(msg, args...)
	if len(j.prefixes) > 0 {
		message = strings.Join(j.prefixes, " ") + " " + message
	}
	entry := JSONLogEntry{
		Timestamp: time.Now(),
		Message:   message,
		Severity:  severity,
		Metadata:  j.metadata,
	}
	log.Println(entry.String())
}

func (j *jsonLogger) Trace(msg string, args ...interface{}) {
	j.log(LevelTrace, "TRACE", msg, args...)
}

func (j *jsonLogger) Debug(msg string, args ...interface{}) {
	j.log(LevelDebug, "DEBUG", msg, args...)
}

func (j *jsonLogger) Info(msg string, args ...interface{}) {
	j.log(LevelInfo, "INFO", msg, args...)
}

func (j *jsonLogger) Warn(msg string, args ...interface{}) {
	j.log(LevelWarn, "WARNING", msg, args...)
}

func (j *jsonLogger) Error(msg string, args ...interface{}) {
	j.log(LevelError, "ERROR", msg, args...)
}

// NewJSONLogger returns a new Logger instance which will log JSON lines
func NewJSONLogger(levels ...LogLevel) Logger {
	level := GetLevelFromEnv()
	if len(levels) > 0 {
		level = levels[0]
	}
	return &jsonLogger{logLevel: level}
}

package weir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strconv"
	"sync"
	"text/template"
	"time"
)

// Logger is used to log information generated during a run, modeled on the
// teacher's air.Logger: a text/template-driven line format, a sync.Pool of
// reusable buffers, and level methods with plain/formatted/JSON variants.
type Logger struct {
	w *Weir

	template   *template.Template
	bufferPool *sync.Pool
	mutex      *sync.Mutex
	levels     []string

	Output io.Writer
}

// loggerLevel is the level of the Logger.
type loggerLevel uint8

// logger levels.
const (
	lvlDebug loggerLevel = iota
	lvlInfo
	lvlWarn
	lvlError
	lvlFatal
)

// newLogger returns a pointer to a new Logger bound to w.
func newLogger(w *Weir) *Logger {
	return &Logger{
		w: w,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 256))
			},
		},
		mutex:  &sync.Mutex{},
		levels: []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"},
		Output: os.Stdout,
	}
}

// Print prints the log info with the provided args.
func (l *Logger) Print(i ...interface{}) { fmt.Fprintln(l.Output, i...) }

// Debug prints the DEBUG level log info with the provided args.
func (l *Logger) Debug(i ...interface{}) { l.log(lvlDebug, "", i...) }

// Debugf prints the DEBUG level log info in the format with the provided args.
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(lvlDebug, format, args...) }

// Debugj prints the DEBUG level log info as the JSON-shaped fields m.
func (l *Logger) Debugj(m map[string]interface{}) { l.log(lvlDebug, "json", m) }

// Info prints the INFO level log info with the provided args.
func (l *Logger) Info(i ...interface{}) { l.log(lvlInfo, "", i...) }

// Infof prints the INFO level log info in the format with the provided args.
func (l *Logger) Infof(format string, args ...interface{}) { l.log(lvlInfo, format, args...) }

// Infoj prints the INFO level log info as the JSON-shaped fields m.
func (l *Logger) Infoj(m map[string]interface{}) { l.log(lvlInfo, "json", m) }

// Warn prints the WARN level log info with the provided args.
func (l *Logger) Warn(i ...interface{}) { l.log(lvlWarn, "", i...) }

// Warnf prints the WARN level log info in the format with the provided args.
func (l *Logger) Warnf(format string, args ...interface{}) { l.log(lvlWarn, format, args...) }

// Warnj prints the WARN level log info as the JSON-shaped fields m.
func (l *Logger) Warnj(m map[string]interface{}) { l.log(lvlWarn, "json", m) }

// Error prints the ERROR level log info with the provided args.
func (l *Logger) Error(i ...interface{}) { l.log(lvlError, "", i...) }

// Errorf prints the ERROR level log info in the format with the provided args.
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(lvlError, format, args...) }

// Errorj prints the ERROR level log info as the JSON-shaped fields m.
func (l *Logger) Errorj(m map[string]interface{}) { l.log(lvlError, "json", m) }

// Fatal prints its message as a plain line, without the structured level
// header the other level methods render, and terminates the process with
// exit status 1. Used
// only for configuration-level failures discovered before a run starts;
// the checker itself never escalates a single URI's failure to Fatal.
func (l *Logger) Fatal(i ...interface{}) {
	l.log(lvlFatal, "", i...)
	os.Exit(1)
}

// logRequest is a convenience wrapper producing the structured fields an
// orchestrator logs for one completed Request/Status pair.
func (l *Logger) logRequest(req Request, status Status, elapsed time.Duration) {
	fields := map[string]interface{}{
		"uri":       req.URI.String(),
		"source":    req.Source,
		"status":    status.String(),
		"elapsed_ms": elapsed.Milliseconds(),
	}
	if status.IsError() {
		l.Errorj(fields)
	} else {
		l.Infoj(fields)
	}
}

// log renders the lvl level's header (via the configurable LoggerFormat
// template) and merges it with this call's payload into one structured
// field set, the same shape logRequest builds for a completed check: a
// plain Debug/Info/Warn/Error call contributes a "message" field, a Debugj/
// Infoj/etc. call merges its map directly, so every line this Logger emits
// (ad hoc or request-driven) ends up as one uniform JSON object rather than
// two differently-shaped halves stitched together by string surgery.
func (l *Logger) log(lvl loggerLevel, format string, args ...interface{}) {
	if l.w != nil && !l.w.LoggerEnabled {
		return
	}
	if l.template == nil {
		f := l.w.LoggerFormat
		if f == "" {
			f = defaultLogFormat
		}
		l.template = template.Must(template.New("logger").Parse(f))
	}

	if lvl == lvlFatal {
		fmt.Fprintln(l.Output, renderMessage(format, args))
		return
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	buf := l.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		l.bufferPool.Put(buf)
	}()

	_, file, line, _ := runtime.Caller(3)
	header := map[string]interface{}{
		"time_rfc3339": time.Now().Format(time.RFC3339),
		"level":        l.levels[lvl],
		"short_file":   path.Base(file),
		"long_file":    file,
		"line":         strconv.Itoa(line),
	}

	if err := l.template.Execute(buf, header); err != nil {
		return
	}

	fields := make(map[string]interface{})
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		// A custom LoggerFormat that doesn't render valid JSON still
		// gets its line out, with the payload appended as text.
		fmt.Fprintln(l.Output, buf.String(), renderMessage(format, args))
		return
	}

	switch format {
	case "json":
		if m, ok := args[0].(map[string]interface{}); ok {
			for k, v := range m {
				fields[k] = v
			}
		}
	default:
		fields["message"] = renderMessage(format, args)
	}

	buf.Reset()
	enc := json.NewEncoder(buf)
	if err := enc.Encode(fields); err == nil {
		l.Output.Write(buf.Bytes())
	}
}

// renderMessage renders the plain/formatted message body shared by every
// level, including the Fatal path that bypasses structured field merging.
func renderMessage(format string, args []interface{}) string {
	if format == "" {
		return fmt.Sprint(args...)
	}
	if format == "json" {
		b, _ := json.Marshal(args[0])
		return string(b)
	}
	return fmt.Sprintf(format, args...)
}

const defaultLogFormat = `{"time":"{{.time_rfc3339}}",` +
	`"level":"{{.level}}","file":"{{.short_file}}","line":"{{.line}}"}`

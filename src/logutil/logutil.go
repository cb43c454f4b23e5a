package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

const (
	logFileName  = "screen_overlay_debug.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
	maxPayload   = 512
)

// Setup enables file logging with basic size-based rotation (10MB, max 3 files)
// inside dir. When disabled, logs are discarded.
func Setup(enableFileLogging bool, dir string) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if !enableFileLogging {
		log.SetOutput(io.Discard)
		return
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log dir: %v\n", err)
		return
	}
	w := &rotatingWriter{base: filepath.Join(dir, logFileName)}
	w.rotateIfNeeded()
	f, err := os.OpenFile(w.base, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return
	}
	w.f = f
	log.SetOutput(w)
}

type rotatingWriter struct {
	base string
	f    *os.File
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		w.rotate()
		nf, err := os.OpenFile(w.base, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func (w *rotatingWriter) rotateIfNeeded() {
	if st, err := os.Stat(w.base); err == nil && st.Size() > maxSizeBytes {
		w.rotate()
	}
}

// rotate shifts base -> .1 -> .2 -> .3, dropping the oldest.
func (w *rotatingWriter) rotate() {
	_ = os.Remove(w.archiveName(maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(w.archiveName(i), w.archiveName(i+1))
	}
	_ = os.Rename(w.base, w.archiveName(1))
}

func (w *rotatingWriter) archiveName(n int) string { return fmt.Sprintf("%s.%d", w.base, n) }

// RedactKey masks an API key, leaving first/last 4 chars: xxxx...yyyy
func RedactKey(k string) string {
	if len(k) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", k[:4], k[len(k)-4:])
}

// TruncateForLog caps upstream payloads so a large error page does not flood the log.
func TruncateForLog(s string) string {
	if len(s) <= maxPayload {
		return s
	}
	return fmt.Sprintf("%s... (%d bytes truncated)", s[:maxPayload], len(s)-maxPayload)
}

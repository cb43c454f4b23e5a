// Package clipboard copies assistant answers to the system clipboard.
package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
	writeMu  sync.Mutex

	// backend is swapped in tests; the system clipboard needs a display.
	backend writer = systemClipboard{}
)

type writer interface {
	init() error
	write(text string)
}

type systemClipboard struct{}

func (systemClipboard) init() error { return clipboard.Init() }

func (systemClipboard) write(text string) { clipboard.Write(clipboard.FmtText, []byte(text)) }

// Init prepares the clipboard once. Later calls return the first result.
func Init() error {
	initOnce.Do(func() {
		initErr = backend.init()
	})
	return initErr
}

// Write copies text as plain text. Writes are serialized.
func Write(text string) error {
	if err := Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	backend.write(text)
	return nil
}

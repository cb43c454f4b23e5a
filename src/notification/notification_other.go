//go:build !windows

package notification

// Elsewhere the overlay is started from a terminal, so the log line is enough.
func showMessageBox(title, message string) error { return nil }

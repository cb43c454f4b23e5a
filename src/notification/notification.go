// Package notification reports fatal startup problems. A windowed build has no
// console, so a message box is the only way the user learns why nothing started.
package notification

import (
	"log"
	"strings"
)

const maxMessageLen = 1000

// display is the platform dialog; replaced in tests.
var display = showMessageBox

// ShowBlockingError logs the error and shows it in a modal dialog where one is
// available. It returns once the dialog is dismissed.
func ShowBlockingError(title, message string) {
	message = strings.TrimSpace(message)
	if len(message) > maxMessageLen {
		message = message[:maxMessageLen] + "..."
	}
	log.Printf("%s: %s", title, message)
	if err := display(title, message); err != nil {
		log.Printf("Notification: dialog failed: %v", err)
	}
}

package host

import (
	"context"
	"fmt"
	"log"

	"screen-overlay-llm/src/messages"
)

// Run serves the host inbox until ctx is done or the inbox closes. Window
// commands are applied in arrival order; requests run on their own goroutine so
// a slow upstream call never holds up a drag.
func (h *Host) Run(ctx context.Context, inbox <-chan messages.MessageEnvelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-inbox:
			if !ok {
				return
			}
			h.handle(ctx, env)
		}
	}
}

func (h *Host) handle(ctx context.Context, env messages.MessageEnvelope) {
	switch m := env.Message.(type) {
	case messages.ToggleWindow:
		h.ToggleWindow()
	case messages.SetIgnoreMouseEvents:
		h.SetIgnoreMouseEvents(m.Ignore)
	case messages.ToggleClickThrough:
		h.ToggleClickThrough(m.Enabled)
	case messages.DragIcon:
		h.DragIcon(m.DeltaX, m.DeltaY)
	case messages.DragIconEnd:
		h.DragIconEnd()
	case messages.QuitApp:
		h.Quit()
	case messages.CaptureScreenshot:
		go func() {
			img, err := h.CaptureScreenshot(ctx)
			if err != nil {
				log.Printf("Host: capture failed: %v", err)
				env.Respond(nil, err)
				return
			}
			env.Respond(messages.ScreenshotCaptured{Image: img}, nil)
		}()
	case messages.AnalyzeScreenshot:
		go func() {
			text, err := h.ai.DescribeImage(ctx, m.Image, m.Query)
			if err != nil {
				env.Respond(nil, err)
				return
			}
			env.Respond(messages.AssistantReply{Text: text}, nil)
		}()
	case messages.Chat:
		go func() {
			text, err := h.ai.Chat(ctx, m.Message)
			if err != nil {
				env.Respond(nil, err)
				return
			}
			env.Respond(messages.AssistantReply{Text: text}, nil)
		}()
	default:
		log.Printf("Host: ignoring unsupported message %s from %s", env.Message.Type(), env.From)
		env.Respond(nil, fmt.Errorf("unsupported message %s", env.Message.Type()))
	}
}

package controller

import (
	"context"
	"fmt"
	"log"

	"screen-overlay-llm/src/messages"
	"screen-overlay-llm/src/transcript"
)

// Capture grabs the screen. With auto-analyze on, an analysis follows after
// AutoAnalyzeDelay.
func (c *Controller) Capture() {
	c.post(func() {
		if c.processing {
			log.Printf("Controller: capture dropped, request in flight")
			return
		}
		c.run("capture", messages.CaptureScreenshot{}, c.captureDone)
	})
}

// Submit sends the query box contents: an analysis when a screenshot is held,
// a chat message otherwise.
func (c *Controller) Submit(query string) {
	c.post(func() {
		if c.processing {
			log.Printf("Controller: submit dropped, request in flight")
			return
		}
		q := trimmed(query)
		if q == "" && c.screenshot == nil {
			return
		}
		if q != "" {
			c.appendEntry(transcript.RoleUser, q)
		}
		c.view.ClearInput()

		if c.screenshot != nil {
			prompt := q
			if prompt == "" {
				prompt = c.opts.DescribePrompt
			}
			c.run("analyze", messages.AnalyzeScreenshot{Image: c.screenshot, Query: prompt}, c.replyDone)
			return
		}
		c.run("chat", messages.Chat{Message: q}, c.replyDone)
	})
}

// ToggleAutoAnalyze flips automatic analysis after capture.
func (c *Controller) ToggleAutoAnalyze() {
	c.post(func() {
		c.autoAnalyze = !c.autoAnalyze
		c.view.SetAutoAnalyze(c.autoAnalyze)
		if c.autoAnalyze {
			c.notice("✅", "Auto-analyze enabled! Screenshots will be automatically described.")
		} else {
			c.notice("⏸️", "Auto-analyze disabled. You can ask custom questions.")
		}
	})
}

// ClearScreenshot drops the held screenshot; later submits go to chat.
func (c *Controller) ClearScreenshot() {
	c.post(func() {
		c.screenshot = nil
		c.view.ShowPreview(nil)
		c.view.ClearInput()
		c.view.SetInputEnabled(c.inputEnabled())
	})
}

// CopyLastAnswer puts the latest assistant reply on the clipboard.
func (c *Controller) CopyLastAnswer() {
	c.post(func() {
		if c.opts.Clipboard == nil || c.lastAnswer == "" {
			return
		}
		if err := c.opts.Clipboard(c.lastAnswer); err != nil {
			log.Printf("Controller: clipboard write failed: %v", err)
			c.notice("❌", "Error: could not copy to clipboard: "+err.Error())
		}
	})
}

// analyzeAuto runs on the controller goroutine after a capture.
func (c *Controller) analyzeAuto() {
	if c.processing || c.screenshot == nil {
		return
	}
	c.run("auto-analyze", messages.AnalyzeScreenshot{Image: c.screenshot, Query: c.opts.AnalysisPrompt}, c.replyDone)
}

// run starts the single in-flight request. Caller has checked c.processing.
func (c *Controller) run(name string, msg messages.Message, done func(messages.Message, error)) {
	c.setProcessing(true)
	ctx := c.ctx
	task := func(ctx context.Context) (messages.Message, error) {
		return c.bus.Invoke(ctx, msg)
	}
	ok := c.pool.Submit(ctx, name, task, func(reply messages.Message, err error) {
		c.post(func() { done(reply, err) })
	})
	if !ok {
		log.Printf("Controller: %s dropped, worker busy", name)
		c.setProcessing(false)
	}
}

func (c *Controller) captureDone(reply messages.Message, err error) {
	c.setProcessing(false)
	if err != nil {
		log.Printf("Controller: capture failed: %v", err)
		c.notice("❌", "Failed to capture screenshot: "+describeError(err))
		return
	}
	shot, ok := reply.(messages.ScreenshotCaptured)
	if !ok || len(shot.Image) == 0 {
		c.notice("❌", "Failed to capture screenshot")
		return
	}

	c.screenshot = shot.Image
	if c.opts.ShowPreview {
		c.view.ShowPreview(shot.Image)
	}
	c.view.SetInputEnabled(true)
	c.notice("📸", "Screenshot captured!")

	if c.autoAnalyze {
		c.after(c.opts.AutoAnalyzeDelay, c.analyzeAuto)
		return
	}
	c.view.FocusInput()
}

func (c *Controller) replyDone(reply messages.Message, err error) {
	c.setProcessing(false)
	defer func() {
		if c.screenshot != nil {
			c.view.FocusInput()
		}
	}()

	if err != nil {
		log.Printf("Controller: request failed: %v", err)
		c.notice("❌", errorText(err))
		return
	}
	answer, ok := reply.(messages.AssistantReply)
	if !ok || trimmed(answer.Text) == "" {
		c.notice("❌", "No response from AI. Please try again.")
		return
	}
	c.lastAnswer = answer.Text
	c.appendEntry(transcript.RoleAssistant, answer.Text)
}

func errorText(err error) string {
	return fmt.Sprintf("Error: %s", describeError(err))
}

package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"

	"screen-overlay-llm/src/logutil"
)

const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultVisionModel = "meta-llama/llama-4-scout-17b-16e-instruct"
	DefaultTextModel   = "llama-3.1-8b-instant"
	DefaultTimeout     = 30 * time.Second

	// DefaultDescribePrompt is used when DescribeImage gets an empty query.
	DefaultDescribePrompt = "What do you see in this screenshot? Describe it in detail."

	temperature     = 0.7
	visionMaxTokens = 1024
	textMaxTokens   = 512
)

type Config struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	TextModel   string
	Timeout     time.Duration
	// HTTPClient overrides the default client. Its own Timeout is replaced by Timeout.
	HTTPClient *http.Client
}

// Client talks to an OpenAI-compatible chat-completion endpoint.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	visionModel string
	textModel   string
}

func New(cfg Config) *Client {
	c := &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		visionModel: cfg.VisionModel,
		textModel:   cfg.TextModel,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.visionModel == "" {
		c.visionModel = DefaultVisionModel
	}
	if c.textModel == "" {
		c.textModel = DefaultTextModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		copied := *cfg.HTTPClient
		hc = &copied
	}
	hc.Timeout = timeout
	c.httpClient = hc
	log.Printf("LLM client: base=%s vision=%s text=%s key=%s timeout=%s",
		c.baseURL, c.visionModel, c.textModel, logutil.RedactKey(c.apiKey), timeout)
	return c
}

// DescribeImage asks the vision model about a PNG image. An empty query falls
// back to DefaultDescribePrompt.
func (c *Client) DescribeImage(ctx context.Context, image []byte, query string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("describe image: empty image: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(query) == "" {
		query = DefaultDescribePrompt
	}

	content := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(query),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: DataURI(image),
		}),
	}
	return c.complete(ctx, c.visionModel, openai.UserMessage(content), visionMaxTokens)
}

// Chat sends a plain text message to the text model.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("chat: empty message: %w", ErrInvalidInput)
	}
	return c.complete(ctx, c.textModel, openai.UserMessage(message), textMaxTokens)
}

// DataURI encodes PNG bytes for an image_url content part.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

func (c *Client) complete(ctx context.Context, model string, msg openai.ChatCompletionMessageParamUnion, maxTokens int) (string, error) {
	reqBody := map[string]interface{}{
		"model":       model,
		"messages":    []openai.ChatCompletionMessageParamUnion{msg},
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			log.Printf("LLM: %s request timed out after %s: %v", model, time.Since(start), err)
			return "", fmt.Errorf("%s: %w", model, ErrTimeout)
		}
		log.Printf("LLM: %s transport failure: %v", model, err)
		return "", &UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			log.Printf("LLM: %s response read timed out: %v", model, err)
			return "", fmt.Errorf("%s: %w", model, ErrTimeout)
		}
		log.Printf("LLM: %s failed reading response: %v", model, err)
		return "", &UpstreamError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("LLM: %s returned status %d: %s", model, resp.StatusCode, logutil.TruncateForLog(string(body)))
		return "", statusError(resp.StatusCode, body)
	}

	text := gjson.GetBytes(body, "choices.0.message.content")
	if !text.Exists() || text.Type != gjson.String || text.String() == "" {
		log.Printf("LLM: %s returned no message content: %s", model, logutil.TruncateForLog(string(body)))
		return "", fmt.Errorf("%s: no choices[0].message.content: %w", model, ErrMalformedResponse)
	}

	log.Printf("LLM: %s answered in %s (%d chars)", model, time.Since(start), len(text.String()))
	return text.String(), nil
}

func statusError(status int, body []byte) error {
	msg := gjson.GetBytes(body, "error.message").String()
	switch status {
	case http.StatusUnauthorized:
		if msg != "" {
			return fmt.Errorf("%s: %w", msg, ErrInvalidCredential)
		}
		return ErrInvalidCredential
	case http.StatusTooManyRequests:
		if msg != "" {
			return fmt.Errorf("%s: %w", msg, ErrRateLimited)
		}
		return ErrRateLimited
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &UpstreamError{StatusCode: status, Message: msg}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// overlay-ask sends one screenshot or question to the inference service and
// prints the answer. It shares configuration with the overlay.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-overlay-llm/src/config"
	"screen-overlay-llm/src/llm"
	"screen-overlay-llm/src/runtimeinit"
	"screen-overlay-llm/src/screenshot"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	filePath   string
	capture    bool
	query      string
	jsonOutput bool
	verbose    bool
	apiKeyPath string
}

// streams lets tests swap the process stdio.
type streams struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// captureScreen is replaced in tests; real capture needs a display.
var captureScreen = func(ctx context.Context) ([]byte, error) {
	return screenshot.New().Capture(ctx)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args), streams{os.Stdin, os.Stdout, os.Stderr})
}

func runWithArgs(args []string, s streams) error {
	if len(args) == 0 {
		args = []string{"overlay-ask"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts, s)
	cmd.SetArgs(args[1:])
	cmd.SetOut(s.stdout)
	cmd.SetErr(s.stderr)
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions, s streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "overlay-ask",
		Short:         "Ask the overlay's model about a PNG, the screen, or plain text",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, s)
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.capture, "capture", false, "Capture the primary display instead of reading a file")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Question to ask (defaults to a description request for images)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.MarkFlagsMutuallyExclusive("file", "capture")

	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, s streams) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.filePath == "" && !opts.capture && strings.TrimSpace(opts.query) == "" {
		return errors.New("nothing to ask: pass --file, --capture or --query")
	}

	verbosef := func(format string, args ...any) {
		if opts.verbose {
			fmt.Fprintf(s.stderr, "[verbose] "+format+"\n", args...)
		}
	}

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{APIKeyPathOverride: opts.apiKeyPath},
		SetupLogging: func(bool, string) {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			if opts.verbose {
				log.SetOutput(s.stderr)
			} else {
				log.SetOutput(io.Discard)
			}
		},
	})
	if err != nil {
		return err
	}
	defer rt.Close()
	verbosef("Effective API key path: %s", rt.Config.APIKeyPath)

	image, source, err := loadImage(ctx, opts, s.stdin)
	if err != nil {
		return err
	}

	start := time.Now()
	var (
		answer string
		model  string
	)
	if image != nil {
		verbosef("Read %d bytes from %s", len(image), source)
		query := strings.TrimSpace(opts.query)
		if query == "" {
			query = llm.DefaultDescribePrompt
		}
		model = rt.Config.VisionModel
		answer, err = rt.LLM.DescribeImage(ctx, image, query)
	} else {
		source = "text"
		model = rt.Config.TextModel
		answer, err = rt.LLM.Chat(ctx, opts.query)
	}
	elapsed := time.Since(start)
	if err != nil {
		verbosef("Request failed after %v: %v", elapsed, err)
		return fmt.Errorf("request failed: %w", err)
	}
	verbosef("Answer received in %v (%d chars)", elapsed, len(answer))

	return outputResult(s.stdout, Result{
		Answer:    answer,
		Source:    source,
		Model:     model,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
		CharCount: len(answer),
	}, opts.jsonOutput)
}

// loadImage returns nil bytes when the request is text only.
func loadImage(ctx context.Context, opts cliOptions, stdin io.Reader) ([]byte, string, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case opts.capture:
		data, err = captureScreen(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to capture screen: %w", err)
		}
		return data, "screen", nil
	case opts.filePath == "-":
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, "", fmt.Errorf("failed to read from stdin: %w", err)
		}
	case opts.filePath != "":
		data, err = os.ReadFile(opts.filePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read file %s: %w", opts.filePath, err)
		}
	default:
		return nil, "", nil
	}

	if len(data) > maxFileSize {
		return nil, "", fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if err := validatePNG(data); err != nil {
		return nil, "", err
	}
	return data, opts.filePath, nil
}

func validatePNG(data []byte) error {
	if len(data) == 0 {
		return errors.New("input file is empty")
	}
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return errors.New("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

// normalizeLegacyArgs accepts single-dash long flags (-file, -json=true).
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	long := []string{"file", "capture", "query", "json", "verbose", "api-key-path"}

	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range long {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}
	return normalized
}

type Result struct {
	Answer    string  `json:"answer"`
	Source    string  `json:"source"`
	Model     string  `json:"model"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

func outputResult(w io.Writer, result Result, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprint(w, result.Answer)
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

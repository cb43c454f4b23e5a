package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/groq"
	APIKeyPathEnvVar  = "GROQ_API_KEY_FILE"
	APIKeyEnvVar      = "GROQ_API_KEY"
	AltEnvFileEnvVar  = "SCREEN_OVERLAY_LLM"

	DefaultBaseURL      = "https://api.groq.com/openai/v1"
	DefaultVisionModel  = "meta-llama/llama-4-scout-17b-16e-instruct"
	DefaultTextModel    = "llama-3.1-8b-instant"
	DefaultRescueHotkey = "Alt+S"
)

type LoadOptions struct {
	APIKeyPathOverride string
	DataDirOverride    string
}

type Config struct {
	APIKey            string
	APIKeyPath        string
	BaseURL           string
	VisionModel       string
	TextModel         string
	RequestTimeoutSec int
	EnableFileLogging bool
	RescueHotkey      string
	AutoAnalyze       bool
	ShowPreview       bool
	KeepInputEnabled  bool
	Emoji             bool
	DataDir           string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use SCREEN_OVERLAY_LLM env var as a path to a config file
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	timeoutSec := 30
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeoutSec = n
		}
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	cfg := &Config{
		APIKey:            resolveAPIKey(apiKeyPath),
		APIKeyPath:        apiKeyPath,
		BaseURL:           strings.TrimRight(getEnvWithDefault("API_BASE_URL", DefaultBaseURL), "/"),
		VisionModel:       getEnvWithDefault("VISION_MODEL", DefaultVisionModel),
		TextModel:         getEnvWithDefault("TEXT_MODEL", DefaultTextModel),
		RequestTimeoutSec: timeoutSec,
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		RescueHotkey:      getEnvWithDefault("RESCUE_HOTKEY", DefaultRescueHotkey),
		AutoAnalyze:       getBoolWithDefault("AUTO_ANALYZE", true),
		ShowPreview:       getBoolWithDefault("SHOW_PREVIEW", true),
		KeepInputEnabled:  getBoolWithDefault("KEEP_INPUT_ENABLED", false),
		Emoji:             getBoolWithDefault("EMOJI", true),
		DataDir:           resolveDataDir(opts),
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(AltEnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return strings.TrimSpace(os.Getenv(APIKeyEnvVar))
}

// resolveDataDir picks where the settings database lives. Falls back to the
// user config dir, then the working directory.
func resolveDataDir(opts LoadOptions) string {
	if dir := strings.TrimSpace(opts.DataDirOverride); dir != "" {
		return dir
	}
	if dir := strings.TrimSpace(os.Getenv("DATA_DIR")); dir != "" {
		return dir
	}
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "screen-overlay-llm")
	}
	return "."
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

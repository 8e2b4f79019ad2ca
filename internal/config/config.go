// Package config loads runtime settings from flags and the
// environment. A .env file is honored when present so local runs need
// no exported variables.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env string

	// LLM selects the completion backend: "gemini" or "groq".
	LLM         string
	GeminiModel string
	GroqModel   string
	GroqAPIKey  string

	// DatabaseURL switches persistence to Postgres when non-empty.
	// Otherwise StateFile gives the in-memory store a JSON snapshot.
	DatabaseURL string
	StateFile   string
	CacheSize   int

	// NodeID distinguishes id generators across replicas.
	NodeID int64

	// PromptsFile optionally overrides the guided step prompts (YAML).
	PromptsFile string

	Docs DocsConfig
}

// DocsConfig selects where uploaded documents are read from: a local
// directory, or an S3-compatible bucket when the endpoint is set.
type DocsConfig struct {
	Dir       string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	llm := flag.String("llm", "", "completion backend: gemini or groq")
	stateFile := flag.String("state", "", "path to the JSON state snapshot")
	prompts := flag.String("prompts", "", "YAML file overriding guided step prompts")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	cfg := &Config{
		Env:         env,
		LLM:         firstNonEmpty(*llm, strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "gemini"),
		GeminiModel: strings.TrimSpace(os.Getenv("GEMINI_MODEL")),
		GroqModel:   strings.TrimSpace(os.Getenv("GROQ_MODEL")),
		GroqAPIKey:  strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StateFile:   firstNonEmpty(*stateFile, strings.TrimSpace(os.Getenv("STATE_FILE")), "data/state.json"),
		CacheSize:   intEnv("CACHE_SIZE", 1024),
		NodeID:      int64(intEnv("NODE_ID", 1)),
		PromptsFile: firstNonEmpty(*prompts, strings.TrimSpace(os.Getenv("PROMPTS_FILE"))),
		Docs:        loadDocsConfig(env),
	}
	return cfg, nil
}

func loadDocsConfig(env string) DocsConfig {
	return DocsConfig{
		Dir:       firstNonEmpty(strings.TrimSpace(os.Getenv("DOCS_DIR")), "data/uploads"),
		Endpoint:  resolveDocsEndpoint(env),
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("DOCS_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("DOCS_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("DOCS_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("DOCS_S3_BUCKET")), "groundwork-uploads"),
		UseSSL:    resolveDocsUseSSL(env),
	}
}

func resolveDocsEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("DOCS_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("DOCS_S3_ENDPOINT"))
}

func resolveDocsUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("DOCS_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func intEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

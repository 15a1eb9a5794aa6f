package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/BTreeMap/HerSpace/internal/api"
	"github.com/BTreeMap/HerSpace/internal/flow"
	"github.com/BTreeMap/HerSpace/internal/genai"
	"github.com/BTreeMap/HerSpace/internal/lockfile"
	"github.com/BTreeMap/HerSpace/internal/places"
	"github.com/BTreeMap/HerSpace/internal/store"
	"github.com/BTreeMap/HerSpace/internal/util"
	"github.com/BTreeMap/HerSpace/internal/videos"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for HerSpace state data
	DefaultStateDir = "/var/lib/herspace"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "herspace.db"
	// MemoryDSN selects the in-memory session store
	MemoryDSN = "memory"
)

func main() {
	config := loadEnvironmentConfig()
	initializeLogger(config.Debug)

	flags, err := parseCommandLineFlags(flag.CommandLine, os.Args[1:], config)
	if err != nil {
		slog.Error("Failed to parse flags", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping HerSpace")
	if err := run(ctx, flags); err != nil {
		slog.Error("HerSpace failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("HerSpace exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir           string
	DBDSN              string
	RedisAddr          string
	RedisPassword      string
	SessionTTL         time.Duration
	APIAddr            string
	LLMProvider        string
	LLMModel           string
	GeminiKey          string
	OpenAIKey          string
	CredentialSentinel string
	GoogleAPIKey       string
	ExternalTimeout    time.Duration
	Debug              bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir           *string
	dbDSN              *string
	redisAddr          *string
	redisPassword      string
	sessionTTL         *time.Duration
	apiAddr            *string
	llmProvider        *string
	llmModel           *string
	geminiKey          *string
	openaiKey          *string
	credentialSentinel *string
	googleAPIKey       *string
	externalTimeout    *time.Duration
	debug              *bool
}

// initializeLogger sets up structured logging; debug enables the debug level
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:           os.Getenv("HERSPACE_STATE_DIR"),
		DBDSN:              util.FirstEnv("HERSPACE_DB_DSN", "DATABASE_URL"),
		RedisAddr:          os.Getenv("HERSPACE_REDIS_ADDR"),
		RedisPassword:      os.Getenv("HERSPACE_REDIS_PASSWORD"),
		SessionTTL:         util.ParseDurationEnv("HERSPACE_SESSION_TTL", store.DefaultSessionTTL),
		APIAddr:            os.Getenv("API_ADDR"),
		LLMProvider:        os.Getenv("HERSPACE_LLM_PROVIDER"),
		LLMModel:           os.Getenv("HERSPACE_LLM_MODEL"),
		GeminiKey:          os.Getenv("GEMINI_API_KEY"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		CredentialSentinel: os.Getenv("HERSPACE_CREDENTIAL_SENTINEL"),
		GoogleAPIKey:       os.Getenv("GOOGLE_API_KEY"),
		ExternalTimeout:    util.ParseDurationEnv("HERSPACE_EXTERNAL_TIMEOUT", api.DefaultExternalTimeout),
		Debug:              util.ParseBoolEnv("HERSPACE_DEBUG", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No HERSPACE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.DBDSN == "" {
		config.DBDSN = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DBDSN)
	}

	slog.Debug("environment variables loaded",
		"HERSPACE_STATE_DIR", config.StateDir,
		"DB_DSN_SET", config.DBDSN != "",
		"HERSPACE_REDIS_ADDR_SET", config.RedisAddr != "",
		"HERSPACE_SESSION_TTL", config.SessionTTL,
		"API_ADDR", config.APIAddr,
		"HERSPACE_LLM_PROVIDER", config.LLMProvider,
		"GEMINI_API_KEY_SET", config.GeminiKey != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"HERSPACE_CREDENTIAL_SENTINEL_SET", config.CredentialSentinel != "",
		"GOOGLE_API_KEY_SET", config.GoogleAPIKey != "",
		"HERSPACE_EXTERNAL_TIMEOUT", config.ExternalTimeout,
		"HERSPACE_DEBUG", config.Debug)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(fs *flag.FlagSet, args []string, config Config) (Flags, error) {
	flags := Flags{
		stateDir:           fs.String("state-dir", config.StateDir, "state directory for HerSpace data (overrides $HERSPACE_STATE_DIR)"),
		dbDSN:              fs.String("db-dsn", config.DBDSN, "session store DSN: SQLite path, Postgres URL or \"memory\" (overrides $HERSPACE_DB_DSN or $DATABASE_URL)"),
		redisAddr:          fs.String("redis-addr", config.RedisAddr, "Redis host:port; takes precedence over db-dsn (overrides $HERSPACE_REDIS_ADDR)"),
		redisPassword:      config.RedisPassword,
		sessionTTL:         fs.Duration("session-ttl", config.SessionTTL, "how long idle sessions are kept, 0 keeps them forever (overrides $HERSPACE_SESSION_TTL)"),
		apiAddr:            fs.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		llmProvider:        fs.String("llm-provider", config.LLMProvider, "completion provider: gemini or openai (overrides $HERSPACE_LLM_PROVIDER)"),
		llmModel:           fs.String("llm-model", config.LLMModel, "completion model name (overrides $HERSPACE_LLM_MODEL)"),
		geminiKey:          fs.String("gemini-api-key", config.GeminiKey, "server-held Gemini API key (overrides $GEMINI_API_KEY)"),
		openaiKey:          fs.String("openai-api-key", config.OpenAIKey, "server-held OpenAI API key (overrides $OPENAI_API_KEY)"),
		credentialSentinel: fs.String("credential-sentinel", config.CredentialSentinel, "value users may enter to use the server-held key (overrides $HERSPACE_CREDENTIAL_SENTINEL)"),
		googleAPIKey:       fs.String("google-api-key", config.GoogleAPIKey, "Google API key for YouTube and Maps (overrides $GOOGLE_API_KEY)"),
		externalTimeout:    fs.Duration("external-timeout", config.ExternalTimeout, "timeout for calls to external services (overrides $HERSPACE_EXTERNAL_TIMEOUT)"),
		debug:              fs.Bool("debug", config.Debug, "enable debug logging and request dumps (overrides $HERSPACE_DEBUG)"),
	}

	if err := fs.Parse(args); err != nil {
		return flags, err
	}

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"redisAddr_set", *flags.redisAddr != "",
		"sessionTTL", *flags.sessionTTL,
		"apiAddr", *flags.apiAddr,
		"llmProvider", *flags.llmProvider,
		"geminiKeySet", *flags.geminiKey != "",
		"openaiKeySet", *flags.openaiKey != "",
		"googleKeySet", *flags.googleAPIKey != "",
		"externalTimeout", *flags.externalTimeout)

	// Follow a state-dir override when the DSN is still the default SQLite path.
	if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags, nil
}

// storeKind names the session store backend the flags select.
func storeKind(flags Flags) string {
	switch {
	case *flags.redisAddr != "":
		return "redis"
	case *flags.dbDSN == MemoryDSN:
		return "memory"
	default:
		return store.DetectDSNType(*flags.dbDSN)
	}
}

// buildStore opens the configured session store. A file-backed SQLite store also takes
// the state directory lock, returned so the caller can release it.
func buildStore(flags Flags) (store.Store, *lockfile.Lock, error) {
	ttl := store.WithTTL(*flags.sessionTTL)
	switch kind := storeKind(flags); kind {
	case "redis":
		slog.Debug("Configuring Redis session store")
		st, err := store.NewRedisStore(store.WithRedisAddr(*flags.redisAddr), store.WithRedisAuth(flags.redisPassword, 0), ttl)
		return st, nil, err
	case "memory":
		slog.Debug("Configuring in-memory session store")
		return store.NewInMemoryStore(ttl), nil, nil
	case "postgres":
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		st, err := store.NewPostgresStore(store.WithPostgresDSN(*flags.dbDSN), ttl)
		return st, nil, err
	default:
		dir := filepath.Dir(*flags.dbDSN)
		lock, err := lockfile.AcquireLock(dir)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", *flags.dbDSN)
		st, err := store.NewSQLiteStore(store.WithSQLiteDSN(*flags.dbDSN), ttl)
		if err != nil {
			lock.Release()
			return nil, nil, err
		}
		return st, lock, nil
	}
}

// defaultCredential returns the server-held key for the configured provider.
func defaultCredential(flags Flags) (genai.Provider, string, error) {
	provider, err := genai.ParseProvider(*flags.llmProvider)
	if err != nil {
		return "", "", err
	}
	if provider == genai.ProviderOpenAI {
		return provider, *flags.openaiKey, nil
	}
	return provider, *flags.geminiKey, nil
}

// buildGenAIOptions constructs completion client options
func buildGenAIOptions(flags Flags) ([]genai.Option, error) {
	provider, _, err := defaultCredential(flags)
	if err != nil {
		return nil, err
	}
	opts := []genai.Option{
		genai.WithProvider(provider),
		genai.WithTimeout(*flags.externalTimeout),
	}
	if *flags.llmModel != "" {
		opts = append(opts, genai.WithModel(*flags.llmModel))
	}
	if *flags.debug {
		opts = append(opts, genai.WithDebugMode(true), genai.WithStateDir(*flags.stateDir))
	}
	return opts, nil
}

// buildWizardOptions constructs wizard options
func buildWizardOptions(flags Flags) []flow.WizardOption {
	var opts []flow.WizardOption
	_, key, err := defaultCredential(flags)
	if err == nil && *flags.credentialSentinel != "" {
		if key == "" {
			slog.Warn("Credential sentinel set but no server-held key configured; sentinel disabled")
		} else {
			opts = append(opts, flow.WithCredentialSentinel(*flags.credentialSentinel, key))
		}
	}
	return opts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	apiOpts := []api.Option{
		api.WithExternalTimeout(*flags.externalTimeout),
		api.WithSessionTTL(*flags.sessionTTL),
	}
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}

// buildVideoSearcher returns nil when no Google key is configured.
func buildVideoSearcher(ctx context.Context, flags Flags) flow.VideoSearcher {
	vc, err := videos.NewClient(ctx, *flags.googleAPIKey, videos.WithTimeout(*flags.externalTimeout))
	if err != nil {
		if !errors.Is(err, videos.ErrNoAPIKey) {
			slog.Warn("Video search disabled", "error", err)
		}
		return nil
	}
	return vc
}

// buildTherapistFinder returns nil when no Google key is configured.
func buildTherapistFinder(flags Flags) api.TherapistFinder {
	pc, err := places.NewClient(*flags.googleAPIKey)
	if err != nil {
		if !errors.Is(err, places.ErrNoAPIKey) {
			slog.Warn("Therapist finder disabled", "error", err)
		}
		return nil
	}
	return pc
}

// run wires every module and serves until ctx is cancelled.
func run(ctx context.Context, flags Flags) error {
	st, lock, err := buildStore(flags)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Failed to close session store", "error", err)
		}
		if lock != nil {
			lock.Release()
		}
	}()

	genaiOpts, err := buildGenAIOptions(flags)
	if err != nil {
		return err
	}
	completer, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	wizard := flow.NewWizard(completer, buildVideoSearcher(ctx, flags), buildWizardOptions(flags)...)
	server := api.NewServer(wizard, st, buildTherapistFinder(flags), buildAPIOptions(flags)...)

	go store.NewPruner(st, *flags.sessionTTL, 0).Run(ctx)

	slog.Debug("Final configuration",
		"store", storeKind(flags),
		"provider", completer.Provider(),
		"model", completer.Model(),
		"api_addr", strings.TrimSpace(*flags.apiAddr))
	return server.Run(ctx)
}

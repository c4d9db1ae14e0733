// Command pronuncia serves the pronunciation scoring API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"google.golang.org/api/option"

	"github.com/MrWong99/pronuncia/internal/api"
	"github.com/MrWong99/pronuncia/internal/app"
	"github.com/MrWong99/pronuncia/internal/config"
	"github.com/MrWong99/pronuncia/internal/observe"
	"github.com/MrWong99/pronuncia/internal/resilience"
	"github.com/MrWong99/pronuncia/pkg/provider/llm"
	"github.com/MrWong99/pronuncia/pkg/provider/llm/anyllm"
	llmgemini "github.com/MrWong99/pronuncia/pkg/provider/llm/gemini"
	llmopenai "github.com/MrWong99/pronuncia/pkg/provider/llm/openai"
	"github.com/MrWong99/pronuncia/pkg/provider/stt"
	"github.com/MrWong99/pronuncia/pkg/provider/stt/gcpspeech"
	sttgemini "github.com/MrWong99/pronuncia/pkg/provider/stt/gemini"
	sttopenai "github.com/MrWong99/pronuncia/pkg/provider/stt/openai"
	"github.com/MrWong99/pronuncia/pkg/provider/stt/whisper"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "pronuncia: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "pronuncia: %v\n", err)
		}
		return 1
	}

	// The level is shared with the config watcher so reloads take effect
	// without rebuilding the handler.
	var level slog.LevelVar
	level.Set(slogLevel(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	slog.Info("pronuncia starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: api.Version})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				slog.Warn("provider close error", "err", err)
			}
		}
	}()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg, &closers)

	providers, err := app.BuildProviders(ctx, cfg, reg, resilience.GroupConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 5, ResetTimeout: 30 * time.Second},
	})
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	printStartupSummary(cfg, providers)

	application, err := app.New(ctx, cfg, providers, app.WithTelemetry(tel))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		_ = tel.Shutdown(context.Background())
		return 1
	}

	watcher, err := config.NewWatcher(*configPath, func(old, newCfg *config.Config, diff config.ConfigDiff) {
		if diff.LogLevelChanged {
			level.Set(slogLevel(diff.NewLogLevel))
			slog.Info("log level changed", "level", diff.NewLogLevel)
		}
		application.Reload(old, newCfg, diff)
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	code := 0
	if err := application.Run(ctx); err != nil {
		slog.Error("run error", "err", err)
		code = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		code = 1
	}
	slog.Info("goodbye")
	return code
}

// anyllmProviders are served through any-llm-go.
var anyllmProviders = []string{"anthropic", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"}

// registerBuiltinProviders wires every shipped backend into reg. Backends
// holding connections are appended to closers.
func registerBuiltinProviders(reg *config.Registry, closers *[]io.Closer) {
	track := func(v any) {
		if c, ok := v.(io.Closer); ok {
			*closers = append(*closers, c)
		}
	}

	// ── Chat ──────────────────────────────────────────────────────────────────

	reg.RegisterChat("openai", func(_ context.Context, e config.ProviderEntry) (llm.Provider, error) {
		var opts []llmopenai.Option
		if e.BaseURL != "" {
			opts = append(opts, llmopenai.WithBaseURL(e.BaseURL))
		}
		if org := e.Option("organization"); org != "" {
			opts = append(opts, llmopenai.WithOrganization(org))
		}
		return llmopenai.New(e.APIKey, e.Model, opts...)
	})

	reg.RegisterChat("gemini", func(ctx context.Context, e config.ProviderEntry) (llm.Provider, error) {
		p, err := llmgemini.New(ctx, e.APIKey, e.Model, clientOptions(e)...)
		if err != nil {
			return nil, err
		}
		track(p)
		return p, nil
	})

	for _, name := range anyllmProviders {
		reg.RegisterChat(name, func(_ context.Context, e config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if e.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(e.APIKey))
			}
			if e.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(e.BaseURL))
			}
			return anyllm.New(name, e.Model, opts...)
		})
	}

	// ── Transcription ─────────────────────────────────────────────────────────

	reg.RegisterTranscription("gemini", func(ctx context.Context, e config.ProviderEntry) (stt.Transcriber, error) {
		p, err := sttgemini.New(ctx, e.APIKey, e.Model, clientOptions(e)...)
		if err != nil {
			return nil, err
		}
		track(p)
		return p, nil
	})

	reg.RegisterTranscription("openai", func(_ context.Context, e config.ProviderEntry) (stt.Transcriber, error) {
		var opts []sttopenai.Option
		if lang := e.Option("language"); lang != "" {
			opts = append(opts, sttopenai.WithLanguage(lang))
		}
		var clientOpts []llmopenai.Option
		if e.BaseURL != "" {
			clientOpts = append(clientOpts, llmopenai.WithBaseURL(e.BaseURL))
		}
		return sttopenai.New(e.APIKey, e.Model, opts, clientOpts...)
	})

	reg.RegisterTranscription("whisper", func(_ context.Context, e config.ProviderEntry) (stt.Transcriber, error) {
		var opts []whisper.Option
		if e.Model != "" {
			opts = append(opts, whisper.WithModel(e.Model))
		}
		if lang := e.Option("language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(e.BaseURL, opts...)
	})

	reg.RegisterTranscription("whisper-native", func(_ context.Context, e config.ProviderEntry) (stt.Transcriber, error) {
		modelPath := e.Model
		if modelPath == "" {
			modelPath = e.Option("model_path")
		}
		var opts []whisper.NativeOption
		if lang := e.Option("language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		p, err := whisper.NewNative(modelPath, opts...)
		if err != nil {
			return nil, err
		}
		track(p)
		return p, nil
	})

	reg.RegisterTranscription("gcp-speech", func(ctx context.Context, e config.ProviderEntry) (stt.Transcriber, error) {
		var opts []gcpspeech.Option
		if lang := e.Option("language_code"); lang != "" {
			opts = append(opts, gcpspeech.WithLanguageCode(lang))
		}
		if e.Model != "" {
			opts = append(opts, gcpspeech.WithModel(e.Model))
		}
		clientOpts := clientOptions(e)
		if e.APIKey != "" {
			clientOpts = append(clientOpts, option.WithAPIKey(e.APIKey))
		}
		p, err := gcpspeech.New(ctx, clientOpts, opts...)
		if err != nil {
			return nil, err
		}
		track(p)
		return p, nil
	})

	slog.Debug("registered providers", "chat", reg.ChatNames(), "transcription", reg.TranscriptionNames())
}

// clientOptions maps an entry to Google API client options. The API key is
// left to the caller.
func clientOptions(e config.ProviderEntry) []option.ClientOption {
	var opts []option.ClientOption
	if e.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(e.BaseURL))
	}
	if f := e.Option("credentials_file"); f != "" {
		opts = append(opts, option.WithCredentialsFile(f))
	}
	return opts
}

func printStartupSummary(cfg *config.Config, ps *app.Providers) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        pronuncia startup summary      ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	fmt.Printf("║  Chat            : %-19d ║\n", len(ps.Chat))
	fmt.Printf("║  Transcription   : %-19d ║\n", len(ps.Transcription))
	printValue("Scoring", cfg.Scoring.DefaultProvider)
	printValue("Default STT", cfg.Providers.DefaultTranscription)
	printValue("Attempt store", storeKind(cfg))
	printValue("Score cache", orDisabled(cfg.Cache.RedisAddr))
	printValue("Listen addr", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printValue(label, value string) {
	fmt.Printf("║  %-16s: %-19s ║\n", label, truncate(value, 19))
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func storeKind(cfg *config.Config) string {
	if cfg.Store.PostgresDSN != "" {
		return "postgres"
	}
	return "memory"
}

func orDisabled(s string) string {
	if s == "" {
		return "(disabled)"
	}
	return s
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

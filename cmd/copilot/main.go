// Command copilot runs the personal research copilot backend.
//
// Usage:
//
//	copilot serve --config config.yaml
//	copilot serve
//	copilot version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/research-copilot/copilot/pkg/agent"
	"github.com/research-copilot/copilot/pkg/auth"
	"github.com/research-copilot/copilot/pkg/config"
	"github.com/research-copilot/copilot/pkg/credentials"
	"github.com/research-copilot/copilot/pkg/httpclient"
	"github.com/research-copilot/copilot/pkg/llms"
	"github.com/research-copilot/copilot/pkg/logger"
	"github.com/research-copilot/copilot/pkg/observability"
	"github.com/research-copilot/copilot/pkg/server"
	"github.com/research-copilot/copilot/pkg/session"
	"github.com/research-copilot/copilot/pkg/speech"
	"github.com/research-copilot/copilot/pkg/tools"
	"github.com/research-copilot/copilot/pkg/uploads"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the copilot server."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("copilot version %s\n", version)
	return nil
}

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Host string `help:"Host to bind."`
	Port int    `help:"Port to listen on."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	deps, cleanup, err := buildDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.New(&cfg.Server, *deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	slog.Info("Copilot server starting",
		"addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"google_login", cfg.Google.Enabled(),
		"github_login", cfg.GitHub.Enabled(),
		"metrics", cfg.Metrics.Enabled)

	return srv.Start(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		slog.Info("No config file, using environment-driven defaults")
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.Info("Loaded configuration", "path", path)
	return cfg, nil
}

// buildDependencies wires every collaborator the server needs. The
// returned cleanup closes everything that holds resources.
func buildDependencies(ctx context.Context, cfg *config.Config) (*server.Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	provider, err := llms.NewProvider(&cfg.LLM)
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	closers = append(closers, func() {
		if err := provider.Close(); err != nil {
			slog.Warn("failed to close LLM provider", "error", err)
		}
	})

	uploadStore, err := uploads.NewStore(&cfg.Uploads)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("failed to create upload store: %w", err)
	}

	history := agent.NewHistoryService(cfg.Agent.HistorySize)
	registry := tools.NewRegistry()

	deps := &server.Dependencies{
		Sessions:    session.InMemoryService(),
		History:     history,
		Uploads:     uploadStore,
		Transcriber: speech.NewTranscriber(&cfg.Speech.STT),
		Synthesizer: speech.NewSynthesizer(&cfg.Speech.TTS, nil),
		HTTPClient:  httpclient.New(),
	}

	// Google: OAuth flow, durable tokens, and the Google-backed tools.
	if cfg.Google.Enabled() {
		store, err := credentials.NewStore(&cfg.Credentials)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("failed to open credential store: %w", err)
		}
		closers = append(closers, func() {
			if err := store.Close(); err != nil {
				slog.Warn("failed to close credential store", "error", err)
			}
		})

		googleOAuth := auth.NewGoogleConfig(&cfg.Google, cfg.Server.BaseURL+"/auth/callback")
		verifier, err := auth.NewIDTokenVerifier(ctx, cfg.Google.ClientID)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("failed to create ID token verifier: %w", err)
		}

		manager := credentials.NewManager(store, googleOAuth)
		google := tools.NewGoogleClient(manager)

		deps.GoogleOAuth = googleOAuth
		deps.Verifier = verifier
		deps.Tokens = store

		registerAll(registry,
			tools.NewGmailReaderTool(google),
			tools.NewGmailSenderTool(google, provider),
			tools.NewCalendarViewerTool(google),
			tools.NewDocsListTool(google),
			tools.NewDocsCreateTool(google),
			tools.NewDocsReadTool(google),
		)
	} else {
		slog.Warn("Google login disabled: Gmail, Calendar and Docs tools unavailable")
	}

	if cfg.GitHub.Enabled() {
		deps.GitHubOAuth = auth.NewGitHubConfig(&cfg.GitHub, cfg.Server.BaseURL+"/github/callback")
	} else {
		slog.Warn("GitHub login disabled")
	}

	// GitHub tools answer with a login prompt when no token is bound,
	// so they are registered unconditionally.
	github := tools.NewGitHubClient()
	registerAll(registry,
		tools.NewSearchTool(),
		tools.NewGitHubReposTool(github),
		tools.NewGitHubIssueTool(github),
		tools.NewPDFReaderTool(uploadStore),
		tools.NewPDFSummarizerTool(uploadStore, provider, history),
	)

	deps.Agent = agent.New(provider, registry, history, &cfg.Agent)

	if cfg.Metrics.Enabled {
		metrics, handler, err := observability.InitMetrics(ctx)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		observability.SetGlobalMetrics(metrics)
		deps.Metrics = handler
	}

	return deps, cleanup, nil
}

func registerAll(registry *tools.Registry, toolList ...tools.Tool) {
	for _, tool := range toolList {
		if err := registry.Register(tool); err != nil {
			slog.Error("failed to register tool", "tool", tool.GetName(), "error", err)
		}
	}
}

func main() {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load env files: %v\n", err)
	}

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("copilot"),
		kong.Description("Personal research copilot backend"),
		kong.UsageOnError(),
	)

	level, _ := logger.ParseLevel(cli.LogLevel)
	output := os.Stderr
	if cli.LogFile != "" {
		file, fileCleanup, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer fileCleanup()
		output = file
	}
	logger.Init(level, output, cli.LogFormat)

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}

package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/studydeck/internal/askme"
	"github.com/TobiSchelling/studydeck/internal/config"
	"github.com/TobiSchelling/studydeck/internal/database"
	"github.com/TobiSchelling/studydeck/internal/fetch"
	"github.com/TobiSchelling/studydeck/internal/liveinfo"
	"github.com/TobiSchelling/studydeck/internal/llm"
	"github.com/TobiSchelling/studydeck/internal/logger"
	"github.com/TobiSchelling/studydeck/internal/video"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	log        = logger.Nop()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "studydeck",
	Short:        "Turn study documents into summaries, quizzes and diagrams",
	Long:         "studydeck extracts text from PDF, Word, Excel and text files, then drafts summaries, practice tests and flowcharts with a language model.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		l, err := logger.New(cfg.Logging.Mode, level)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		log = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(flowchartCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(usersCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("studydeck", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/studydeck/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to choose the LLM provider and the environment variables holding API keys.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, provider and database status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		users, err := db.CountUsers()
		if err != nil {
			return fmt.Errorf("counting users: %w", err)
		}

		gateway := newGateway(cmd.Context())
		provider := "none (fallback output only)"
		if gateway.Available() {
			provider = cfg.Completion.Provider
		}

		fmt.Println("Completion:")
		fmt.Printf("  Provider: %s\n", provider)
		fmt.Printf("  Max input: %d characters\n", cfg.Completion.MaxInputChars)
		fmt.Println("\nIngestion:")
		fmt.Printf("  Max upload: %d MB\n", cfg.Ingestion.MaxUploadMB)
		fmt.Printf("  Min content: %d characters\n", cfg.Ingestion.MinContentChars)
		fmt.Println("\nStorage:")
		fmt.Printf("  Database: %s\n", db.Path())
		fmt.Printf("  Users: %d\n", users)
		fmt.Println("\nLive info:")
		fmt.Printf("  Search provider: %s\n", cfg.Search.Provider)
		fmt.Printf("  Video API key set: %t\n", os.Getenv(cfg.Video.APIKeyEnv) != "")
		return nil
	},
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(filepath.Join(dataDir, "studydeck.db"), log)
}

func newGateway(ctx context.Context) *llm.Gateway {
	comp := cfg.Completion
	return llm.NewGateway(llm.CreateProvider(ctx, comp, log), comp.MaxTokens, log)
}

func newAskMe(ctx context.Context, gateway *llm.Gateway) *askme.Service {
	var videos *video.Resolver
	yt, err := video.NewYouTubeClient(ctx, os.Getenv(cfg.Video.APIKeyEnv))
	if err != nil {
		log.Info("video lookups disabled", "reason", err)
		videos = video.NewResolver(nil, log)
	} else {
		videos = video.NewResolver(yt, log)
	}

	live := liveinfo.NewRouter(liveinfo.CreateSearcher(ctx, cfg.Search, log), log)
	articles := fetch.NewArticleResolver(15*time.Second, log)
	return askme.NewService(gateway, videos, articles, live, log)
}

// sessionSecret reads the signing key from the configured environment
// variable. Without one, a random key is used and sessions end on restart.
func sessionSecret() ([]byte, error) {
	if s := os.Getenv(cfg.Auth.JWTSecretEnv); s != "" {
		return []byte(s), nil
	}
	log.Warn("session secret not set, generating a temporary one", "env", cfg.Auth.JWTSecretEnv)
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating session secret: %w", err)
	}
	return key, nil
}

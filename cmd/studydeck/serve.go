package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/studydeck/internal/auth"
	"github.com/TobiSchelling/studydeck/internal/compose"
	"github.com/TobiSchelling/studydeck/internal/database"
	"github.com/TobiSchelling/studydeck/internal/flowchart"
	"github.com/TobiSchelling/studydeck/internal/models"
	"github.com/TobiSchelling/studydeck/internal/pipeline"
	"github.com/TobiSchelling/studydeck/internal/server"
)

// --- serve command ---

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		authSvc, err := newAuth(db)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		p, gateway := pipeline.FromConfig(ctx, cfg, db, log)
		srv := server.New(server.Deps{
			DB:             db,
			Auth:           authSvc,
			Pipeline:       p,
			Flowcharts:     flowchart.NewGenerator(gateway, log),
			AskMe:          newAskMe(ctx, gateway),
			Reports:        compose.NewComposer(gateway, log),
			MaxUploadBytes: cfg.MaxUploadBytes(),
			Log:            log,
		})

		port := servePort
		if !cmd.Flags().Changed("port") && cfg.Server.Port > 0 {
			port = cfg.Server.Port
		}
		addr := fmt.Sprintf("%s:%d", serveHost, port)
		fmt.Printf("Starting server at http://%s\n", addr)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, srv, addr)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Interface to listen on")
}

func newAuth(db *database.DB) (*auth.Service, error) {
	secret, err := sessionSecret()
	if err != nil {
		return nil, err
	}
	return auth.NewService(db, secret, cfg.Auth.SessionTTL, log)
}

// --- users command ---

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var usersAddCmd = &cobra.Command{
	Use:   "add <username> <pin>",
	Short: "Create an account with a 4-digit PIN",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		authSvc, err := newAuth(db)
		if err != nil {
			return err
		}
		u, err := authSvc.Register(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Created user %s (%s)\n", u.Username, u.ID)
		return nil
	},
}

var usersStatsCmd = &cobra.Command{
	Use:   "stats <username>",
	Short: "Show study progress for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		creds, err := db.GetCredentials(auth.NormalizeUsername(args[0]))
		if err != nil {
			return err
		}
		if creds == nil {
			return fmt.Errorf("user %q not found", args[0])
		}
		stats, err := db.GetStats(creds.User.ID)
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}
		results, err := db.ListTestResults(creds.User.ID)
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", creds.User.Username)
		fmt.Printf("  Documents: %d\n", stats.Documents)
		fmt.Printf("  Tests taken: %d\n", stats.Tests)
		fmt.Printf("  Average score: %.1f / 10\n", stats.AverageScore)
		fmt.Printf("  Best score: %.1f / 10\n", stats.BestScore)
		fmt.Printf("  Questions answered: %d\n", stats.QuestionsAnswered)
		if len(results) > 0 {
			fmt.Println("\nRecent tests:")
			for i, r := range results {
				if i == 3 {
					break
				}
				fmt.Printf("  %s  %-6s  %.2f  (%d/%d correct)  %s\n",
					r.CompletedAt.Local().Format("2006-01-02 15:04"), r.Config.Difficulty,
					r.Score, r.CorrectAnswers, len(r.Questions), r.ID)
			}
		}
		return nil
	},
}

var usersReportCmd = &cobra.Command{
	Use:   "report <username> [result-id]",
	Short: "Print a markdown review of a test, the latest by default",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		creds, err := db.GetCredentials(auth.NormalizeUsername(args[0]))
		if err != nil {
			return err
		}
		if creds == nil {
			return fmt.Errorf("user %q not found", args[0])
		}
		userID := creds.User.ID

		var result *models.TestResult
		if len(args) == 2 {
			result, err = db.GetTestResult(userID, args[1])
			if err != nil {
				return err
			}
		} else {
			results, err := db.ListTestResults(userID)
			if err != nil {
				return err
			}
			if len(results) > 0 {
				result = &results[0]
			}
		}
		if result == nil {
			return fmt.Errorf("no test result found for %s", creds.User.Username)
		}

		doc, err := db.GetDocument(userID, result.DocumentID)
		if err != nil {
			return err
		}
		rep := compose.NewComposer(newGateway(cmd.Context()), log).Compose(cmd.Context(), doc, result)
		fmt.Print(rep.Markdown)
		return nil
	},
}

func init() {
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersStatsCmd)
	usersCmd.AddCommand(usersReportCmd)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gymdesk/internal/config"
	"gymdesk/internal/credentials"
	"gymdesk/internal/database"
	"gymdesk/internal/logging"
	"gymdesk/internal/models"
	"gymdesk/internal/repository"
	"gymdesk/internal/service"
)

func main() {
	// Define subcommands
	completionsCmd := flag.NewFlagSet("completions", flag.ExitOnError)
	membersCmd := flag.NewFlagSet("members", flag.ExitOnError)

	// Completion flags
	clientID := completionsCmd.Int64("client", 0, "Only export this client's completions (default: all clients)")
	from := completionsCmd.String("from", "", "First date to include, YYYY-MM-DD")
	to := completionsCmd.String("to", "", "Last date to include, YYYY-MM-DD")
	completionsOutput := completionsCmd.String("output", "", "Output file path (default: completions_YYYYMMDD_HHMMSS.json)")

	// Member flags
	membersOutput := membersCmd.String("output", "", "Output file path (default: members_YYYYMMDD_HHMMSS.json)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		fatal(logger, "failed to initialize database", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(ctx); err != nil {
		fatal(logger, "failed to run migrations", err)
	}

	codec, err := credentials.New(cfg.TokenFormat, cfg.TokenSigningKey, cfg.TokenIssuer, cfg.TokenTTL)
	if err != nil {
		fatal(logger, "failed to configure credential codec", err)
	}

	userRepo := repository.NewUserRepository(db)
	ledger := service.NewLedgerService(
		repository.NewCompletionRepository(db),
		repository.NewWorkoutRepository(db),
		userRepo,
		nil,
		service.LedgerOptions{},
		logger,
	)
	members := service.NewMemberService(db, userRepo, repository.NewMemberRepository(db), codec, logger)
	exportService := service.NewExportService(ledger, members, logger)

	switch os.Args[1] {
	case "completions":
		completionsCmd.Parse(os.Args[2:])
		dr, err := parseRange(*from, *to)
		if err != nil {
			fmt.Println("Error:", err)
			completionsCmd.PrintDefaults()
			os.Exit(1)
		}
		output := defaultOutput(*completionsOutput, "completions")
		run(logger, exportService, output, func(w io.Writer) (int, error) {
			return exportService.ExportCompletions(ctx, w, *clientID, dr)
		})

	case "members":
		membersCmd.Parse(os.Args[2:])
		output := defaultOutput(*membersOutput, "members")
		run(logger, exportService, output, func(w io.Writer) (int, error) {
			return exportService.ExportMembers(ctx, w)
		})

	default:
		printUsage()
		os.Exit(1)
	}
}

func run(logger *slog.Logger, exportService *service.ExportService, output string, export func(io.Writer) (int, error)) {
	logger.Info("exporting", "path", output)
	if _, err := exportService.ToFile(output, export); err != nil {
		fatal(logger, "export failed", err)
	}

	if info, err := os.Stat(output); err == nil {
		logger.Info("export complete", "path", output, "size_kb", float64(info.Size())/1024)
	}
}

func parseRange(from, to string) (models.DateRange, error) {
	var dr models.DateRange
	var err error
	if from != "" {
		if dr.From, err = models.ParseDate(from); err != nil {
			return dr, err
		}
	}
	if to != "" {
		if dr.To, err = models.ParseDate(to); err != nil {
			return dr, err
		}
	}
	return dr, dr.Validate()
}

func defaultOutput(output, kind string) string {
	if output != "" {
		return output
	}
	return fmt.Sprintf("%s_%s.json", kind, time.Now().Format("20060102_150405"))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("gymdesk export tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  export completions [options]    Export the completion ledger to JSON")
	fmt.Println("  export members [options]        Export members and their accounts to JSON")
	fmt.Println()
	fmt.Println("Completion Options:")
	fmt.Println("  -client <id>      Only export this client's completions")
	fmt.Println("  -from <date>      First date to include (YYYY-MM-DD)")
	fmt.Println("  -to <date>        Last date to include (YYYY-MM-DD)")
	fmt.Println("  -output <file>    Output file path (default: completions_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Member Options:")
	fmt.Println("  -output <file>    Output file path (default: members_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./gymdesk.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}

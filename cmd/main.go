package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/app"
	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/config"
	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/logger"
	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/p4"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "p4-migrate-depot-to-s3",
	Short: "Migrate a Perforce depot's local files to an S3 bucket",
	Long: `Migrates a depot's on-disk file tree into an S3-compatible bucket,
preserving relative paths, skipping files that already exist at their
destination key, and retrying transient transfer failures. Run it on the
Perforce server host as the p4d service user.`,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upload a local folder tree to the bucket",
	RunE:  runMigration,
}

var depotCmd = &cobra.Command{
	Use:   "depot",
	Short: "Resolve the local directory a depot occupies",
	Long: `Lists the server's stream, local and archive depots, lets you pick
one, and prints the on-disk directory its files occupy, which is the folder
you pass to the migrate command.`,
	RunE: runDepotResolve,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is none)")
	rootCmd.PersistentFlags().String("log-level", "info", "Console log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().String("log-file", "s3_migration.log", "Append-only log file (empty to disable)")

	migrateCmd.Flags().String("local-folder", "", "Path to the local folder to migrate (required)")
	migrateCmd.Flags().String("endpoint", "", "S3 endpoint URL (not required for AWS)")
	migrateCmd.Flags().String("region", "", "AWS region (only required when using AWS S3)")
	migrateCmd.Flags().String("bucket", "", "S3 bucket name (required)")
	migrateCmd.Flags().String("access-key", "", "S3 access key (required)")
	migrateCmd.Flags().String("secret-key", "", "S3 secret key (required)")
	migrateCmd.Flags().String("token", "", "S3 session token (if required)")
	migrateCmd.Flags().Bool("secure", true, "Use HTTPS for the endpoint")
	migrateCmd.Flags().String("prefix", "", "Key prefix to prepend inside the bucket")
	migrateCmd.Flags().Bool("include-root-folder", true, "Insert the folder's own name into destination keys")
	migrateCmd.Flags().Int("concurrency", 4, "Number of concurrent upload workers")
	migrateCmd.Flags().Int("retries", 3, "Maximum retry attempts per file")
	migrateCmd.Flags().Int("retry-backoff-ms", 2000, "Fixed delay between retries in milliseconds")
	migrateCmd.Flags().Bool("dry-run", false, "List files without uploading")
	migrateCmd.Flags().String("metrics-addr", "", "Address to serve Prometheus metrics on (empty to disable)")

	depotCmd.Flags().String("p4port", "", "Overrides any P4PORT setting with the specified protocol:host:port")
	depotCmd.Flags().String("p4user", "", "Overrides any P4USER setting with the specified user name")
	depotCmd.Flags().String("p4passwd", "", "Password or ticket, bypassing the value of P4PASSWD")
	depotCmd.Flags().String("depot", "", "Depot name (skips the interactive menu)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(depotCmd)
}

func runMigration(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	migrator, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	// Graceful shutdown: in-flight uploads finish their current attempt,
	// everything else resolves as failed.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Received shutdown signal, gracefully stopping...")
		cancel()
	}()

	report, err := migrator.Run(ctx)
	if err != nil {
		return err
	}

	if !report.OK() {
		return fmt.Errorf("%d of %d files failed to migrate, see %s for details",
			len(report.Failed), report.Total, cfg.LogFile)
	}

	if !cfg.Migration.DryRun && report.Total > 0 {
		address := p4.SpecAddress(p4.SpecAddressParams{
			Bucket:    cfg.Migration.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			URL:       cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Token:     cfg.S3.SessionToken,
		})
		log.Info("Edit the depot spec with `p4 depot` and add this line",
			zap.String("address", address))
	}

	return nil
}

func runDepotResolve(cmd *cobra.Command, args []string) error {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFile, _ := cmd.Flags().GetString("log-file")

	log, err := logger.New(logLevel, logFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	port, _ := cmd.Flags().GetString("p4port")
	user, _ := cmd.Flags().GetString("p4user")
	passwd, _ := cmd.Flags().GetString("p4passwd")
	depotName, _ := cmd.Flags().GetString("depot")

	ctx := cmd.Context()

	client, err := p4.Connect(ctx, p4.Config{Port: port, User: user, Passwd: passwd})
	if err != nil {
		return err
	}

	depotRoot, err := client.DepotRoot(ctx)
	if err != nil {
		return err
	}

	if depotName == "" {
		names, err := client.Depots(ctx)
		if err != nil {
			return err
		}

		depotName, err = p4.ChooseDepot(os.Stdin, os.Stdout, names)
		if err != nil {
			return err
		}
	}

	info, err := client.DepotInfo(ctx, depotName)
	if err != nil {
		return err
	}

	if info.HasS3Address() {
		log.Warn("Depot already has an s3 address; its files may already be in S3",
			zap.String("depot", depotName),
			zap.String("address", info.Address),
		)
	}

	depotDir, err := p4.ResolveDepotDir(info, depotRoot)
	if err != nil {
		return err
	}

	fmt.Printf("Depot %s is located at %s\n", depotName, depotDir)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

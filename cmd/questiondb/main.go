package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/maloquacious/questiondb/internal/logger"
	"github.com/maloquacious/questiondb/internal/question"
	"github.com/maloquacious/questiondb/internal/schema"
	"github.com/maloquacious/questiondb/internal/store"
	"github.com/maloquacious/questiondb/internal/store/sqlite"
	"github.com/maloquacious/semver"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version       = semver.Version{Minor: 1, PreRelease: "alpha", Build: semver.Commit()}
	schemaVersion = "0.1"
	buildDate     = ""
)

var (
	storePath  string
	logLevel   string
	port       int
	adminPort  int
	shutdownTO time.Duration
	exitAfter  time.Duration
)

func init() {
	// a missing .env is fine
	//nolint:errcheck
	godotenv.Load()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "questiondb",
		Short:         "Question datastore server and admin CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			logger.Default = logger.NewConsoleLogger(cmd.ErrOrStderr(), level)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&storePath, "store", store.GetStorePath(), "datastore directory (env "+store.EnvStorePath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&shutdownTO, "shutdown-timeout", 15*time.Second, "graceful shutdown timeout")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the question server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&port, "port", 8080, "public HTTP port (liveness/readiness)")
	serveCmd.Flags().IntVar(&adminPort, "admin-port", 8383, "admin HTTP port (JSON, loopback only)")
	serveCmd.Flags().DurationVar(&exitAfter, "exit-after", 0, "optional runtime; if set, server exits after this duration (testing)")

	// db command group
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}
	dbCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Create and initialize the datastore",
		Args:  cobra.NoArgs,
		RunE:  runDBCreate,
	}
	dbVerifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify schema integrity and version",
		Args:  cobra.NoArgs,
		RunE:  runDBVerify,
	}
	dbCmd.AddCommand(dbCreateCmd, dbVerifyCmd)

	questionCmd := &cobra.Command{
		Use:   "question",
		Short: "Question commands",
	}
	questionAddCmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Insert a question and print its id",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuestionAdd,
	}
	questionCmd.AddCommand(questionAddCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	rootCmd.AddCommand(serveCmd, dbCmd, questionCmd, versionCmd)
	return rootCmd
}

// openStore opens the datastore under --store. Open creates the file when
// it is missing, so callers that need an existing store check first.
func openStore() (*sqlite.SQLiteStore, error) {
	st := sqlite.New(store.GetDBPath(storePath), schemaVersion)
	if err := st.Open(); err != nil {
		return nil, err
	}
	return st, nil
}

// openExistingStore opens the datastore and refuses to create it.
func openExistingStore() (*sqlite.SQLiteStore, error) {
	exists, err := store.CheckExists(storePath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("datastore not found in %s: run 'db create' first", storePath)
	}
	return openStore()
}

func runDBCreate(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.InitSchema(cmd.Context(), schemaVersion); err != nil {
		logger.Default.Error("db create: %v", err)
		return err
	}
	logger.Default.Info("db create: initialized %s at schema version %s", store.GetDBPath(storePath), schemaVersion)
	return nil
}

type verifyReport struct {
	Path          string `json:"path"`
	State         string `json:"state"`
	SchemaVersion string `json:"schemaVersion"`
	Expected      string `json:"expectedSchemaVersion"`
	QuestionsDDL  string `json:"questionsDDL,omitempty"`
}

func runDBVerify(cmd *cobra.Command, args []string) error {
	report := verifyReport{
		Path:     store.GetDBPath(storePath),
		State:    store.StateMissing.String(),
		Expected: schemaVersion,
	}

	exists, err := store.CheckExists(storePath)
	if err != nil {
		return err
	}
	if exists {
		if err := fillReport(cmd.Context(), &report); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if report.State != store.StateReady.String() {
		return fmt.Errorf("datastore is %s", report.State)
	}
	return nil
}

func fillReport(ctx context.Context, report *verifyReport) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	state, err := st.CheckState(ctx)
	if err != nil {
		return err
	}
	report.State = state.String()
	if state == store.StateUninitialized {
		return nil
	}

	if report.SchemaVersion, err = st.GetSchemaVersion(ctx); err != nil {
		return err
	}
	ddl, err := schema.Describe(ctx, st.Conn(), question.Table.Name)
	if err == nil {
		report.QuestionsDDL = ddl
	}
	return nil
}

func runQuestionAdd(cmd *cobra.Command, args []string) error {
	st, err := openExistingStore()
	if err != nil {
		return err
	}
	defer st.Close()

	q, err := question.New(args[0]).Insert(cmd.Context(), st.Conn())
	if err != nil {
		logger.Default.Error("question add: %v", err)
		return err
	}
	logger.Default.Debug("question add: inserted id %d", q.ID)
	fmt.Fprintln(cmd.OutOrStdout(), q.ID)
	return nil
}

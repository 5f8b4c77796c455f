package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/server"
	"github.com/GriffinCanCode/ZenCode/backend/internal/providers/source"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true)

	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	infoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39"))
)

type globalFlags struct {
	port string
	dev  bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "zencode",
		Short:         "Retrieval-grounded UI code generation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.port, "port", "", "Server port (overrides PORT)")
	root.PersistentFlags().BoolVar(&flags.dev, "dev", false, "Development logging (colored, debug level)")

	root.AddCommand(newServeCmd(flags), newIngestCmd(flags), newVersionCmd())
	return root
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func newIngestCmd(flags *globalFlags) *cobra.Command {
	var dir, user string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index a local repository checkout into a user's namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.ValidateID(user, "user", true); err != nil {
				return err
			}
			return runIngest(cmd.Context(), flags, dir, user)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Repository root to index")
	cmd.Flags().StringVar(&user, "user", "", "User id owning the indexed components")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "zencode "+server.Version)
		},
	}
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.port != "" {
		cfg.Server.Port = flags.port
	}
	if flags.dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runServe(parent context.Context, flags *globalFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(parent)
	defer stop()

	fmt.Println(titleStyle.Render("ZenCode Generation Service"))
	fmt.Println(infoStyle.Render(fmt.Sprintf("listening on %s:%s (llm: %s)", cfg.Server.Host, cfg.Server.Port, cfg.LLM.Provider)))

	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	runErr := srv.Run(ctx)
	if err := srv.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func runIngest(parent context.Context, flags *globalFlags, dir, user string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(parent)
	defer stop()

	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	src, err := source.NewLocal(dir, cfg.Ingest.MaxFileSize, srv.Logger().Logger)
	if err != nil {
		return err
	}

	fmt.Println(infoStyle.Render(fmt.Sprintf("Indexing %s for %s...", src.Name(), user)))
	job, err := srv.Ingest().Run(ctx, user, src)
	if job != nil {
		srv.Logger().Info("Ingestion finished",
			zap.String("job_id", job.ID),
			zap.String("status", string(job.Status)))
	}
	if err != nil {
		return err
	}

	fmt.Println(successStyle.Render(summary(job)))
	return nil
}

func summary(job *types.IngestJob) string {
	return fmt.Sprintf("%s: %d components, %d design files (job %s)",
		job.Status, job.Components, job.DesignFile, job.ID)
}

// Package cli implements the usercontrol operator command line.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"user-control/internal/app"
	"user-control/internal/config"
	"user-control/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = PrintJSON(os.Stdout, map[string]interface{}{
				"error": err.Error(),
				"code":  errorCode(err),
			})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// rootOptions carries the settings resolved in PersistentPreRunE to the
// subcommands.
type rootOptions struct {
	dbPath  string
	output  string
	profile string
	cfg     *config.Config
	logger  *slog.Logger
}

// openApp opens the control store with the resolved settings. The caller
// must Close the result.
func (o *rootOptions) openApp() (*app.App, error) {
	return app.Open(o.cfg, o.logger)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "usercontrol",
		Short:         "User control store CLI",
		Long:          "Look up, import and serve per-user control records with a fallback default.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			profiles, err := readProfiles()
			if err != nil {
				return err
			}
			p, err := profiles.profile(opts.profile)
			if err != nil {
				return err
			}

			// Apply precedence: flag > env > profile > default
			if cmd.Flags().Changed("db") {
				cfg.DBPath = opts.dbPath
			} else if os.Getenv("CONTROL_DB_PATH") == "" && p.DB != "" {
				cfg.DBPath = p.DB
			}
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("USERCONTROL_OUTPUT"); v != "" {
					opts.output = v
				} else if p.Output != "" {
					opts.output = p.Output
				}
				_ = cmd.Root().PersistentFlags().Set("output", opts.output)
			}
			if err := validateOutputFormat(opts.output); err != nil {
				return err
			}

			opts.cfg = cfg
			opts.logger = cfg.NewLogger(cmd.ErrOrStderr())
			for _, w := range cfg.Warnings {
				opts.logger.Warn(w)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to the SQLite control store (default $CONTROL_DB_PATH or usercontrol.sqlite)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&opts.profile, "profile", "p", "", "Config profile to use")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newMigrateCmd(opts))
	rootCmd.AddCommand(newLookupCmd(opts))
	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newImportCmd(opts))
	rootCmd.AddCommand(newDeleteCmd(opts))
	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))

	// Shell completions
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// errorCode returns a stable machine-readable code for err.
func errorCode(err error) string {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var noFallback *domain.NoFallbackControlError
	var noPolicy *domain.NoControlPolicyError

	switch {
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &validation):
		return "invalid_request"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &noFallback):
		return "no_fallback_control"
	case errors.As(err, &noPolicy):
		return "no_control_policy"
	default:
		return "error"
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

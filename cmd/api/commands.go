package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	appMigrations "github.com/yigit/librarium/internal/app/migrations"
	appServices "github.com/yigit/librarium/internal/app/services"
	"github.com/yigit/librarium/internal/bootstrap"
	"github.com/yigit/librarium/internal/config"
	"github.com/yigit/librarium/internal/server"
)

type globalFlags struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "library",
		Short:         "Library management backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "configs/config.yaml", "path to the YAML configuration file")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "optional dotenv file loaded before the configuration")

	root.AddCommand(
		newServeCmd(flags),
		newMigrateCmd(flags),
		newUserCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := server.NewServer(cmd.Context(), server.Options{ConfigPath: flags.configPath, EnvFile: flags.envFile})
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}
}

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(flags.configPath, flags.envFile)
			if err != nil {
				return err
			}
			database, err := bootstrap.ConnectDatabase(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			defer database.Close()
			return bootstrap.RunMigrations(ctx, cfg, database, lgr)
		},
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(flags.configPath, flags.envFile)
			if err != nil {
				return err
			}
			database, err := bootstrap.ConnectDatabase(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			defer database.Close()

			statuses, err := appMigrations.NewMigrator(database.Pool, lgr).Status(ctx, cfg.Database.MigrationsDir)
			if err != nil {
				return err
			}
			return printMigrationStatus(cmd.OutOrStdout(), statuses)
		},
	})
	return migrate
}

func printMigrationStatus(w io.Writer, statuses []appMigrations.MigrationStatus) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tFILE\tAPPLIED")
	for _, s := range statuses {
		applied := "no"
		if s.Applied {
			applied = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Version, s.File, applied)
	}
	return tw.Flush()
}

func newUserCmd(flags *globalFlags) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var username, email string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account; the password is read from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), "Enter password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(flags.configPath, flags.envFile)
			if err != nil {
				return err
			}
			database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			defer database.Close()

			deps, err := bootstrap.BuildDependencies(ctx, cfg, database, lgr)
			if err != nil {
				return err
			}
			defer deps.Close()

			outcome, err := deps.AuthService.Register(ctx, appServices.RegisterInput{
				Username: username,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", outcome.User.Username, outcome.User.ID)
			if w := outcome.Warning(); w != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			return nil
		},
	}
	create.Flags().StringVarP(&username, "username", "u", "", "account username")
	create.Flags().StringVarP(&email, "email", "e", "", "account email address")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("email")

	user.AddCommand(create)
	return user
}

// readPassword reads a password with masking when in is a terminal and a
// single line otherwise
func readPassword(in io.Reader, prompt io.Writer, label string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, label)
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytePassword)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

const redacted = "******"

func redact(value *string) {
	if *value != "" {
		*value = redacted
	}
}

// redactedConfig returns a copy of cfg with every secret masked
func redactedConfig(cfg *config.Config) config.Config {
	out := *cfg
	redact(&out.Database.Password)
	redact(&out.JWT.Secret)
	redact(&out.Mail.Password)
	redact(&out.Redis.Password)
	redact(&out.Storage.MinIO.SecretKey)
	return out
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the effective configuration as YAML with secrets masked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(flags.configPath, flags.envFile)
			if err != nil {
				return err
			}
			return writeConfig(cmd.OutOrStdout(), cfg)
		},
	})
	return cfgCmd
}

func writeConfig(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(redactedConfig(cfg)); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

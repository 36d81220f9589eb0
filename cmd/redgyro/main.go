package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/redgyro/cmd/redgyro/app"
	"github.com/roman-kulish/redgyro/internal/motion"
	"github.com/roman-kulish/redgyro/internal/redline"
)

const (
	exitOK = iota
	exitFatal
	exitFileNotFound
	exitConversion
)

func main() {
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &logLevel}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand(logger, &logLevel).ExecuteContext(ctx); err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(exitCode(err))
	}
}

// globalFlags are shared by every command
type globalFlags struct {
	configPath  string
	journalPath string
	level       string
}

// load reads the configuration and applies the flags set on the command line
func (g *globalFlags) load(cmd *cobra.Command) (*app.Config, error) {
	config, err := app.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("journal") {
		config.Journal.Path = g.journalPath
	}
	if flags.Changed("log-level") {
		config.Settings.LogLevel = g.level
	}

	return config, nil
}

func newRootCommand(logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	var (
		global      globalFlags
		all         bool
		withPreview bool
		trim        string
		orientation string
	)

	cmd := &cobra.Command{
		Use:   "redgyro [file.R3D]",
		Short: "Basic R3D to gcsv converter",
		Long: `Extracts the gyroscope and accelerometer metadata of RED R3D clips and writes
it as a Gyroflow gcsv motion log next to each clip. Requires REDline installed.

Convert one clip:           redgyro <filename.R3D>
Convert all clips in cwd:   redgyro --all`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return cmd.Help()
			}

			config, err := global.load(cmd)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				config.Target = args[0]
			}
			config.All = all

			flags := cmd.Flags()
			if flags.Changed("preview") {
				config.Preview.Enabled = withPreview
			}
			if flags.Changed("trim") {
				config.Output.Trim = motion.TrimMode(trim)
			}
			if flags.Changed("orientation") {
				config.Output.Orientation = orientation
			}

			if err = applyConfig(config, logLevel); err != nil {
				return err
			}

			_, err = app.Run(cmd.Context(), config, logger)
			return err
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	persistent := cmd.PersistentFlags()
	persistent.StringVarP(&global.configPath, "config", "c", "", "Path to the configuration file")
	persistent.StringVar(&global.journalPath, "journal", "", "SQLite file conversions are recorded in")
	persistent.StringVar(&global.level, "log-level", "", "Log level [debug, info, warn, error]")

	flags := cmd.Flags()
	flags.BoolVar(&all, "all", false, "Convert all "+app.BatchPattern+" files in the working directory")
	flags.BoolVar(&withPreview, "preview", false, "Write a PNG plot of the gyro data next to each log")
	flags.StringVar(&trim, "trim", string(motion.TrimLiteral), "Trailing zero trimming [literal, decimal]")
	flags.StringVar(&orientation, "orientation", "", "IMU orientation code written to logs")

	cmd.AddCommand(
		newPreviewCommand(&global, logger, logLevel),
		newJournalCommand(&global, logLevel),
	)

	return cmd
}

func newPreviewCommand(global *globalFlags, logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "preview <file.gcsv>",
		Short: "Render the gyro plot of an existing gcsv log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := global.load(cmd)
			if err != nil {
				return err
			}
			if err = applyConfig(config, logLevel); err != nil {
				return err
			}

			_, err = app.Preview(config, args[0], output, logger)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG path, defaults to the log name with a .png extension")

	return cmd
}

func newJournalCommand(global *globalFlags, logLevel *slog.LevelVar) *cobra.Command {
	return &cobra.Command{
		Use:   "journal [runID]",
		Short: "List the clips of a recorded run, the latest one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := global.load(cmd)
			if err != nil {
				return err
			}
			if err = applyConfig(config, logLevel); err != nil {
				return err
			}

			var runID int64
			if len(args) == 1 {
				if runID, err = strconv.ParseInt(args[0], 10, 64); err != nil || runID <= 0 {
					return fmt.Errorf("invalid run ID %q", args[0])
				}
			}

			return app.ShowJournal(cmd.Context(), config.Journal.Path, runID, cmd.OutOrStdout())
		},
	}
}

// applyConfig validates the configuration and sets the log level
func applyConfig(config *app.Config, logLevel *slog.LevelVar) error {
	if err := config.Validate(); err != nil {
		return err
	}

	lvl, _ := config.Level()
	logLevel.Set(lvl)

	return nil
}

func exitCode(err error) int {
	var runtimeErr *redline.RuntimeError

	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &runtimeErr):
		return exitFatal
	case errors.Is(err, app.ErrFileNotFound):
		return exitFileNotFound
	case errors.Is(err, app.ErrConversion):
		return exitConversion
	default:
		return exitFatal
	}
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jpfielding/dcmvol/pkg/logging"
)

// NewRoot builds the dcmvol command tree, grounded on the teacher's
// cmd/ctl/cmd/root.go structure: a PersistentPreRun wires the logger from
// the --log-level flag, and every slog line carries a --request-id
// correlation attribute. The returned command already carries ctx (via
// SetContext), so a plain Execute() is enough for PersistentPreRun's
// augmented context to reach subcommands via cmd.Context().
func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	root := &cobra.Command{
		Use:   "dcmvol",
		Short: "decode DICOM files and series into pixels, metadata, and volumes",
		Long:  "dcmvol parses DICOM Part 10 files and multi-slice series, exposing metadata, decoded pixel buffers, and assembled volumes.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}
			slog.SetDefault(logging.Logger(os.Stdout, false, level))

			if traceLog, _ := cmd.Flags().GetString("trace-log"); traceLog != "" {
				rotating := &lumberjack.Logger{
					Filename:   traceLog,
					MaxSize:    50, // megabytes
					MaxBackups: 3,
					MaxAge:     28, // days
				}
				slog.SetDefault(logging.Logger(rotating, true, slog.LevelDebug))
			}

			requestID, _ := cmd.Flags().GetString("request-id")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			cmd.SetContext(logging.AppendCtx(cmd.Context(), slog.String("request_id", requestID)))
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	root.SetContext(ctx)

	root.AddCommand(
		NewVersionCmd(gitsha),
		NewDecodeCmd(),
		NewSeriesCmd(),
	)

	pf := root.PersistentFlags()
	pf.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("trace-log", "", "path to a rotating decode-trace log file (disabled if empty)")
	pf.String("request-id", "", "correlation id attached to every log line (generated if empty)")
	return root
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, sub := range cmd.Commands() {
		printCommandTree(sub, indent+1)
	}
}

// NewVersionCmd reports the build's git SHA.
func NewVersionCmd(gitsha string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
}

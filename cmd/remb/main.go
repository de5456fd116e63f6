package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nxc1802/REMB/internal/server"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "remb",
		Short: "Industrial-estate layout engine",
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(planCmd(&verbose))
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(costCmd(&verbose))
	rootCmd.AddCommand(renderCmd(&verbose))
	rootCmd.AddCommand(serveCmd(&verbose))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger writes to stderr so the JSON layout on stdout stays clean.
func newLogger(verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func planCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [project-path]",
		Short: "Run the full planning pipeline and print the layout as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runPlan(args[0], newLogger(*verbose))
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Validate a project file without running the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
}

func costCmd(verbose *bool) *cobra.Command {
	var rate float64
	var term int

	cmd := &cobra.Command{
		Use:   "cost [project-path]",
		Short: "Run the pipeline and print a development cost estimate",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCost(args[0], rate, term, newLogger(*verbose))
		},
	}
	cmd.Flags().Float64Var(&rate, "interest-rate", 0.08, "annual interest rate")
	cmd.Flags().IntVar(&term, "term-years", 15, "debt term in years")
	return cmd
}

func renderCmd(verbose *bool) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render [project-path]",
		Short: "Run the pipeline and render the layout as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRender(args[0], output, newLogger(*verbose))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "layout.svg", "output SVG path")
	return cmd
}

func serveCmd(verbose *bool) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Start the local dev server exposing the planning API",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			srv := server.New(args[0], port, newLogger(*verbose))
			return srv.Start()
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP server port")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dashgrid/config"
	"dashgrid/internal/cli"
	"dashgrid/internal/onboarding"
	"dashgrid/version"
)

var (
	logToFile bool
	logFile   *os.File
)

var rootCmd = &cobra.Command{
	Use:           "dash",
	Short:         "Inspect, repeat and convert dashboard layouts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !logToFile {
			return nil
		}
		logPath, err := config.GetLogPath()
		if err != nil {
			return fmt.Errorf("failed to get log path: %w", err)
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		log.SetOutput(f)
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
		log.Printf("=== dash %s ===", cmd.CommandPath())
		return nil
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the config directory and settings",
	Long:  "Walk through the settings interactively. Without a terminal, or with --defaults, the default settings are written instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, _ := cmd.Flags().GetBool("defaults")
		if !defaults && term.IsTerminal(int(os.Stdin.Fd())) {
			return onboarding.RunWizard(cmd.Context(), os.Stdout)
		}
		if err := config.EnsureConfigExists(); err != nil {
			return err
		}
		path, err := config.GetSettingsFile()
		if err != nil {
			return err
		}
		fmt.Printf("Settings: %s\n", path)
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show the variables and layout outline of a dashboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Inspect(os.Stdout, args[0])
	},
}

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Draw the layout with repeats expanded",
	Long: `Draw the layout of a dashboard with its repeats expanded for the current
or given variable selections.

Examples:
  dash render servers.yaml
  dash render servers.yaml --set server=a,b --set env=prod
  dash render servers.yaml --preset staging --color never`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := selectionsFromFlags(cmd)
		if err != nil {
			return err
		}
		color, _ := cmd.Flags().GetString("color")
		width, _ := cmd.Flags().GetInt("column-width")
		outline, _ := cmd.Flags().GetBool("outline")
		return cli.Render(os.Stdout, args[0], cli.RenderOptions{
			Selections:  sel,
			Color:       color,
			ColumnWidth: width,
			Outline:     outline,
		})
	},
}

var repeatCmd = &cobra.Command{
	Use:   "repeat [file]",
	Short: "List every placement after the repeats ran",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := selectionsFromFlags(cmd)
		if err != nil {
			return err
		}
		return cli.Repeat(os.Stdout, args[0], sel)
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a dashboard to another layout kind",
	Long: `Convert a dashboard to another layout kind (grid, auto-grid, rows or tabs).
Without --to the default_layout setting is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")
		output, _ := cmd.Flags().GetString("output")
		return cli.Convert(os.Stdout, args[0], to, output)
	},
}

var lintCmd = &cobra.Command{
	Use:   "lint [file|glob...]",
	Short: "Check dashboard files for problems",
	Long: `Check dashboard files for schema problems, overlapping panels and
repeats that cannot expand. Patterns support ** globs.

Examples:
  dash lint servers.yaml
  dash lint 'dashboards/**/*.{yaml,json}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		patterns := args
		if len(patterns) == 0 {
			settings, err := config.LoadSettings()
			if err != nil {
				return err
			}
			patterns = []string{settings.DashboardsDir + "/**/*.{yaml,yml,json}"}
		}
		code, err := cli.Lint(os.Stdout, patterns)
		if err != nil {
			return err
		}
		if code != 0 {
			closeLog()
			os.Exit(code)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Open the interactive viewer and reload on change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.Watch(ctx, args[0], color)
	},
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the versioned dashboard store",
}

var storeSaveCmd = &cobra.Command{
	Use:   "save [file]",
	Short: "Store a dashboard file as a new version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")
		writeUID, _ := cmd.Flags().GetBool("write-uid")
		return cli.StoreSave(cmd.Context(), os.Stdout, args[0], message, writeUID)
	},
}

var storeGetCmd = &cobra.Command{
	Use:   "get [uid]",
	Short: "Print a stored dashboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, _ := cmd.Flags().GetInt("version")
		format, _ := cmd.Flags().GetString("format")
		return cli.StoreGet(cmd.Context(), os.Stdout, args[0], version, format)
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored dashboards",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.StoreList(cmd.Context(), os.Stdout)
	},
}

var storeHistoryCmd = &cobra.Command{
	Use:   "history [uid]",
	Short: "Show the versions of a stored dashboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.StoreHistory(cmd.Context(), os.Stdout, args[0])
	},
}

var storeDiffCmd = &cobra.Command{
	Use:   "diff [uid]",
	Short: "Diff two versions of a stored dashboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetInt("from")
		to, _ := cmd.Flags().GetInt("to")
		return cli.StoreDiff(cmd.Context(), os.Stdout, args[0], from, to)
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete [uid]",
	Short: "Delete a stored dashboard and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.StoreDelete(cmd.Context(), os.Stdout, args[0])
	},
}

var varsCmd = &cobra.Command{
	Use:   "vars",
	Short: "Pick variable selections and manage presets",
}

var varsPickCmd = &cobra.Command{
	Use:   "pick [file]",
	Short: "Choose variable values interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		preset, _ := cmd.Flags().GetString("save")
		description, _ := cmd.Flags().GetString("description")
		return cli.PickVariables(os.Stdout, args[0], preset, description)
	},
}

var varsPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List saved presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListPresets(os.Stdout)
	},
}

var varsRemoveCmd = &cobra.Command{
	Use:   "remove [preset]",
	Short: "Remove a saved preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RemovePreset(os.Stdout, args[0])
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

func selectionsFromFlags(cmd *cobra.Command) (cli.Selections, error) {
	preset, _ := cmd.Flags().GetString("preset")
	sets, _ := cmd.Flags().GetStringArray("set")
	return cli.ResolveSelections(preset, sets)
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("set", nil, "Select variable values as name=value[,value] (repeatable, value 'all' selects every option)")
	cmd.Flags().String("preset", "", "Start from a saved preset")
}

func closeLog() {
	if logFile != nil {
		logFile.Close()
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-file", false, "Write logs to the dashgrid log file")

	addSelectionFlags(renderCmd)
	setupCmd.Flags().Bool("defaults", false, "Write the default settings without prompting")
	renderCmd.Flags().String("color", "", "Colour output: auto, always or never (defaults to the color setting)")
	renderCmd.Flags().Int("column-width", 0, "Terminal columns per grid column")
	renderCmd.Flags().Bool("outline", false, "Print the saved structure instead of the expanded grid")
	addSelectionFlags(repeatCmd)
	convertCmd.Flags().String("to", "", "Target layout kind")
	convertCmd.Flags().StringP("output", "o", "", "Write the result to a file instead of stdout")
	watchCmd.Flags().String("color", "", "Colour output: auto, always or never (defaults to the color setting)")

	storeSaveCmd.Flags().StringP("message", "m", "", "Version message")
	storeSaveCmd.Flags().Bool("write-uid", false, "Write a newly assigned UID back to the file")
	storeGetCmd.Flags().Int("version", 0, "Version to print (defaults to the latest)")
	storeGetCmd.Flags().String("format", "yaml", "Output format: yaml or json")
	storeDiffCmd.Flags().Int("from", 1, "Older version")
	storeDiffCmd.Flags().Int("to", 2, "Newer version")
	storeCmd.AddCommand(storeSaveCmd)
	storeCmd.AddCommand(storeGetCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeHistoryCmd)
	storeCmd.AddCommand(storeDiffCmd)
	storeCmd.AddCommand(storeDeleteCmd)

	varsPickCmd.Flags().String("save", "", "Save the selection as a named preset")
	varsPickCmd.Flags().String("description", "", "Preset description")
	varsCmd.AddCommand(varsPickCmd)
	varsCmd.AddCommand(varsPresetsCmd)
	varsCmd.AddCommand(varsRemoveCmd)

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(repeatCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(varsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

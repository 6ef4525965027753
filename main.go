// Package main provides the entry point for the rsvp CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/rsvp/internal/source"
	"github.com/dgnsrekt/rsvp/rsvp"
	"github.com/dgnsrekt/rsvp/rsvp/preprocess"
	rsvpsync "github.com/dgnsrekt/rsvp/rsvp/sync"
	"github.com/dgnsrekt/rsvp/ui"
	"github.com/dgnsrekt/rsvp/utils"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile  string
	wpm         int
	fontSize    float64
	pausePolicy string
	watchFile   bool
	plain       bool
	stats       bool
	clipboard   bool
	mouse       bool
	debug       bool

	rootCmd = &cobra.Command{
		Use:   "rsvp [SOURCE|DIR]",
		Short: "Speed-read text on the CLI, one word at a time",
		Long: paragraph(
			fmt.Sprintf("\nSpeed-read text on the CLI, %s!", keyword("one word at a time")),
		),
		Example:          paragraph("rsvp README.md\nrsvp --wpm 450 https://example.com/post.md\ncat notes.txt | rsvp --plain"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	// The config subcommand creates a missing file itself.
	if cmd.Flags().Changed("config") && configFile != "" && fileExists(utils.ExpandPath(configFile)) {
		viper.SetConfigFile(utils.ExpandPath(configFile))
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
	}

	// grab config values from Viper
	mouse = viper.GetBool("mouse")
	if viper.GetBool("debug") {
		if err := enableDebugLog(); err != nil {
			return err
		}
	}

	if plain && stats {
		return errors.New("cannot use both plain and stats")
	}
	if clipboard && cmd.Flags().NArg() > 0 {
		return errors.New("cannot read both the clipboard and a source")
	}
	return nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// readSource returns the text to read. A nil source without error means
// there is nothing to read yet and the TUI should ask for text.
func readSource(ctx context.Context, args []string) (*source.Source, error) {
	if clipboard {
		return source.FromClipboard()
	}

	// if stdin is a pipe then use stdin for input. note that you can also
	// explicitly use a - to read from stdin.
	if len(args) == 0 {
		yes, err := stdinIsPipe()
		if err != nil {
			return nil, err
		}
		if !yes {
			return nil, nil
		}
		return source.FromArg(ctx, "-")
	}

	return source.FromArg(ctx, args[0])
}

func execute(cmd *cobra.Command, args []string) error {
	cfg, err := rsvp.LoadConfigFromViper()
	if err != nil {
		return err
	}

	src, err := readSource(cmd.Context(), args)
	if err != nil {
		return err
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))

	switch {
	case stats:
		if src == nil {
			return rsvp.ErrNoText
		}
		return printStats(os.Stdout, src, cfg)
	case plain || !isTerminal:
		if src == nil {
			return rsvp.ErrNoText
		}
		return runPlain(cmd.Context(), os.Stdout, isTerminal, cfg, src.Text)
	default:
		if src == nil {
			return runTUI(cfg, "", "")
		}
		path := ""
		if src.IsFile() {
			path = src.Path
		}
		return runTUI(cfg, path, src.Text)
	}
}

// printStats writes the word count and reading time of src.
func printStats(w io.Writer, src *source.Source, cfg rsvp.Config) error {
	seq := preprocess.New(preprocess.WithFontSize(cfg.FontSize)).Process(src.Text, cfg.WPM)

	name := src.Path
	if name == "" {
		name = "-"
	}
	_, err := fmt.Fprintf(w, "%s  %s\n%s  %s\n%s  %s\n%s  %d wpm\n%s  %s\n",
		keyword("source"), name,
		keyword("size  "), humanize.Bytes(uint64(len(src.Text))),
		keyword("words "), humanize.Comma(int64(len(seq))),
		keyword("rate  "), cfg.WPM,
		keyword("time  "), seq.TotalDuration().Round(time.Second),
	)
	if err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	return nil
}

// runPlain plays text without the TUI. On a terminal each word replaces
// the previous one; otherwise words are printed one per line as they come.
func runPlain(ctx context.Context, w io.Writer, tty bool, cfg rsvp.Config, text string) error {
	player := rsvpsync.NewPlayer(cfg.FrameInterval,
		rsvpsync.WithPausePolicy(cfg.PausePolicy),
		rsvpsync.WithRate(cfg.WPM),
	)
	defer player.Close()

	pre := preprocess.New(preprocess.WithFontSize(cfg.FontSize))
	ctrl := rsvp.NewController(pre, player, cfg)
	defer ctrl.Close()

	out := termenv.NewOutput(w)
	anchor := cfg.AnchorStyle()
	col := 0
	if tty {
		if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			col = width * 2 / 5
		}
	}

	var (
		done = make(chan struct{})
		once gosync.Once
	)
	ctrl.OnWordChange(func(ev rsvp.WordEvent) {
		if ev.Cleared {
			return
		}
		if !tty {
			_, _ = fmt.Fprintln(w, ev.Record.Word)
			return
		}
		out.ClearLine()
		_, _ = fmt.Fprint(w, "\r"+ui.RenderWord(ev.Record, col, anchor))
	})
	ctrl.OnStateChange(func(_, to rsvp.PlaybackState) {
		if to == rsvp.StateFinished {
			once.Do(func() { close(done) })
		}
	})

	if ctrl.LoadText(text) == 0 {
		return rsvp.ErrNoText
	}
	ctrl.Start()

	select {
	case <-done:
	case <-ctx.Done():
		ctrl.Stop()
	}
	if tty {
		_, _ = fmt.Fprintln(w)
	}

	s := player.Stats()
	log.Debug("Plain playback done",
		"samples", s.Samples,
		"advances", s.Advances,
		"max_per_sample", s.MaxPerSample,
	)
	return nil
}

func runTUI(reader rsvp.Config, path string, content string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	cfg.Path = path
	cfg.Reader = reader
	cfg.EnableMouse = mouse
	cfg.Debug = cfg.Debug || viper.GetBool("debug")

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, content).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	_ = closer()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write a debug log")
	rootCmd.Flags().IntVarP(&wpm, "wpm", "w", rsvp.DefaultWPM, fmt.Sprintf("reading rate in words per minute (%d-%d, steps of %d)", rsvp.MinWPM, rsvp.MaxWPM, rsvp.WPMStep))
	rootCmd.Flags().Float64Var(&fontSize, "font-size", rsvp.DefaultFontSize, "font size in px used for anchor offsets")
	rootCmd.Flags().StringVar(&pausePolicy, "pause-policy", string(rsvp.PausePreserve), "what resume does with the paused word (preserve/restart)")
	rootCmd.Flags().BoolVar(&watchFile, "watch", false, "reload the file when it changes (TUI-mode only)")
	rootCmd.Flags().BoolVarP(&plain, "plain", "p", false, "print words to stdout instead of running the TUI")
	rootCmd.Flags().BoolVar(&stats, "stats", false, "print word count and reading time, then exit")
	rootCmd.Flags().BoolVarP(&clipboard, "clipboard", "c", false, "read the text from the clipboard")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel to change the rate (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("wpm", rootCmd.Flags().Lookup("wpm"))
	_ = viper.BindPFlag("font_size", rootCmd.Flags().Lookup("font-size"))
	_ = viper.BindPFlag("pause_policy", rootCmd.Flags().Lookup("pause-policy"))
	_ = viper.BindPFlag("watch", rootCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rsvp.SetDefaults()
	viper.SetDefault("mouse", false)
	viper.SetDefault("debug", false)

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "rsvp")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "rsvp")}, dirs...)
	}

	if c := os.Getenv("RSVP_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("rsvp")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("rsvp")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "rsvp.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

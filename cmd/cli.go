package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"auralight/internal/build"
	"auralight/internal/config"
)

// Options is the resolved command line. Zero values mean "not set"; main
// applies anything the user did set on top of the loaded configuration.
type Options struct {
	Command string // "show" runs the light show, "list" lists audio devices.

	ConfigPath string
	Pattern    string
	Port       string
	URL        string
	Device     int
	Source     string
	DryRun     bool
	Headless   bool
	Verbose    bool
}

func ParseArgs() (*Options, error) {
	buildInfo := build.Get()
	options := &Options{Device: config.DefaultInputDevice}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Audio-reactive point light controller",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = "show"
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.PersistentFlags().StringVarP(&options.ConfigPath, "config", "c", "",
		"Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&options.Pattern, "pattern", "p", "",
		"Startup pattern name")
	rootCmd.PersistentFlags().StringVar(&options.Port, "port", "",
		"ResoniteLink websocket port for this session")
	rootCmd.PersistentFlags().StringVar(&options.URL, "url", "",
		"Full websocket URL (overrides --port)")
	rootCmd.PersistentFlags().IntVarP(&options.Device, "device", "d", config.DefaultInputDevice,
		"Input device ID. Use 'list' command to see available devices.")
	rootCmd.PersistentFlags().StringVarP(&options.Source, "source", "s", "",
		"Audio source: 'microphone', 'none', or a WAV file path")
	rootCmd.PersistentFlags().BoolVar(&options.DryRun, "dry-run", false,
		"Run the show without connecting to a host")
	rootCmd.PersistentFlags().BoolVar(&options.Headless, "headless", false,
		"Run without the interactive control screen")
	rootCmd.PersistentFlags().BoolVarP(&options.Verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// Apply copies every flag the user set onto the loaded configuration.
func (o *Options) Apply(cfg *config.Config) {
	if o.Pattern != "" {
		cfg.Pattern.Default = o.Pattern
	}
	if o.Port != "" {
		cfg.Host.Port = o.Port
	}
	if o.URL != "" {
		cfg.Host.URL = o.URL
	}
	if o.Device != config.DefaultInputDevice {
		cfg.Audio.InputDevice = o.Device
	}
	if o.Source != "" {
		cfg.Audio.Source = o.Source
	}
	if o.Verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
}

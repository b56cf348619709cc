package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tracker/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Manage configuration",
		Long: `View or modify tracker configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/tracker/config.yaml, or in the file
named by --config. Project-specific overrides can be placed in .tracker.yaml`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch len(args) {
			case 0:
				for _, key := range config.Keys() {
					value, _ := a.cfg.Get(key)
					fmt.Fprintf(out, "%s: %s\n", key, value)
				}
				fmt.Fprintf(out, "# storage file: %s\n", a.storagePath())
				return nil
			case 1:
				value, err := a.cfg.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, value)
				return nil
			}

			// Flag overrides only apply to this run, so persist from a fresh load.
			cfg, err := a.loadForWrite()
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			path := a.configPath
			if path == "" {
				path = config.GetUserConfigPath()
			}
			if err := config.SaveTo(cfg, path); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			printOK(out, "Set %s = %s", args[0], args[1])
			return nil
		},
	}
}

// loadForWrite reads the file config set writes to, without flag overrides.
func (a *app) loadForWrite() (*config.Config, error) {
	if a.configPath != "" {
		return config.LoadFromPath(a.configPath)
	}
	return config.Load()
}

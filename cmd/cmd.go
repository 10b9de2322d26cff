// Package cmd holds the city-tours command line: the API server, schema migrations and a client.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"city-tours/internal/config"
	"city-tours/internal/logger"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath  string
	apiURL      string
	sessionFile string
	logLevel    string

	cfg *config.Config
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "city-tours",
		Short:         "City tours API server and command line client",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to the YAML configuration file")
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "API base URL used by client commands (overrides client.api_url)")
	root.PersistentFlags().StringVar(&opts.sessionFile, "session-file", "", "file holding the signed-in session (overrides client.session_file)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug|info|warn|error (overrides log.level)")

	root.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
	)
	addClientCommands(root, opts)

	return root
}

// load reads the configuration once and applies flag overrides
func (o *rootOptions) load() error {
	if o.cfg != nil {
		return nil
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.apiURL != "" {
		cfg.Client.APIURL = o.apiURL
	}
	if o.sessionFile != "" {
		cfg.Client.SessionFile = o.sessionFile
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	o.cfg = cfg
	return nil
}

// printJSON writes v indented to w
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

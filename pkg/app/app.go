// Package app builds cobra commands whose options come from flags, a YAML
// configuration file and environment variables, in that order of
// precedence.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/cli/globalflag"
	"k8s.io/component-base/term"

	"github.com/autopeer-io/otahub/pkg/log"
)

// RunFunc is the entry point of an App once options are validated.
type RunFunc func() error

// Option configures an App.
type Option func(*App)

// App is a command line application.
type App struct {
	basename    string
	name        string
	description string
	options     NamedFlagSetOptions
	logOptions  *log.Options
	runFunc     RunFunc
	noArgs      bool
	cmd         *cobra.Command
}

// WithOptions sets the options object the command populates.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithLogOptions initializes the global logger from opts before run.
func WithLogOptions(opts *log.Options) Option {
	return func(a *App) { a.logOptions = opts }
}

// WithRunFunc sets the function executed by the command.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDescription sets the long description of the command.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithDefaultValidArgs rejects positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) { a.noArgs = true }
}

// NewApp creates an application named basename.
func NewApp(basename, name string, opts ...Option) *App {
	a := &App{basename: basename, name: name}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

// Command returns the underlying cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the command and exits the process on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.basename,
		Short:         a.name,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if a.noArgs {
		cmd.Args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}

	var namedFlagSets cliflag.NamedFlagSets
	if a.options != nil {
		namedFlagSets = a.options.Flags()
	}
	cfgFile := addConfigFlag(a.basename, namedFlagSets.FlagSet("global"))
	globalflag.AddGlobalFlags(namedFlagSets.FlagSet("global"), cmd.Name())

	fs := cmd.Flags()
	for _, f := range namedFlagSets.FlagSets {
		fs.AddFlagSet(f)
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cliflag.SetUsageAndHelpFunc(cmd, namedFlagSets, cols)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := a.loadOptions(viper.New(), *cfgFile, cmd); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			return err
		}
		if a.logOptions != nil {
			log.Init(a.logOptions)
			defer log.Sync()
		}
		if a.runFunc == nil {
			return nil
		}
		if err := a.runFunc(); err != nil {
			log.Error(err, "Command failed", "command", a.basename)
			return err
		}
		return nil
	}

	a.cmd = cmd
}

func (a *App) loadOptions(v *viper.Viper, cfgFile string, cmd *cobra.Command) error {
	if a.options == nil {
		return nil
	}
	if err := loadConfig(v, a.basename, cfgFile, cmd.Flags()); err != nil {
		return err
	}
	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	if err := a.options.Complete(); err != nil {
		return err
	}
	return a.options.Validate()
}

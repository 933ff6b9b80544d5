package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/autopeer-io/otahub/internal/otahub/client"
)

const commandName = "ota-ctl"

type globalOptions struct {
	v *viper.Viper
}

func (g *globalOptions) client() (*client.Client, error) {
	return client.New(g.v.GetString("server"),
		client.WithToken(g.v.GetString("token")),
		client.WithTimeout(g.v.GetDuration("timeout")),
	)
}

// NewCommand returns the ota-ctl root command writing its tables to out.
func NewCommand(out io.Writer) *cobra.Command {
	g := &globalOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:           commandName,
		Short:         "Command line client for the OTA hub",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetOut(out)

	fs := cmd.PersistentFlags()
	fs.String("server", "http://127.0.0.1:8080", "Address of the OTA hub.")
	fs.String("token", "", "Shared credential for assign/start/complete/fail.")
	fs.Duration("timeout", 30*time.Second, "Per-request timeout.")

	_ = g.v.BindPFlags(fs)
	g.v.SetEnvPrefix("OTACTL")
	g.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	g.v.AutomaticEnv()

	cmd.AddCommand(
		newVehiclesCommand(g),
		newUpdatesCommand(g),
		newHistoryCommand(g),
	)
	return cmd
}

func exactArgs(n int, names ...string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%s requires %s", cmd.CommandPath(), strings.Join(names, " "))
		}
		return nil
	}
}

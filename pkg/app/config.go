package app

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFlagName = "config"

func addConfigFlag(basename string, fs *pflag.FlagSet) *string {
	return fs.StringP(configFlagName, "c", "",
		fmt.Sprintf("Read configuration from the specified YAML file. Flag values take precedence; %s_* environment variables take precedence over the file.", envPrefix(basename)))
}

// envPrefix turns a command name such as ota-hub into OTAHUB.
func envPrefix(basename string) string {
	return strings.ToUpper(strings.NewReplacer("-", "", "_", "").Replace(basename))
}

// loadConfig binds fs and the environment to v and reads cfgFile, if any.
// Keys are the dotted flag names, so --http.addr, http.addr in YAML and
// OTAHUB_HTTP_ADDR all address the same value.
func loadConfig(v *viper.Viper, basename, cfgFile string, fs *pflag.FlagSet) error {
	if err := v.BindPFlags(fs); err != nil {
		return err
	}

	v.SetEnvPrefix(envPrefix(basename))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read configuration file %q: %w", cfgFile, err)
	}
	return nil
}

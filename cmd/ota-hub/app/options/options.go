package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/otahub/internal/otahub"
	"github.com/autopeer-io/otahub/pkg/app"
	"github.com/autopeer-io/otahub/pkg/log"
	"github.com/autopeer-io/otahub/pkg/options"
)

type HubOptions struct {
	HttpOptions  *options.HttpOptions  `json:"http" mapstructure:"http"`
	StoreOptions *options.StoreOptions `json:"store" mapstructure:"store"`
	AuthOptions  *options.AuthOptions  `json:"auth" mapstructure:"auth"`
	MqttOptions  *options.MqttOptions  `json:"mqtt" mapstructure:"mqtt"`
	Log          *log.Options          `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*HubOptions)(nil)

func NewHubOptions() *HubOptions {
	o := &HubOptions{
		HttpOptions:  options.NewHttpOptions(),
		StoreOptions: options.NewStoreOptions(),
		AuthOptions:  options.NewAuthOptions(),
		MqttOptions:  options.NewMqttOptions(),
		Log:          log.NewOptions(),
	}

	return o
}

func (o *HubOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.StoreOptions.AddFlags(fss.FlagSet("store"))
	o.AuthOptions.AddFlags(fss.FlagSet("auth"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *HubOptions) Complete() error {
	return nil
}

func (o *HubOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.StoreOptions.Validate()...)
	errs = append(errs, o.AuthOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *HubOptions) Config() (*otahub.Config, error) {
	return &otahub.Config{
		HttpOptions:  o.HttpOptions,
		StoreOptions: o.StoreOptions,
		AuthOptions:  o.AuthOptions,
		MqttOptions:  o.MqttOptions,
	}, nil
}

package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*AuthOptions)(nil)

// AuthOptions configures the shared credential required by write routes.
type AuthOptions struct {
	// APIToken is compared against the X-API-Token header.
	APIToken string `json:"api-token" mapstructure:"api-token"`

	// APITokenHash is a bcrypt hash of the credential. When set it is used
	// instead of APIToken, so the plain token never sits in config files.
	APITokenHash string `json:"api-token-hash" mapstructure:"api-token-hash"`

	// Header is the request header carrying the credential.
	Header string `json:"header" mapstructure:"header"`
}

func NewAuthOptions() *AuthOptions {
	return &AuthOptions{
		Header: "X-API-Token",
	}
}

func (o *AuthOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	switch {
	case o.APIToken == "" && o.APITokenHash == "":
		errs = append(errs, errors.New("one of --auth.api-token or --auth.api-token-hash is required"))
	case o.APIToken != "" && o.APITokenHash != "":
		errs = append(errs, errors.New("--auth.api-token and --auth.api-token-hash are mutually exclusive"))
	}
	if o.Header == "" {
		errs = append(errs, errors.New("--auth.header must not be empty"))
	}
	return errs
}

func (o *AuthOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.APIToken, "auth.api-token", o.APIToken, "Shared credential required on assign/start/complete/fail requests.")
	fs.StringVar(&o.APITokenHash, "auth.api-token-hash", o.APITokenHash, "Bcrypt hash of the shared credential, used instead of --auth.api-token.")
	fs.StringVar(&o.Header, "auth.header", o.Header, "Request header that carries the shared credential.")
}

package server

import "github.com/autopeer-io/otahub/pkg/options"

type Config struct {
	HttpOptions *options.HttpOptions
	AuthOptions *options.AuthOptions
}

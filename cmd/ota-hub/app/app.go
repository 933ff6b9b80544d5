package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/otahub/cmd/ota-hub/app/options"
	"github.com/autopeer-io/otahub/pkg/app"
)

const (
	commandName = "ota-hub"
	commandDesc = `The OTA Hub tracks fleet vehicles and the lifecycle of the over-the-air
firmware updates assigned to them. It serves an HTTP API for registering
vehicles, assigning updates and reporting their progress, and can publish
every committed change to an MQTT broker.`
)

func NewApp() *app.App {
	opts := options.NewHubOptions()
	application := app.NewApp(
		commandName,
		"Launch the OTA hub server",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithLogOptions(opts.Log),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.HubOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewHubServer()
		if err != nil {
			return fmt.Errorf("failed to create hub server: %w", err)
		}

		return server.Run(ctx)
	}
}

package main

import (
	"os"

	"github.com/autopeer-io/otahub/cmd/ota-ctl/app"
)

func main() {
	if err := app.NewCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

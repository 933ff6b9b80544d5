package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/otahub/cmd/ota-hub/app"
)

func main() {
	app.NewApp().Run()
}

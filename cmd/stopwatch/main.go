// Command stopwatch runs the sample two-button stopwatch and offers tools
// for transition table definitions and snapshots.
package main

import (
	"os"

	"github.com/gookit/gcli/v3"
)

func main() {
	app := gcli.NewApp(func(app *gcli.App) {
		app.Version = "0.1.0"
		app.Desc = "polled state machine stopwatch"
	})
	app.Add(runCommand())
	app.Add(dotCommand())
	app.Add(validateCommand())
	app.Add(inspectCommand())
	os.Exit(app.Run(nil))
}

package commands

import "io"

type AppConfig = appConfig

// Config returns the configuration of the app.
func (a *App) Config() AppConfig {
	return a.config
}

// SetArgs sets the arguments for the command.
func (a *App) SetArgs(args ...string) {
	a.cmd.SetArgs(args)
}

// SetIO sets the input and outputs of the command.
func (a *App) SetIO(in io.Reader, out, errOut io.Writer) {
	a.cmd.SetIn(in)
	a.cmd.SetOut(out)
	a.cmd.SetErr(errOut)
}

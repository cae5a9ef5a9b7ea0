package node

import (
	"fmt"

	"github.com/rpaflow/engine/runtime"
	"github.com/rpaflow/engine/value"
)

func registerProcessHandlers(d *Dispatcher) {
	d.Register("executeCommand", HandlerFunc(executeCommandHandler))
}

// executeCommandHandler implements spec.md §4.3 "Process": argv, optional
// working dir, optional output variable.
func executeCommandHandler(hc *Context) error {
	if hc.Drivers.Shell == nil {
		return ErrNoDriver
	}

	rawArgv, _ := hc.Data["argv"].([]any)
	argv := make([]string, len(rawArgv))
	for i, a := range rawArgv {
		s, _ := a.(string)
		argv[i] = hc.Variables.Interpolate(s)
	}

	dir := hc.InterpString("workingDir")

	stdout, stderr, err := hc.Drivers.Shell.ExecuteCommand(hc.Ctx, argv, dir)
	if err != nil {
		return err
	}

	hc.SetResultVariable("outputVariable", value.Dict(map[string]value.Value{
		"stdout": value.String(stdout),
		"stderr": value.String(stderr),
	}))
	hc.Log(runtime.LevelInfo, fmt.Sprintf("executed command %v", argv))
	return nil
}

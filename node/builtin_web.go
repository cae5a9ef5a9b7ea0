package node

import (
	"fmt"

	"github.com/rpaflow/engine/automation"
	"github.com/rpaflow/engine/runtime"
	"github.com/rpaflow/engine/value"
	"github.com/rpaflow/engine/variable"
)

func registerWebHandlers(d *Dispatcher) {
	d.Register("openBrowser", HandlerFunc(openBrowserHandler))
	d.Register("navigate", HandlerFunc(navigateHandler))
	d.Register("webClick", HandlerFunc(webClickHandler))
	d.Register("webInput", HandlerFunc(webInputHandler))
	d.Register("webGetText", HandlerFunc(webGetTextHandler))
	d.Register("closeBrowser", HandlerFunc(closeBrowserHandler))
	d.Register("executeJs", HandlerFunc(executeJsHandler))
}

// sessionVarName returns the data field naming the variable that holds the
// browser session id, defaulting to the reserved "current browser" name
// (spec.md §9 "Browser session naming").
func (hc *Context) sessionVarName() string {
	if name := hc.String("session"); name != "" {
		return name
	}
	return ReservedBrowserSession
}

// sessionID resolves the variable-named session id to the actual driver
// session id stored under it.
func (hc *Context) sessionID() (string, error) {
	name := hc.sessionVarName()
	v, ok := hc.Variables.Get(name)
	if !ok {
		return "", fmt.Errorf("no browser session bound to variable %q", name)
	}
	sid, _ := v.AsString()
	return sid, nil
}

func openBrowserHandler(hc *Context) error {
	if hc.Drivers.Web == nil {
		return ErrNoDriver
	}
	name := hc.sessionVarName()
	opts := automation.BrowserOptions{
		Headless:    hc.Bool("headless"),
		BrowserPath: hc.String("browserPath"),
		UserDataDir: hc.String("userDataDir"),
		WindowSize:  hc.String("windowSize"),
	}
	// The engine mints the session id; it is both the driver identifier
	// and the value stored under the user-chosen (or reserved) variable
	// name.
	sid := name + ":" + hc.NodeID
	if err := hc.Drivers.Web.OpenBrowser(hc.Ctx, sid, opts); err != nil {
		return err
	}
	hc.Variables.Set(name, value.String(sid), variable.ScopeLocal)
	hc.Variables.Set(ReservedBrowserSession, value.String(sid), variable.ScopeLocal)
	hc.Log(runtime.LevelInfo, fmt.Sprintf("opened browser session %s", name))
	return nil
}

func navigateHandler(hc *Context) error {
	if hc.Drivers.Web == nil {
		return ErrNoDriver
	}
	sid, err := hc.sessionID()
	if err != nil {
		return err
	}
	url := hc.InterpString("url")
	if err := hc.Drivers.Web.Navigate(hc.Ctx, sid, url); err != nil {
		return err
	}
	hc.Log(runtime.LevelInfo, fmt.Sprintf("navigated to %s", url))
	return nil
}

func webClickHandler(hc *Context) error {
	if hc.Drivers.Web == nil {
		return ErrNoDriver
	}
	sid, err := hc.sessionID()
	if err != nil {
		return err
	}
	selector := hc.InterpString("selector")
	if err := hc.Drivers.Web.Click(hc.Ctx, sid, selector); err != nil {
		return err
	}
	hc.Log(runtime.LevelInfo, fmt.Sprintf("clicked %s", selector))
	return nil
}

func webInputHandler(hc *Context) error {
	if hc.Drivers.Web == nil {
		return ErrNoDriver
	}
	sid, err := hc.sessionID()
	if err != nil {
		return err
	}
	selector := hc.InterpString("selector")
	text := hc.InterpString("text")
	if err := hc.Drivers.Web.Input(hc.Ctx, sid, selector, text); err != nil {
		return err
	}
	hc.Log(runtime.LevelInfo, fmt.Sprintf("input into %s", selector))
	return nil
}

func webGetTextHandler(hc *Context) error {
	if hc.Drivers.Web == nil {
		return ErrNoDriver
	}
	sid, err := hc.sessionID()
	if err != nil {
		return err
	}
	selector := hc.InterpString("selector")
	text, err := hc.Drivers.Web.GetText(hc.Ctx, sid, selector)
	if err != nil {
		return err
	}
	hc.SetResultVariable("resultVariable", value.String(text))
	hc.Log(runtime.LevelInfo, fmt.Sprintf("read text from %s", selector))
	return nil
}

func closeBrowserHandler(hc *Context) error {
	if hc.Drivers.Web == nil {
		return ErrNoDriver
	}
	sid, err := hc.sessionID()
	if err != nil {
		return err
	}
	if err := hc.Drivers.Web.Close(hc.Ctx, sid); err != nil {
		return err
	}
	hc.Variables.Remove(hc.sessionVarName())
	hc.Log(runtime.LevelInfo, "closed browser session")
	return nil
}

func executeJsHandler(hc *Context) error {
	if hc.Drivers.Web == nil {
		return ErrNoDriver
	}
	sid, err := hc.sessionID()
	if err != nil {
		return err
	}
	script := hc.InterpString("script")
	result, err := hc.Drivers.Web.ExecuteJS(hc.Ctx, sid, script)
	if err != nil {
		return err
	}
	hc.SetResultVariable("resultVariable", value.String(result))
	hc.Log(runtime.LevelInfo, "executed JS")
	return nil
}

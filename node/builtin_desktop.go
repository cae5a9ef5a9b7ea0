package node

import (
	"fmt"
	"time"

	"github.com/rpaflow/engine/automation"
	"github.com/rpaflow/engine/runtime"
	"github.com/rpaflow/engine/value"
)

func registerDesktopHandlers(d *Dispatcher) {
	d.Register("click", HandlerFunc(clickHandler))
	d.Register("input", HandlerFunc(inputHandler))
	d.Register("getText", HandlerFunc(getTextHandler))
	d.Register("waitElement", HandlerFunc(waitElementHandler))
	d.Register("hotkey", HandlerFunc(hotkeyHandler))
	d.Register("screenshot", HandlerFunc(screenshotHandler))
	d.Register("openApp", HandlerFunc(openAppHandler))
}

func clickHandler(hc *Context) error {
	if hc.Drivers.Desktop == nil {
		return ErrNoDriver
	}
	element := hc.InterpString("element")
	clickType := automation.ClickType(hc.String("clickType"))
	if clickType == "" {
		clickType = automation.ClickSingle
	}
	if err := hc.Drivers.Desktop.Click(hc.Ctx, element, clickType); err != nil {
		return err
	}
	hc.Log(runtime.LevelInfo, fmt.Sprintf("clicked %s (%s)", element, clickType))
	return nil
}

func inputHandler(hc *Context) error {
	if hc.Drivers.Desktop == nil {
		return ErrNoDriver
	}
	element := hc.InterpString("element")
	text := hc.InterpString("text")
	method := automation.InputMethod(hc.String("method"))
	if method == "" {
		method = automation.InputType
	}
	if err := hc.Drivers.Desktop.Input(hc.Ctx, element, text, method); err != nil {
		return err
	}
	hc.Log(runtime.LevelInfo, fmt.Sprintf("input into %s", element))
	return nil
}

func getTextHandler(hc *Context) error {
	if hc.Drivers.Desktop == nil {
		return ErrNoDriver
	}
	element := hc.InterpString("element")
	text, err := hc.Drivers.Desktop.GetText(hc.Ctx, element)
	if err != nil {
		return err
	}
	hc.SetResultVariable("resultVariable", value.String(text))
	hc.Log(runtime.LevelInfo, fmt.Sprintf("read text from %s", element))
	return nil
}

func waitElementHandler(hc *Context) error {
	if hc.Drivers.Desktop == nil {
		return ErrNoDriver
	}
	locator := hc.InterpString("locator")
	timeoutMs, ok := hc.Number("timeoutMs")
	if !ok || timeoutMs <= 0 {
		timeoutMs = 5000
	}
	el, err := hc.Drivers.Desktop.WaitElement(hc.Ctx, locator, time.Duration(timeoutMs)*time.Millisecond)
	if err != nil {
		return err
	}
	hc.SetResultVariable("resultVariable", value.String(el.ID))
	hc.Log(runtime.LevelInfo, fmt.Sprintf("found element %s", locator))
	return nil
}

func hotkeyHandler(hc *Context) error {
	if hc.Drivers.Desktop == nil {
		return ErrNoDriver
	}
	keys := hc.InterpString("keys")
	if err := hc.Drivers.Desktop.Hotkey(hc.Ctx, keys); err != nil {
		return err
	}
	hc.Log(runtime.LevelInfo, fmt.Sprintf("sent hotkey %s", keys))
	return nil
}

func screenshotHandler(hc *Context) error {
	if hc.Drivers.Desktop == nil {
		return ErrNoDriver
	}
	_, err := hc.Drivers.Desktop.Screenshot(hc.Ctx, nil)
	if err != nil {
		return err
	}
	hc.Log(runtime.LevelInfo, "captured screenshot")
	return nil
}

func openAppHandler(hc *Context) error {
	if hc.Drivers.Desktop == nil {
		return ErrNoDriver
	}
	path := hc.InterpString("path")
	if err := hc.Drivers.Desktop.OpenApp(hc.Ctx, path, nil); err != nil {
		return err
	}
	hc.Log(runtime.LevelInfo, fmt.Sprintf("opened app %s", path))
	return nil
}

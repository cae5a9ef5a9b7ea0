package node

import (
	"fmt"
	"time"

	"github.com/rpaflow/engine/runtime"
)

// delayHandler suspends the traversal for "delay" milliseconds (spec.md
// §4.3 "Timing"; §5 "suspension points: ... on delay nodes").
func delayHandler(hc *Context) error {
	ms, _ := hc.Number("delay")
	if ms < 0 {
		ms = 0
	}
	d := time.Duration(ms) * time.Millisecond

	select {
	case <-hc.Ctx.Done():
		return hc.Ctx.Err()
	case <-time.After(d):
	}

	hc.Log(runtime.LevelDebug, fmt.Sprintf("delayed %dms", int64(ms)))
	return nil
}

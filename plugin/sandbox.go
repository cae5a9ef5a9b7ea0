package plugin

// AllowedPackages lists the standard library packages a plugin script may
// import; anything else is rejected during source validation (spec.md
// §4.5 "Security posture" — the engine restricts the host API surface,
// not the interpreter's general capabilities, but a default import
// allowlist still keeps accidental footguns out of ordinary plugins).
var AllowedPackages = map[string]bool{
	"fmt":             true,
	"strings":         true,
	"strconv":         true,
	"encoding/json":   true,
	"encoding/base64": true,
	"context":         true,
	"time":            true,
	"math":            true,
	"sort":            true,
	"errors":          true,
	"bytes":           true,
	"unicode":         true,
	"unicode/utf8":    true,
	"regexp":          true,
}

// BlockedPackages is always rejected, even if later added to
// AllowedPackages by mistake.
var BlockedPackages = map[string]bool{
	"os/exec":       true,
	"syscall":       true,
	"unsafe":        true,
	"plugin":        true,
	"runtime/debug": true,
	"net":           true,
}

// IsPackageAllowed reports whether pkg may be imported by a plugin script.
// The plugin SDK's own import path is always allowed — it is how scripts
// construct Record/NodeDef/Host values.
func IsPackageAllowed(pkg string) bool {
	if pkg == sdkImportPath {
		return true
	}
	if BlockedPackages[pkg] {
		return false
	}
	return AllowedPackages[pkg]
}

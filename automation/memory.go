package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MemoryDesktop is a minimal in-memory DesktopAutomation stand-in used by
// tests and dry runs. It records every call and lets the test pre-seed
// element text, grounded on the teacher's InMemoryMessageBroker pattern
// (module/memory_broker.go): a small, mutex-guarded in-memory fake that
// satisfies the real capability interface.
type MemoryDesktop struct {
	mu       sync.Mutex
	Calls    []string
	ElemText map[string]string
}

func NewMemoryDesktop() *MemoryDesktop {
	return &MemoryDesktop{ElemText: make(map[string]string)}
}

func (m *MemoryDesktop) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func (m *MemoryDesktop) Click(_ context.Context, element string, clickType ClickType) error {
	m.record(fmt.Sprintf("click(%s,%s)", element, clickType))
	return nil
}

func (m *MemoryDesktop) Input(_ context.Context, element, text string, method InputMethod) error {
	m.record(fmt.Sprintf("input(%s,%s,%s)", element, text, method))
	return nil
}

func (m *MemoryDesktop) GetText(_ context.Context, element string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if text, ok := m.ElemText[element]; ok {
		return text, nil
	}
	return "", NewAutomationError(ErrElementNotFound, element)
}

func (m *MemoryDesktop) GetAttribute(_ context.Context, element, name string) (string, error) {
	return "", nil
}

func (m *MemoryDesktop) WaitElement(ctx context.Context, locator string, timeout time.Duration) (Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		m.mu.Lock()
		_, ok := m.ElemText[locator]
		m.mu.Unlock()
		if ok {
			return Element{ID: locator}, nil
		}
		if time.Now().After(deadline) {
			return Element{}, NewAutomationError(ErrTimeout, "waitElement: "+locator)
		}
		select {
		case <-ctx.Done():
			return Element{}, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (m *MemoryDesktop) CaptureElement(_ context.Context, x, y float64) (Element, error) {
	return Element{ID: fmt.Sprintf("%.0f,%.0f", x, y)}, nil
}

func (m *MemoryDesktop) Screenshot(_ context.Context, _ *Rect) ([]byte, error) {
	return []byte{}, nil
}

func (m *MemoryDesktop) Hotkey(_ context.Context, keys string) error {
	m.record("hotkey(" + keys + ")")
	return nil
}

func (m *MemoryDesktop) OpenApp(_ context.Context, path string, args []string) error {
	m.record("openApp(" + path + ")")
	return nil
}

// OSFileSystem implements FileSystem against the host filesystem for
// readFile/writeFile/listDirectory. Excel operations return ExecutionFailed
// since no spreadsheet codec is wired (it is explicitly out of scope,
// spec.md §1); callers needing Excel support provide their own FileSystem.
type OSFileSystem struct{}

func (OSFileSystem) ReadFile(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewAutomationError(ErrExecutionFailed, err.Error())
	}
	return data, nil
}

func (OSFileSystem) WriteFile(_ context.Context, path string, data []byte, appendMode bool) error {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return NewAutomationError(ErrExecutionFailed, err.Error())
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return NewAutomationError(ErrExecutionFailed, err.Error())
	}
	return nil
}

func (OSFileSystem) CopyFile(_ context.Context, src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return NewAutomationError(ErrExecutionFailed, err.Error())
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return NewAutomationError(ErrExecutionFailed, err.Error())
	}
	return nil
}

func (OSFileSystem) MoveFile(_ context.Context, src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return NewAutomationError(ErrExecutionFailed, err.Error())
	}
	return nil
}

func (OSFileSystem) DeleteFile(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		return NewAutomationError(ErrExecutionFailed, err.Error())
	}
	return nil
}

func (OSFileSystem) CreateDirectory(_ context.Context, path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return NewAutomationError(ErrExecutionFailed, err.Error())
	}
	return nil
}

func (OSFileSystem) ListFiles(_ context.Context, dir string, recursive, showHidden bool) ([]DirEntry, error) {
	var entries []DirEntry

	var walk func(path string) error
	walk = func(path string) error {
		items, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		for _, item := range items {
			if !showHidden && len(item.Name()) > 0 && item.Name()[0] == '.' {
				continue
			}
			entries = append(entries, DirEntry{Name: item.Name(), IsDir: item.IsDir()})
			if recursive && item.IsDir() {
				if err := walk(filepath.Join(path, item.Name())); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(dir); err != nil {
		return nil, NewAutomationError(ErrExecutionFailed, err.Error())
	}

	// spec.md §4.3: entries sorted directories-first then name-ascending.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

func (OSFileSystem) FileExists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, NewAutomationError(ErrExecutionFailed, err.Error())
}

func (OSFileSystem) ReadExcel(_ context.Context, path string) ([]ExcelSheet, error) {
	return nil, NewAutomationError(ErrExecutionFailed, "excel codec not wired (out of scope, spec.md §1)")
}

func (OSFileSystem) ReadExcelSheet(_ context.Context, path, sheet string) (ExcelSheet, error) {
	return ExcelSheet{}, NewAutomationError(ErrExecutionFailed, "excel codec not wired (out of scope, spec.md §1)")
}

func (OSFileSystem) ReadExcelCell(_ context.Context, path, sheet string, row, col int) (string, error) {
	return "", NewAutomationError(ErrExecutionFailed, "excel codec not wired (out of scope, spec.md §1)")
}

func (OSFileSystem) WriteExcel(_ context.Context, path string, sheets []ExcelSheet) error {
	return NewAutomationError(ErrExecutionFailed, "excel codec not wired (out of scope, spec.md §1)")
}

func (OSFileSystem) WriteExcelSheet(_ context.Context, path, sheet string, rows [][]string) error {
	return NewAutomationError(ErrExecutionFailed, "excel codec not wired (out of scope, spec.md §1)")
}

func (OSFileSystem) GetExcelSheetNames(_ context.Context, path string) ([]string, error) {
	return nil, NewAutomationError(ErrExecutionFailed, "excel codec not wired (out of scope, spec.md §1)")
}

// OSShell implements Shell via os/exec.
type OSShell struct{}

func (OSShell) ExecuteCommand(ctx context.Context, argv []string, dir string) (string, string, error) {
	return execCommand(ctx, argv, dir)
}

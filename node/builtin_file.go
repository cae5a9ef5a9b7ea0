package node

import (
	"fmt"

	"github.com/rpaflow/engine/automation"
	"github.com/rpaflow/engine/runtime"
	"github.com/rpaflow/engine/value"
)

func registerFileHandlers(d *Dispatcher) {
	d.Register("readFile", HandlerFunc(readFileHandler))
	d.Register("writeFile", HandlerFunc(writeFileHandler))
	d.Register("readExcel", HandlerFunc(readExcelHandler))
	d.Register("writeExcel", HandlerFunc(writeExcelHandler))
	d.Register("listDirectory", HandlerFunc(listDirectoryHandler))
}

func readFileHandler(hc *Context) error {
	if hc.Drivers.Files == nil {
		return ErrNoDriver
	}
	path := hc.InterpString("path")
	data, err := hc.Drivers.Files.ReadFile(hc.Ctx, path)
	if err != nil {
		return err
	}
	hc.SetResultVariable("resultVariable", value.String(string(data)))
	hc.Log(runtime.LevelInfo, fmt.Sprintf("read file %s", path))
	return nil
}

// writeFileHandler implements spec.md §4.3: mode in {overwrite, append};
// append reads existing content then concatenates.
func writeFileHandler(hc *Context) error {
	if hc.Drivers.Files == nil {
		return ErrNoDriver
	}
	path := hc.InterpString("path")
	content := hc.InterpString("content")
	mode := hc.String("mode")

	if err := hc.Drivers.Files.WriteFile(hc.Ctx, path, []byte(content), mode == "append"); err != nil {
		return err
	}
	hc.Log(runtime.LevelInfo, fmt.Sprintf("wrote file %s (%s)", path, modeOrDefault(mode)))
	return nil
}

func modeOrDefault(mode string) string {
	if mode == "" {
		return "overwrite"
	}
	return mode
}

// readExcelHandler implements spec.md §4.3: modes {"all", "cell"}.
func readExcelHandler(hc *Context) error {
	if hc.Drivers.Files == nil {
		return ErrNoDriver
	}
	path := hc.InterpString("path")
	mode := hc.String("mode")

	switch mode {
	case "cell":
		sheet := hc.String("sheet")
		row, _ := hc.Number("row")
		col, _ := hc.Number("col")
		cell, err := hc.Drivers.Files.ReadExcelCell(hc.Ctx, path, sheet, int(row), int(col))
		if err != nil {
			return err
		}
		hc.SetResultVariable("resultVariable", value.String(cell))
	default:
		sheetName := hc.String("sheet")
		if sheetName != "" {
			sheet, err := hc.Drivers.Files.ReadExcelSheet(hc.Ctx, path, sheetName)
			if err != nil {
				return err
			}
			hc.SetResultVariable("resultVariable", excelSheetToValue(sheet))
		} else {
			sheets, err := hc.Drivers.Files.ReadExcel(hc.Ctx, path)
			if err != nil {
				return err
			}
			hc.SetResultVariable("resultVariable", excelSheetsToValue(sheets))
		}
	}

	hc.Log(runtime.LevelInfo, fmt.Sprintf("read excel %s", path))
	return nil
}

func excelSheetToValue(sheet automation.ExcelSheet) value.Value {
	rows := make([]value.Value, len(sheet.Rows))
	for i, row := range sheet.Rows {
		cells := make([]value.Value, len(row))
		for j, c := range row {
			cells[j] = value.String(c)
		}
		rows[i] = value.List(cells)
	}
	return value.Dict(map[string]value.Value{
		"name": value.String(sheet.Name),
		"rows": value.List(rows),
	})
}

func excelSheetsToValue(sheets []automation.ExcelSheet) value.Value {
	out := make([]value.Value, len(sheets))
	for i, s := range sheets {
		out[i] = excelSheetToValue(s)
	}
	return value.List(out)
}

// writeExcelHandler implements spec.md §4.3 for the 2-D array form only:
// it reads a 2-D array from the "rows" data field. Structured ExcelData
// JSON and array-of-objects inputs are not accepted.
func writeExcelHandler(hc *Context) error {
	if hc.Drivers.Files == nil {
		return ErrNoDriver
	}
	path := hc.InterpString("path")
	sheet := hc.String("sheet")
	if sheet == "" {
		sheet = "Sheet1"
	}

	rawRows, _ := hc.Data["rows"].([]any)
	rows := make([][]string, len(rawRows))
	for i, rawRow := range rawRows {
		cells, _ := rawRow.([]any)
		row := make([]string, len(cells))
		for j, c := range cells {
			row[j] = fmt.Sprintf("%v", c)
		}
		rows[i] = row
	}

	if err := hc.Drivers.Files.WriteExcelSheet(hc.Ctx, path, sheet, rows); err != nil {
		return err
	}
	hc.Log(runtime.LevelInfo, fmt.Sprintf("wrote excel %s", path))
	return nil
}

func listDirectoryHandler(hc *Context) error {
	if hc.Drivers.Files == nil {
		return ErrNoDriver
	}
	dir := hc.InterpString("path")
	recursive := hc.Bool("recursive")
	showHidden := hc.Bool("showHidden")

	entries, err := hc.Drivers.Files.ListFiles(hc.Ctx, dir, recursive, showHidden)
	if err != nil {
		return err
	}

	items := make([]value.Value, len(entries))
	for i, e := range entries {
		items[i] = value.Dict(map[string]value.Value{
			"name":  value.String(e.Name),
			"isDir": value.Bool(e.IsDir),
		})
	}
	hc.SetResultVariable("resultVariable", value.List(items))
	hc.Log(runtime.LevelInfo, fmt.Sprintf("listed directory %s (%d entries)", dir, len(entries)))
	return nil
}

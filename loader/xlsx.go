package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXLoader renders each sheet as a pipe-delimited table segment with the
// sheet name as section provenance.
type XLSXLoader struct{}

func (l *XLSXLoader) Extensions() []string { return []string{"xlsx"} }

func (l *XLSXLoader) Load(ctx context.Context, path string) (*Loaded, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	out := &Loaded{
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		MIME:  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}

	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		var content strings.Builder
		for _, row := range rows {
			content.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
		out.Segments = append(out.Segments, Segment{Text: content.String(), Section: sheet})
	}
	if len(out.Segments) == 0 {
		return nil, fmt.Errorf("no data found in XLSX")
	}
	return out, nil
}

package sheet

import (
	"fmt"
	"io"

	"github.com/warp/bono-engine/bonus"
	"github.com/warp/bono-engine/roster"
	"github.com/xuri/excelize/v2"
)

// Sheet names and the default download name of the payout workbook.
const (
	SheetPayouts  = "BONO"
	SheetLots     = "LOTES"
	SheetSummary  = "RESUMEN"
	SheetNotFound = "NO ENCONTRADOS"

	DefaultFileName = "bono_reproductoras_final.xlsx"
)

// Column header prefixes for the per-lot columns.
const (
	prefixParticipation = "%_"
	prefixAbsences      = "F_"
	prefixPayout        = "PAGO_"
	headerTotal         = "TOTAL S/"
)

// unparsedAbsencesText is written where the absence input was unusable.
const unparsedAbsencesText = "INVALIDO"

// numFmtMoney is the built-in "#,##0.00" format.
const numFmtMoney = 4

// PayoutHeaders returns the header row of the BONO sheet for lots.
func PayoutHeaders(lots []bonus.Lot) []string {
	h := []string{"DNI", "NOMBRE COMPLETO", "CARGO", "ESTADO"}
	for _, l := range lots {
		h = append(h, prefixParticipation+string(l.ID))
	}
	for _, l := range lots {
		h = append(h, prefixAbsences+string(l.ID))
	}
	for _, l := range lots {
		h = append(h, prefixPayout+string(l.ID))
	}
	return append(h, headerTotal)
}

// BuildWorkbook lays out the payout table as a workbook with four sheets.
func BuildWorkbook(t *bonus.Table, stats roster.JoinStats) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetPayouts); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetLots, SheetSummary, SheetNotFound} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtMoney})
	if err != nil {
		f.Close()
		return nil, err
	}

	w := &workbookWriter{f: f, header: headerStyle, money: moneyStyle}
	w.payouts(t)
	w.lots(t)
	w.summary(t, stats)
	w.notFound(t)
	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	return f, nil
}

// WritePayouts builds the workbook and writes it to out.
func WritePayouts(out io.Writer, t *bonus.Table, stats roster.JoinStats) error {
	f, err := BuildWorkbook(t, stats)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// =============================================================================
// SHEET WRITERS
// =============================================================================

// workbookWriter keeps the first error so sheet code reads top to bottom.
type workbookWriter struct {
	f      *excelize.File
	header int
	money  int
	err    error
}

func (w *workbookWriter) row(sheet string, rowNum int, values []any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &values)
}

func (w *workbookWriter) headerRow(sheet string, headers []string) {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	w.row(sheet, 1, values)
	if w.err == nil {
		w.err = w.f.SetRowStyle(sheet, 1, 1, w.header)
	}
}

func (w *workbookWriter) moneyColumns(sheet string, fromCol, toCol, lastRow int) {
	if w.err != nil || fromCol > toCol || lastRow < 2 {
		return
	}
	from, err := excelize.CoordinatesToCellName(fromCol, 2)
	if err != nil {
		w.err = err
		return
	}
	to, err := excelize.CoordinatesToCellName(toCol, lastRow)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(sheet, from, to, w.money)
}

func (w *workbookWriter) widths(sheet string, widths map[string]float64) {
	for col, width := range widths {
		if w.err != nil {
			return
		}
		w.err = w.f.SetColWidth(sheet, col, col, width)
	}
}

func (w *workbookWriter) payouts(t *bonus.Table) {
	headers := PayoutHeaders(t.Lots)
	w.headerRow(SheetPayouts, headers)

	n := len(t.Lots)
	for i, r := range t.Rows {
		values := make([]any, 0, len(headers))
		values = append(values, string(r.Worker.ID), r.Worker.Name, r.Worker.Role, string(r.Worker.Status))
		if !r.Worker.ID.IsValid() {
			values[0] = r.Worker.RawID
		}
		for _, c := range r.Cells {
			values = append(values, c.Participation.InexactFloat64())
		}
		for _, c := range r.Cells {
			if c.Absences == bonus.UnparsedAbsences {
				values = append(values, unparsedAbsencesText)
				continue
			}
			values = append(values, c.Absences)
		}
		for _, c := range r.Cells {
			values = append(values, c.Amount.InexactFloat64())
		}
		values = append(values, r.Total.InexactFloat64())
		w.row(SheetPayouts, i+2, values)
	}

	totalRow := len(t.Rows) + 2
	totals := make([]any, 4+2*n, len(headers))
	totals[0] = "TOTAL"
	for _, lt := range t.LotTotals {
		totals = append(totals, lt.InexactFloat64())
	}
	totals = append(totals, t.GrandTotal.InexactFloat64())
	w.row(SheetPayouts, totalRow, totals)
	if w.err == nil {
		w.err = w.f.SetRowStyle(SheetPayouts, totalRow, totalRow, w.header)
	}

	w.moneyColumns(SheetPayouts, 5+2*n, 5+3*n, totalRow)
	w.widths(SheetPayouts, map[string]float64{"A": 12, "B": 36, "C": 22, "D": 12})
}

func (w *workbookWriter) lots(t *bonus.Table) {
	w.headerRow(SheetLots, []string{"LOTE", "GENETICA", "MONTO S/", "PAGADO S/"})
	for i, l := range t.Lots {
		w.row(SheetLots, i+2, []any{string(l.ID), l.Genetics, l.Budget.InexactFloat64(), t.LotTotals[i].InexactFloat64()})
	}
	w.moneyColumns(SheetLots, 3, 4, len(t.Lots)+1)
	w.widths(SheetLots, map[string]float64{"A": 10, "B": 16, "C": 14, "D": 14})
}

func (w *workbookWriter) summary(t *bonus.Table, stats roster.JoinStats) {
	w.headerRow(SheetSummary, []string{"CONCEPTO", "VALOR"})
	lines := [][]any{
		{"TIPO DE PROCESO", string(t.Process)},
		{"TRABAJADORES SOLICITADOS", stats.Requesters},
		{"ENCONTRADOS", stats.Found},
		{"NO ENCONTRADOS", stats.NotFound},
		{"DNI INVALIDOS", stats.InvalidIDs},
		{"FILAS EN BASE", stats.RosterRows},
		{"DUPLICADOS EN BASE", stats.RosterDuplicates},
		{"CARGOS SIN REGLA", t.Report.UnknownRoles},
		{"CELDAS CON % FUERA DE RANGO", t.Report.ClampedCells},
		{"CELDAS CON FALTAS INVALIDAS", t.Report.UnparsedAbsences},
		{"TOTAL S/", t.GrandTotal.InexactFloat64()},
	}
	for i, l := range lines {
		w.row(SheetSummary, i+2, l)
	}
	w.widths(SheetSummary, map[string]float64{"A": 32, "B": 16})
}

func (w *workbookWriter) notFound(t *bonus.Table) {
	w.headerRow(SheetNotFound, []string{"FILA", "DNI ORIGINAL", "DNI NORMALIZADO"})
	n := 2
	for _, r := range t.Rows {
		if r.Worker.Found() {
			continue
		}
		line := r.Worker.Line
		if line == 0 {
			line = r.Worker.Row + 2
		}
		w.row(SheetNotFound, n, []any{line, r.Worker.RawID, string(r.Worker.ID)})
		n++
	}
	w.widths(SheetNotFound, map[string]float64{"A": 8, "B": 18, "C": 18})
}

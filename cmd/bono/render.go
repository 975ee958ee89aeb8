package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/warp/bono-engine/bonus"
	"github.com/warp/bono-engine/roster"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	moneyStyle  = cellStyle.Align(lipgloss.Right)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderTable draws rows under headers. Columns listed in right are
// right-aligned.
func renderTable(headers []string, rows [][]string, right map[int]bool) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return moneyStyle
			}
			return cellStyle
		}).
		Render()
}

func printStats(w io.Writer, s roster.JoinStats) {
	fmt.Fprintln(w, titleStyle.Render("Cruce con la base"))
	fmt.Fprint(w, renderTable(
		[]string{"CONCEPTO", "VALOR"},
		[][]string{
			{"Solicitantes", fmt.Sprint(s.Requesters)},
			{"Encontrados", fmt.Sprint(s.Found)},
			{"No encontrados", fmt.Sprint(s.NotFound)},
			{"DNI inválidos", fmt.Sprint(s.InvalidIDs)},
			{"Filas en base", fmt.Sprint(s.RosterRows)},
			{"Duplicados en base", fmt.Sprint(s.RosterDuplicates)},
			{"DNI inválidos en base", fmt.Sprint(s.RosterInvalid)},
		},
		map[int]bool{1: true},
	))
	fmt.Fprintln(w)
}

func printWorkers(w io.Writer, rows []roster.JoinedRow) {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{fmt.Sprint(i + 1), r.RawID, string(r.ID), r.Name, r.Role, string(r.Status)}
	}
	fmt.Fprint(w, renderTable([]string{"#", "DNI ORIGINAL", "DNI", "NOMBRE COMPLETO", "CARGO", "ESTADO"}, out, nil))
	fmt.Fprintln(w)
}

// printPayouts renders the BONO sheet layout: DNI, name, role, one payout
// column per lot and the row total.
func printPayouts(w io.Writer, t *bonus.Table) {
	headers := []string{"DNI", "NOMBRE COMPLETO", "CARGO"}
	right := map[int]bool{}
	for _, l := range t.Lots {
		right[len(headers)] = true
		headers = append(headers, "PAGO_"+string(l.ID))
	}
	right[len(headers)] = true
	headers = append(headers, "TOTAL S/")

	rows := make([][]string, 0, len(t.Rows)+1)
	for _, r := range t.Rows {
		row := []string{string(r.Worker.ID), r.Worker.Name, r.Worker.Role}
		for _, c := range r.Cells {
			row = append(row, c.Amount.StringFixed(2))
		}
		rows = append(rows, append(row, r.Total.StringFixed(2)))
	}
	totals := []string{"TOTAL", "", ""}
	for _, lt := range t.LotTotals {
		totals = append(totals, lt.StringFixed(2))
	}
	rows = append(rows, append(totals, t.GrandTotal.StringFixed(2)))

	fmt.Fprintln(w, titleStyle.Render("Bono "+string(t.Process)))
	fmt.Fprint(w, renderTable(headers, rows, right))
	fmt.Fprintln(w)

	rep := t.Report
	if rep.UnknownRoles+rep.ClampedCells+rep.UnparsedAbsences+rep.NotFoundRows > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf(
			"Avisos: %d no encontrados, %d cargos sin regla, %d %% fuera de rango, %d faltas inválidas",
			rep.NotFoundRows, rep.UnknownRoles, rep.ClampedCells, rep.UnparsedAbsences,
		)))
	}
}

func printRoles(w io.Writer, p bonus.ProcessType) {
	roles := bonus.RolesFor(p)
	names := roles.Roles()
	rows := make([][]string, len(names))
	for i, n := range names {
		s, _ := roles.Share(n)
		rows[i] = []string{n, s.StringFixed(4)}
	}
	fmt.Fprintln(w, titleStyle.Render("Participación por cargo, "+string(p)))
	fmt.Fprint(w, renderTable([]string{"CARGO", "PARTICIPACIÓN"}, rows, map[int]bool{1: true}))
	fmt.Fprintln(w)
}

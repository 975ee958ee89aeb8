package bonus

import (
	"github.com/shopspring/decimal"
	"github.com/warp/bono-engine/roster"
)

// =============================================================================
// PAYOUT TABLE
// =============================================================================

// Cell is one computed (worker, lot) payout with the inputs that produced it.
type Cell struct {
	Lot           LotID
	Participation decimal.Decimal // after clamping
	Absences      int
	Factor        decimal.Decimal
	Amount        decimal.Decimal
}

// Row is one worker with one cell per configured lot, in lot order.
type Row struct {
	Worker roster.JoinedRow
	Share  decimal.Decimal
	Cells  []Cell
	Total  decimal.Decimal
}

// Amount returns the payout for lot, or zero if the lot is not configured.
func (r Row) Amount(lot LotID) decimal.Decimal {
	for _, c := range r.Cells {
		if c.Lot == lot {
			return c.Amount
		}
	}
	return decimal.Zero
}

// Report counts data-quality events seen while computing. None of them stop
// the computation.
type Report struct {
	Cells            int `json:"cells"`
	PaidCells        int `json:"paid_cells"`
	ClampedCells     int `json:"clamped_cells"`
	UnparsedAbsences int `json:"unparsed_absences"`
	UnknownRoles     int `json:"unknown_roles"`
	NotFoundRows     int `json:"not_found_rows"`
}

// Table is the full payout matrix. Rows keep the joined-row order and count.
type Table struct {
	Process    ProcessType
	Lots       []Lot
	Rows       []Row
	LotTotals  []decimal.Decimal // aligned with Lots
	GrandTotal decimal.Decimal
	Report     Report
}

// ComputeTable derives every (row, lot) payout independently and sums the
// per-row totals. Participation is keyed by position in workers. Rows with
// no participation stay in the table with zero payouts.
func ComputeTable(process ProcessType, workers []roster.JoinedRow, lots []Lot, part Participation, roles RoleTable) *Table {
	t := &Table{
		Process:    process,
		Lots:       append([]Lot(nil), lots...),
		Rows:       make([]Row, len(workers)),
		LotTotals:  make([]decimal.Decimal, len(lots)),
		GrandTotal: decimal.Zero,
	}
	for j := range t.LotTotals {
		t.LotTotals[j] = decimal.Zero
	}

	for i, w := range workers {
		s, known := roles.Share(w.Role)
		if !w.Found() {
			t.Report.NotFoundRows++
		} else if !known {
			t.Report.UnknownRoles++
		}

		row := Row{Worker: w, Share: s, Cells: make([]Cell, len(lots)), Total: decimal.Zero}
		for j, lot := range lots {
			e := part.Get(i, lot.ID)
			pct, clamped := ClampParticipation(e.Participation)
			if clamped {
				t.Report.ClampedCells++
			}
			if e.Absences == UnparsedAbsences {
				t.Report.UnparsedAbsences++
			}

			amount := roles.Payout(w.Role, lot.Budget, e.Participation, e.Absences)
			row.Cells[j] = Cell{
				Lot:           lot.ID,
				Participation: pct,
				Absences:      e.Absences,
				Factor:        AbsenceFactor(e.Absences),
				Amount:        amount,
			}
			row.Total = row.Total.Add(amount)
			t.LotTotals[j] = t.LotTotals[j].Add(amount)

			t.Report.Cells++
			if amount.IsPositive() {
				t.Report.PaidCells++
			}
		}
		t.GrandTotal = t.GrandTotal.Add(row.Total)
		t.Rows[i] = row
	}
	return t
}

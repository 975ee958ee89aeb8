package bonus_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/bono-engine/bonus"
	"github.com/warp/bono-engine/roster"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

func worker(id, role string) roster.JoinedRow {
	return roster.JoinedRow{ID: roster.ID(id), Name: "W " + id, Role: role, Status: roster.StatusFound}
}

var roles = bonus.RolesFor(bonus.ProcessProduction)

// =============================================================================
// ABSENCE CURVE
// =============================================================================

func TestAbsenceFactor_Curve(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "1.00"}, {1, "0.90"}, {2, "0.80"}, {3, "0.70"}, {4, "0.60"},
		{5, "0.50"}, {99, "0.50"}, {-1, "0.50"}, {bonus.UnparsedAbsences, "0.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bonus.AbsenceFactor(tt.n).StringFixed(2), "absences=%d", tt.n)
	}
}

func TestAbsenceFactorOf_Strings(t *testing.T) {
	assert.Equal(t, "0.50", bonus.AbsenceFactorOf("x").StringFixed(2))
	assert.Equal(t, "0.80", bonus.AbsenceFactorOf("2").StringFixed(2))
	assert.Equal(t, "0.80", bonus.AbsenceFactorOf(" 2.0 ").StringFixed(2))
	assert.Equal(t, "0.50", bonus.AbsenceFactorOf("2.5").StringFixed(2))
	assert.Equal(t, "0.50", bonus.AbsenceFactorOf("-3").StringFixed(2))
	assert.Equal(t, "1.00", bonus.AbsenceFactorOf("").StringFixed(2))
}

// =============================================================================
// PARSE OR DEFAULT
// =============================================================================

func TestParsePercent(t *testing.T) {
	tests := []struct {
		raw       string
		want      string
		defaulted bool
	}{
		{"50", "50", false},
		{" 12.5 ", "12.5", false},
		{"12,5", "12.5", false},
		{"75%", "75", false},
		{"", "0", false},
		{"abc", "0", true},
		{"nan", "0", true},
		{"1e2", "100", false},
		{"1e2000000000", "0", true},
		{"1e-2000000000", "0", true},
	}
	for _, tt := range tests {
		got, defaulted := bonus.ParsePercent(tt.raw)
		assert.True(t, d(tt.want).Equal(got), "raw=%q got=%s", tt.raw, got)
		assert.Equal(t, tt.defaulted, defaulted, "raw=%q", tt.raw)
	}
}

func TestParseAbsences(t *testing.T) {
	tests := []struct {
		raw       string
		want      int
		defaulted bool
	}{
		{"0", 0, false},
		{"3", 3, false},
		{"4.0", 4, false},
		{"", 0, false},
		{"x", bonus.UnparsedAbsences, true},
		{"1.5", bonus.UnparsedAbsences, true},
		{"-2", bonus.UnparsedAbsences, true},
		{"1e2000000000", bonus.UnparsedAbsences, true},
		{"1e-2000000000", bonus.UnparsedAbsences, true},
	}
	for _, tt := range tests {
		got, defaulted := bonus.ParseAbsences(tt.raw)
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
		assert.Equal(t, tt.defaulted, defaulted, "raw=%q", tt.raw)
	}
}

func TestParseDecimal_ExponentWindow(t *testing.T) {
	got, err := bonus.ParseDecimal(" 1.5E3 ")
	require.NoError(t, err)
	assertMoney(t, "1500.00", got)

	for _, raw := range []string{"1e13", "1e-13", "1e2000000000", "1e-2000000000"} {
		_, err := bonus.ParseDecimal(raw)
		assert.ErrorIs(t, err, bonus.ErrNumberOutOfRange, "raw=%q", raw)
	}
}

func TestPayout_HugeExponentCellDegrades(t *testing.T) {
	// GIVEN: a participation cell typed with an absurd exponent
	pct, defaulted := bonus.ParsePercent("1e-2000000000")

	// THEN: it degrades to 0% and the payout returns promptly
	assert.True(t, defaulted)
	done := make(chan decimal.Decimal, 1)
	go func() { done <- roles.Payout("GALPONERO", d("1000"), pct, 0) }()
	select {
	case got := <-done:
		assertMoney(t, "0.00", got)
	case <-time.After(2 * time.Second):
		t.Fatal("payout did not return")
	}
}

func TestParseCountOr_HugeValueCapped(t *testing.T) {
	n, defaulted := bonus.ParseCountOr("99999999999999999999", 0)
	assert.False(t, defaulted)
	assert.Equal(t, 1<<30, n)
}

// =============================================================================
// ROLE TABLE
// =============================================================================

func TestRoleTable_Share(t *testing.T) {
	s, ok := roles.Share("  galponero ")
	assert.True(t, ok)
	assertMoney(t, "1.00", s)

	s, ok = roles.Share("Ayudante   Galponero")
	assert.True(t, ok)
	assert.Equal(t, "0.125", s.String())

	s, ok = roles.Share("UNKNOWN ROLE")
	assert.False(t, ok)
	assert.True(t, s.IsZero())
}

func TestRolesFor_ProcessTypesAgree(t *testing.T) {
	prod := bonus.RolesFor(bonus.ProcessProduction)
	rear := bonus.RolesFor(bonus.ProcessRearing)
	require.Equal(t, len(prod), len(rear))
	for k, v := range prod {
		assert.True(t, v.Equal(rear[k]), "role %s", k)
	}
}

func TestRolesFor_ReturnsCopy(t *testing.T) {
	a := bonus.RolesFor(bonus.ProcessProduction)
	a["GALPONERO"] = decimal.Zero

	b := bonus.RolesFor(bonus.ProcessProduction)
	assertMoney(t, "1.00", b["GALPONERO"])
}

func TestRoleTable_RolesOrdered(t *testing.T) {
	names := roles.Roles()
	require.Len(t, names, 11)
	assert.Equal(t, "GALPONERO", names[0])
	assert.Equal(t, "SUPERVISOR", names[1])
	assert.Equal(t, "MANTENIMIENTO", names[len(names)-1])
}

func TestParseProcessType(t *testing.T) {
	p, err := bonus.ParseProcessType("Producción")
	require.NoError(t, err)
	assert.Equal(t, bonus.ProcessProduction, p)

	p, err = bonus.ParseProcessType(" levante ")
	require.NoError(t, err)
	assert.Equal(t, bonus.ProcessRearing, p)

	p, err = bonus.ParseProcessType("")
	require.NoError(t, err)
	assert.Equal(t, bonus.ProcessProduction, p)

	_, err = bonus.ParseProcessType("ENGORDE")
	assert.ErrorIs(t, err, bonus.ErrUnknownProcess)
}

// =============================================================================
// PAYOUT
// =============================================================================

func TestPayout_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		budget   string
		pct      string
		absences int
		want     string
	}{
		{"full share half participation", "GALPONERO", "1000", "50", 0, "500.00"},
		{"two absences", "GALPONERO", "1000", "50", 2, "400.00"},
		{"zero share role", "MANTENIMIENTO", "1000", "100", 0, "0.00"},
		{"unknown role", "UNKNOWN ROLE", "1000", "50", 0, "0.00"},
		{"zero participation", "GALPONERO", "1000", "0", 0, "0.00"},
		{"negative participation", "GALPONERO", "1000", "-5", 3, "0.00"},
		{"zero participation ignores bad absences", "GALPONERO", "1000", "0", bonus.UnparsedAbsences, "0.00"},
		{"unparsed absences take fallback", "GALPONERO", "1000", "100", bonus.UnparsedAbsences, "500.00"},
		{"participation over 100 clamped", "SUPERVISOR", "800", "150", 0, "800.00"},
		{"fractional share rounds half up", "VACUNADORES", "1000.50", "33.3", 1, "20.99"},
		{"half cent rounds up", "CAPORAL", "1", "100", 0, "0.13"},
		{"below half cent rounds down", "BIOSEGURIDAD", "1", "100", 0, "0.06"},
		{"negative budget", "GALPONERO", "-10", "50", 0, "0.00"},
		{"five absences", "CAPORAL", "2000", "80", 5, "100.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roles.Payout(tt.role, d(tt.budget), d(tt.pct), tt.absences)
			assertMoney(t, tt.want, got)
			assert.False(t, got.IsNegative())
		})
	}
}

func TestClampParticipation(t *testing.T) {
	v, clamped := bonus.ClampParticipation(d("101"))
	assert.True(t, clamped)
	assert.True(t, v.Equal(d("100")))

	v, clamped = bonus.ClampParticipation(d("-1"))
	assert.True(t, clamped)
	assert.True(t, v.IsZero())

	v, clamped = bonus.ClampParticipation(d("42"))
	assert.False(t, clamped)
	assert.True(t, v.Equal(d("42")))
}

// =============================================================================
// LOTS
// =============================================================================

func TestParseLotIDs(t *testing.T) {
	ids, err := bonus.ParseLotIDs(" 211- 212 --213 ")
	require.NoError(t, err)
	assert.Equal(t, []bonus.LotID{"211", "212", "213"}, ids)

	_, err = bonus.ParseLotIDs("211-211")
	assert.ErrorIs(t, err, bonus.ErrDuplicateLot)

	_, err = bonus.ParseLotIDs(" - ")
	assert.ErrorIs(t, err, bonus.ErrNoLots)
}

func TestValidateLots(t *testing.T) {
	assert.NoError(t, bonus.ValidateLots([]bonus.Lot{bonus.NewLot("211", "ross", d("1000"))}))
	assert.ErrorIs(t, bonus.ValidateLots(nil), bonus.ErrNoLots)
	assert.ErrorIs(t, bonus.ValidateLots([]bonus.Lot{bonus.NewLot(" ", "", d("1"))}), bonus.ErrEmptyLotID)
	assert.ErrorIs(t, bonus.ValidateLots([]bonus.Lot{bonus.NewLot("1", "", d("-1"))}), bonus.ErrNegativeBudget)

	err := bonus.ValidateLots([]bonus.Lot{bonus.NewLot("1", "", d("1")), bonus.NewLot("1", "", d("2"))})
	var le *bonus.LotError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, bonus.LotID("1"), le.Lot)
	assert.True(t, bonus.IsConfigError(err))
}

func TestNewLot_UppercasesGenetics(t *testing.T) {
	l := bonus.NewLot(" 211 ", " cobb ", d("10"))
	assert.Equal(t, bonus.LotID("211"), l.ID)
	assert.Equal(t, "COBB", l.Genetics)
}

// =============================================================================
// TABLE
// =============================================================================

func TestComputeTable_TotalAggregation(t *testing.T) {
	// GIVEN: One GALPONERO in two lots paying 400.00 and 150.25
	workers := []roster.JoinedRow{worker("00000001", "GALPONERO")}
	lots := []bonus.Lot{
		bonus.NewLot("211", "ROSS", d("1000")),
		bonus.NewLot("212", "ROSS", d("300.50")),
	}
	part := bonus.Participation{}
	part.Set(0, "211", bonus.Entry{Participation: d("50"), Absences: 2})
	part.Set(0, "212", bonus.Entry{Participation: d("50"), Absences: 0})

	// WHEN: Computing the table
	tbl := bonus.ComputeTable(bonus.ProcessProduction, workers, lots, part, roles)

	// THEN: Per-lot payouts and total
	require.Len(t, tbl.Rows, 1)
	row := tbl.Rows[0]
	assertMoney(t, "400.00", row.Amount("211"))
	assertMoney(t, "150.25", row.Amount("212"))
	assertMoney(t, "550.25", row.Total)
	assertMoney(t, "550.25", tbl.GrandTotal)
	assertMoney(t, "0.00", row.Amount("999"))
}

func TestComputeTable_KeepsEveryRow(t *testing.T) {
	// GIVEN: Three workers, one not found, one with no entries
	workers := []roster.JoinedRow{
		worker("00000001", "GALPONERO"),
		{ID: "00000002", Status: roster.StatusNotFound},
		worker("00000003", "PINTOR"),
		worker("00000004", "CAPORAL"),
	}
	lots := []bonus.Lot{bonus.NewLot("A", "", d("1000")), bonus.NewLot("B", "", d("2000"))}
	part := bonus.Participation{}
	part.Set(0, "A", bonus.Entry{Participation: d("100")})
	part.Set(1, "A", bonus.Entry{Participation: d("100")})
	part.Set(2, "B", bonus.Entry{Participation: d("100")})
	part.Set(3, "B", bonus.Entry{Participation: d("250"), Absences: bonus.UnparsedAbsences})

	tbl := bonus.ComputeTable(bonus.ProcessRearing, workers, lots, part, roles)

	// THEN: Row count preserved, order preserved, zero rows kept
	require.Len(t, tbl.Rows, 4)
	for i, r := range tbl.Rows {
		assert.Equal(t, workers[i].ID, r.Worker.ID)
		require.Len(t, r.Cells, 2)
	}
	assertMoney(t, "1000.00", tbl.Rows[0].Total)
	assertMoney(t, "0.00", tbl.Rows[1].Total)
	assertMoney(t, "0.00", tbl.Rows[2].Total)
	// CAPORAL 0.125 * 2000 * 100% * 0.50
	assertMoney(t, "125.00", tbl.Rows[3].Total)
	assert.True(t, tbl.Rows[3].Cells[1].Participation.Equal(d("100")))

	assertMoney(t, "1000.00", tbl.LotTotals[0])
	assertMoney(t, "125.00", tbl.LotTotals[1])
	assertMoney(t, "1125.00", tbl.GrandTotal)

	assert.Equal(t, bonus.Report{
		Cells: 8, PaidCells: 2, ClampedCells: 1, UnparsedAbsences: 1,
		UnknownRoles: 1, NotFoundRows: 1,
	}, tbl.Report)
	assert.Equal(t, bonus.ProcessRearing, tbl.Process)
}

func TestComputeTable_Deterministic(t *testing.T) {
	workers := []roster.JoinedRow{worker("1", "GRADING"), worker("2", "VACUNADORES")}
	lots := []bonus.Lot{bonus.NewLot("1", "", d("777.77"))}
	part := bonus.Participation{}
	part.Set(0, "1", bonus.Entry{Participation: d("33.33"), Absences: 1})
	part.Set(1, "1", bonus.Entry{Participation: d("66.67"), Absences: 4})

	a := bonus.ComputeTable(bonus.ProcessProduction, workers, lots, part, roles)
	b := bonus.ComputeTable(bonus.ProcessProduction, workers, lots, part, roles)
	assert.True(t, a.GrandTotal.Equal(b.GrandTotal))
	for i := range a.Rows {
		assert.True(t, a.Rows[i].Total.Equal(b.Rows[i].Total))
	}
}

func TestParticipation_Retain(t *testing.T) {
	p := bonus.Participation{}
	p.Set(0, "A", bonus.Entry{Participation: d("10")})
	p.Set(0, "B", bonus.Entry{Participation: d("20")})
	p.Retain([]bonus.LotID{"B"})

	assert.True(t, p.Get(0, "A").Participation.IsZero())
	assert.True(t, p.Get(0, "B").Participation.Equal(d("20")))
	assert.True(t, p.Get(5, "B").Participation.IsZero())
}

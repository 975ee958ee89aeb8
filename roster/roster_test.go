package roster_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/bono-engine/roster"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func requesterTable(ids ...string) roster.Table {
	t := roster.Table{Headers: []string{"DNI", "OBSERVACION"}}
	for _, id := range ids {
		t.Rows = append(t.Rows, []string{id, "x"})
	}
	return t
}

func masterTable(rows ...[3]string) roster.Table {
	t := roster.Table{Headers: []string{" dni ", "Nombre Completo", "Cargo", "AREA"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r[0], r[1], r[2], "GRANJA"})
	}
	return t
}

// =============================================================================
// NORMALIZATION
// =============================================================================

func TestNormalizeID_Cases(t *testing.T) {
	tests := []struct {
		raw  string
		want roster.ID
	}{
		{"123", "00000123"},
		{"'00123456", "00123456"},
		{"12345678.0", "12345678"},
		{"12345678.00", "12345678"},
		{" 7654321 ", "07654321"},
		{"'7654321.0", "07654321"},
		{"DNI: 4.567.890", "04567890"},
		{"45-67-89-01", "45678901"},
		{"0012345678", "12345678"},
		{"0", "00000000"},
		{"", roster.InvalidID},
		{"   ", roster.InvalidID},
		{"'", roster.InvalidID},
		{"nan", roster.InvalidID},
		{"None", roster.InvalidID},
		{"123456789", roster.InvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, roster.NormalizeID(tt.raw))
		})
	}
}

func TestNormalizeID_EmptyIsNotZeroPadded(t *testing.T) {
	id := roster.NormalizeID("abc")
	assert.Equal(t, roster.InvalidID, id)
	assert.NotEqual(t, roster.ID("00000000"), id)
	assert.False(t, id.IsValid())
}

func TestNormalizeID_IdempotentAndWidth(t *testing.T) {
	inputs := []string{
		"", "1", "12", "'0001", "99999999", "12345678.0", "1.0.0", "  '12 34 ",
		"abc123", "000000000001", "12345678901", "-5", "1e7", "١٢٣", "'00000000",
	}
	rng := rand.New(rand.NewSource(42))
	alphabet := []byte("0123456789'.- aZ")
	for i := 0; i < 500; i++ {
		n := rng.Intn(14)
		b := make([]byte, n)
		for j := range b {
			b[j] = alphabet[rng.Intn(len(alphabet))]
		}
		inputs = append(inputs, string(b))
	}

	for _, in := range inputs {
		once := roster.NormalizeID(in)
		twice := roster.NormalizeID(string(once))
		require.Equal(t, once, twice, "not idempotent for %q", in)
		if once != roster.InvalidID {
			require.True(t, once.IsValid(), "invalid shape %q for %q", once, in)
			require.Len(t, string(once), roster.IDWidth)
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "NRO DNI", roster.NormalizeHeader("  Nro. Dni "))
	assert.Equal(t, "PRODUCCION", roster.NormalizeHeader("Producción"))
	assert.Equal(t, "N DNI", roster.NormalizeHeader("N° DNI"))
	assert.Equal(t, "NOMBRE COMPLETO", roster.NormalizeHeader("nombre_completo"))
}

// =============================================================================
// SHAPE VALIDATION
// =============================================================================

func TestParseRequesters_MissingIDColumn(t *testing.T) {
	// GIVEN: A requester table without any DNI-like header
	tbl := roster.Table{Headers: []string{"NOMBRE"}, Rows: [][]string{{"Ana"}}}

	// WHEN: Parsing
	_, err := roster.ParseRequesters(tbl)

	// THEN: A fatal shape error naming the column
	require.Error(t, err)
	assert.True(t, errors.Is(err, roster.ErrMissingColumn))
	var mc *roster.MissingColumnError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, roster.TableRequesters, mc.Table)
	assert.Equal(t, "DNI", mc.Column)
}

func TestParseRoster_MissingRoleColumn(t *testing.T) {
	tbl := roster.Table{Headers: []string{"DNI", "NOMBRE COMPLETO"}}
	_, err := roster.ParseRoster(tbl)

	var mc *roster.MissingColumnError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, roster.TableRoster, mc.Table)
	assert.Equal(t, "CARGO", mc.Column)
}

func TestJoinTables_MissingColumnHaltsBeforeJoin(t *testing.T) {
	res, err := roster.JoinTables(roster.Table{Headers: []string{"ID"}}, masterTable())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, roster.ErrMissingColumn)
}

func TestParseRoster_Aliases(t *testing.T) {
	tbl := roster.Table{
		Headers: []string{"Nro Documento", "Apellidos y Nombres", "Puesto"},
		Rows:    [][]string{{"1234", "  PEREZ JUAN ", " galponero "}},
	}
	workers, err := roster.ParseRoster(tbl)
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, roster.ID("00001234"), workers[0].ID)
	assert.Equal(t, "PEREZ JUAN", workers[0].Name)
	assert.Equal(t, "galponero", workers[0].Role)
}

func TestParseRequesters_RaggedRows(t *testing.T) {
	tbl := roster.Table{Headers: []string{"X", "DNI"}, Rows: [][]string{{"a"}, {"b", "55"}}}
	reqs, err := roster.ParseRequesters(tbl)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, roster.InvalidID, reqs[0].ID)
	assert.Equal(t, roster.ID("00000055"), reqs[1].ID)
}

// =============================================================================
// DEDUPLICATION
// =============================================================================

func TestDeduplicate_KeepsFirstInFileOrder(t *testing.T) {
	workers := []roster.Worker{
		{Row: 0, ID: "00000001", Name: "PRIMERO"},
		{Row: 1, ID: "00000002", Name: "OTRO"},
		{Row: 2, ID: "00000001", Name: "SEGUNDO"},
		{Row: 3, ID: roster.InvalidID, Name: "SIN DNI"},
		{Row: 4, ID: "00000001", Name: "TERCERO"},
	}

	kept, removed := roster.Deduplicate(workers)

	assert.Equal(t, 2, removed)
	want := []roster.Worker{workers[0], workers[1]}
	if diff := cmp.Diff(want, kept); diff != "" {
		t.Errorf("Deduplicate mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRoster_Counts(t *testing.T) {
	workers, err := roster.ParseRoster(masterTable(
		[3]string{"123", "A", "GALPONERO"},
		[3]string{"'00000123", "B", "CAPORAL"},
		[3]string{"", "C", "CAPORAL"},
		[3]string{"456", "D", "SUPERVISOR"},
	))
	require.NoError(t, err)

	r := roster.NewRoster(workers)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 1, r.Duplicates)
	assert.Equal(t, 1, r.Invalid)

	w, ok := r.Lookup("00000123")
	require.True(t, ok)
	assert.Equal(t, "A", w.Name)

	_, ok = r.Lookup(roster.InvalidID)
	assert.False(t, ok)
}

func TestJoin_DedupDeterministicUnderShuffle(t *testing.T) {
	// GIVEN: Two conflicting rows for the same DNI plus unrelated rows
	// WHEN: Unrelated rows are shuffled around them
	// THEN: The first conflicting row always wins
	rng := rand.New(rand.NewSource(7))
	unrelated := [][3]string{
		{"10", "U1", "GRADING"}, {"11", "U2", "GRADING"}, {"12", "U3", "GRADING"},
		{"13", "U4", "GRADING"}, {"14", "U5", "GRADING"},
	}

	for i := 0; i < 50; i++ {
		rng.Shuffle(len(unrelated), func(a, b int) { unrelated[a], unrelated[b] = unrelated[b], unrelated[a] })
		cut := rng.Intn(len(unrelated) + 1)

		rows := append([][3]string{}, unrelated[:cut]...)
		rows = append(rows, [3]string{"777", "GANADOR", "GALPONERO"})
		rows = append(rows, unrelated[cut:]...)
		rows = append(rows, [3]string{"00000777", "PERDEDOR", "CAPORAL"})

		res, err := roster.JoinTables(requesterTable("777"), masterTable(rows...))
		require.NoError(t, err)
		require.Len(t, res.Rows, 1)
		assert.Equal(t, "GANADOR", res.Rows[0].Name)
		assert.Equal(t, "GALPONERO", res.Rows[0].Role)
		assert.Equal(t, 1, res.Stats.RosterDuplicates)
	}
}

// =============================================================================
// JOIN
// =============================================================================

func TestJoin_PreservesRowCountAndOrder(t *testing.T) {
	// GIVEN: Requesters with duplicates, an unknown DNI and a blank cell
	reqs := requesterTable("'00123456", "999", "123456.0", "", "123456")
	master := masterTable(
		[3]string{"123456", "ANA", "GALPONERO"},
		[3]string{"555", "LUIS", "CAPORAL"},
	)

	// WHEN: Joining
	res, err := roster.JoinTables(reqs, master)
	require.NoError(t, err)

	// THEN: One output row per requester, same order
	require.Len(t, res.Rows, len(reqs.Rows))
	gotIDs := make([]roster.ID, len(res.Rows))
	for i, r := range res.Rows {
		gotIDs[i] = r.ID
		assert.Equal(t, i, r.Row)
		assert.Equal(t, i+2, r.Line, "no Lines: rows follow the header")
	}
	assert.Equal(t, []roster.ID{"00123456", "00000999", "00123456", roster.InvalidID, "00123456"}, gotIDs)

	assert.Equal(t, roster.StatusFound, res.Rows[0].Status)
	assert.Equal(t, "ANA", res.Rows[0].Name)
	assert.Equal(t, roster.StatusNotFound, res.Rows[1].Status)
	assert.Empty(t, res.Rows[1].Name)
	assert.Empty(t, res.Rows[1].Role)
	assert.Equal(t, roster.StatusNotFound, res.Rows[3].Status)

	assert.Equal(t, roster.JoinStats{
		Requesters: 5, Found: 3, NotFound: 2, InvalidIDs: 1,
		RosterRows: 2, RosterDuplicates: 0, RosterInvalid: 0,
	}, res.Stats)

	nf := res.NotFound()
	require.Len(t, nf, 2)
	assert.Equal(t, "999", nf[0].RawID)
	assert.Equal(t, 3, nf[1].Row)
}

func TestParseRequesters_UsesSourceLines(t *testing.T) {
	tbl := roster.Table{Headers: []string{"DNI"}, Rows: [][]string{{"1"}, {"2"}}, Lines: []int{4, 9}}

	reqs, err := roster.ParseRequesters(tbl)
	require.NoError(t, err)

	assert.Equal(t, 4, reqs[0].Line)
	assert.Equal(t, 9, reqs[1].Line)
	assert.Equal(t, 1, reqs[1].Row)
}

func TestJoin_EmptyRequesters(t *testing.T) {
	res, err := roster.JoinTables(roster.Table{Headers: []string{"DNI"}}, masterTable([3]string{"1", "A", "CAPORAL"}))
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Equal(t, 0, res.Stats.Requesters)
}

package roster

// =============================================================================
// MASTER ROSTER
// =============================================================================

// Roster is the deduplicated master roster, indexed by ID.
type Roster struct {
	Workers    []Worker // kept rows, original file order
	Duplicates int      // rows dropped because their ID was already seen
	Invalid    int      // rows dropped because their ID had no usable digits

	index map[ID]int
}

// Deduplicate keeps the first worker for each valid ID, in file order,
// and returns how many rows were removed as duplicates.
// Workers with InvalidID are not grouped; they are dropped and not counted
// as duplicates.
func Deduplicate(workers []Worker) ([]Worker, int) {
	seen := make(map[ID]struct{}, len(workers))
	kept := make([]Worker, 0, len(workers))
	removed := 0
	for _, w := range workers {
		if !w.ID.IsValid() {
			continue
		}
		if _, dup := seen[w.ID]; dup {
			removed++
			continue
		}
		seen[w.ID] = struct{}{}
		kept = append(kept, w)
	}
	return kept, removed
}

// NewRoster deduplicates workers and builds the lookup index.
func NewRoster(workers []Worker) *Roster {
	kept, removed := Deduplicate(workers)
	invalid := 0
	for _, w := range workers {
		if !w.ID.IsValid() {
			invalid++
		}
	}

	r := &Roster{
		Workers:    kept,
		Duplicates: removed,
		Invalid:    invalid,
		index:      make(map[ID]int, len(kept)),
	}
	for i, w := range kept {
		r.index[w.ID] = i
	}
	return r
}

// Lookup returns the worker for id.
func (r *Roster) Lookup(id ID) (Worker, bool) {
	if !id.IsValid() {
		return Worker{}, false
	}
	i, ok := r.index[id]
	if !ok {
		return Worker{}, false
	}
	return r.Workers[i], true
}

// Len returns the number of kept workers.
func (r *Roster) Len() int { return len(r.Workers) }

// =============================================================================
// JOIN
// =============================================================================

// JoinStats are the counters surfaced to the user after a join.
type JoinStats struct {
	Requesters       int `json:"requesters"`
	Found            int `json:"found"`
	NotFound         int `json:"not_found"`
	InvalidIDs       int `json:"invalid_ids"`
	RosterRows       int `json:"roster_rows"`
	RosterDuplicates int `json:"roster_duplicates"`
	RosterInvalid    int `json:"roster_invalid"`
}

// JoinResult is the left join of requesters onto the roster.
type JoinResult struct {
	Rows  []JoinedRow
	Stats JoinStats
}

// Join left-joins requesters onto the roster on the normalized ID.
// Output has exactly one row per requester, in requester order; duplicate
// requester IDs stay separate rows.
func Join(requesters []Requester, r *Roster) *JoinResult {
	res := &JoinResult{
		Rows: make([]JoinedRow, len(requesters)),
		Stats: JoinStats{
			Requesters:       len(requesters),
			RosterRows:       r.Len() + r.Duplicates + r.Invalid,
			RosterDuplicates: r.Duplicates,
			RosterInvalid:    r.Invalid,
		},
	}

	for i, req := range requesters {
		row := JoinedRow{
			Row:    req.Row,
			Line:   req.Line,
			RawID:  req.RawID,
			ID:     req.ID,
			Status: StatusNotFound,
		}
		if !req.ID.IsValid() {
			res.Stats.InvalidIDs++
		}
		if w, ok := r.Lookup(req.ID); ok {
			row.Name = w.Name
			row.Role = w.Role
			row.Status = StatusFound
			res.Stats.Found++
		} else {
			res.Stats.NotFound++
		}
		res.Rows[i] = row
	}
	return res
}

// NotFound returns the rows that did not match, in requester order.
func (j *JoinResult) NotFound() []JoinedRow {
	out := make([]JoinedRow, 0, j.Stats.NotFound)
	for _, row := range j.Rows {
		if !row.Found() {
			out = append(out, row)
		}
	}
	return out
}

// JoinTables validates both tables, deduplicates the roster and joins.
// A missing required column in either table is returned as a
// *MissingColumnError before anything else happens.
func JoinTables(requesters, master Table) (*JoinResult, error) {
	reqs, err := ParseRequesters(requesters)
	if err != nil {
		return nil, err
	}
	workers, err := ParseRoster(master)
	if err != nil {
		return nil, err
	}
	return Join(reqs, NewRoster(workers)), nil
}

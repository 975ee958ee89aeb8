/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types keep the
  session and bonus packages free of JSON concerns and let the API render
  money as fixed two-decimal strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY AND PERCENT:
  Decimals are sent as strings ("450.00", "50") so clients never see float
  rounding. Requests accept participation and absences as the raw text the
  user typed; the session parses them leniently.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/plan.go: Plan document (accepted as-is by POST /plan)
*/
package api

import (
	"time"

	"github.com/warp/bono-engine/bonus"
	"github.com/warp/bono-engine/roster"
	"github.com/warp/bono-engine/session"
)

// =============================================================================
// SESSIONS
// =============================================================================

// SessionDTO is the headline view of a session.
type SessionDTO struct {
	ID                    string            `json:"id"`
	State                 string            `json:"state"`
	CreatedAt             string            `json:"created_at"`
	UpdatedAt             string            `json:"updated_at"`
	HasInputs             bool              `json:"has_inputs"`
	Stats                 *roster.JoinStats `json:"stats,omitempty"`
	Process               string            `json:"process"`
	Lots                  []LotDTO          `json:"lots"`
	DegradedParticipation int               `json:"degraded_participation"`
	DegradedAbsences      int               `json:"degraded_absences"`
	HasTable              bool              `json:"has_table"`
}

func toSessionDTO(s session.Summary) SessionDTO {
	dto := SessionDTO{
		ID:                    string(s.ID),
		State:                 string(s.State),
		CreatedAt:             s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             s.UpdatedAt.Format(time.RFC3339),
		HasInputs:             s.HasInputs,
		Process:               string(s.Process),
		Lots:                  toLotDTOs(s.Lots),
		DegradedParticipation: s.DegradedParticipation,
		DegradedAbsences:      s.DegradedAbsences,
		HasTable:              s.HasTable,
	}
	if s.HasInputs {
		stats := s.Stats
		dto.Stats = &stats
	}
	return dto
}

// InputsResponse is returned after uploading the two tables.
type InputsResponse struct {
	Session SessionDTO       `json:"session"`
	Stats   roster.JoinStats `json:"stats"`
}

// =============================================================================
// WORKERS
// =============================================================================

// WorkerDTO is one joined requester row with its current entries.
type WorkerDTO struct {
	Row     int        `json:"row"`
	Line    int        `json:"line"`
	RawDNI  string     `json:"raw_dni"`
	DNI     string     `json:"dni"`
	Name    string     `json:"name"`
	Role    string     `json:"role"`
	Status  string     `json:"status"`
	Entries []EntryDTO `json:"entries,omitempty"`
}

// EntryDTO is the stored value of one cell.
type EntryDTO struct {
	Lot           string `json:"lot"`
	Participation string `json:"participation"`
	Absences      int    `json:"absences"`
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// LotDTO is one lot. Budget is a decimal string.
type LotDTO struct {
	ID       string `json:"id"`
	Genetics string `json:"genetics"`
	Budget   string `json:"budget"`
}

func toLotDTOs(lots []bonus.Lot) []LotDTO {
	out := make([]LotDTO, len(lots))
	for i, l := range lots {
		out[i] = LotDTO{ID: string(l.ID), Genetics: l.Genetics, Budget: l.Budget.StringFixed(2)}
	}
	return out
}

// ConfigureRequest sets the process type and lots. Lots may be given one by
// one, or as LotsText ("211-212-213") sharing Genetics and Budget. With
// neither, the server defaults are used.
type ConfigureRequest struct {
	Process  string   `json:"process"`
	Lots     []LotDTO `json:"lots,omitempty"`
	LotsText string   `json:"lots_text,omitempty"`
	Genetics string   `json:"genetics,omitempty"`
	Budget   string   `json:"budget,omitempty"`
}

// =============================================================================
// ENTRIES
// =============================================================================

// EntryUpdateDTO sets one cell. Omitted fields are left unchanged.
type EntryUpdateDTO struct {
	Row           int     `json:"row"`
	Lot           string  `json:"lot"`
	Participation *string `json:"participation,omitempty"`
	Absences      *string `json:"absences,omitempty"`
}

// SetEntriesRequest is the body of PUT /entries.
type SetEntriesRequest struct {
	Entries []EntryUpdateDTO `json:"entries"`
}

// SetEntriesResponse reports what was applied.
type SetEntriesResponse struct {
	Applied               int `json:"applied"`
	DegradedParticipation int `json:"degraded_participation"`
	DegradedAbsences      int `json:"degraded_absences"`
}

// =============================================================================
// PAYOUTS
// =============================================================================

// PayoutTableDTO is the computed table.
type PayoutTableDTO struct {
	Process    string         `json:"process"`
	Lots       []LotDTO       `json:"lots"`
	Rows       []PayoutRowDTO `json:"rows"`
	LotTotals  []string       `json:"lot_totals"`
	GrandTotal string         `json:"grand_total"`
	Report     bonus.Report   `json:"report"`
}

// PayoutRowDTO is one worker's payouts.
type PayoutRowDTO struct {
	Row    int             `json:"row"`
	DNI    string          `json:"dni"`
	Name   string          `json:"name"`
	Role   string          `json:"role"`
	Status string          `json:"status"`
	Share  string          `json:"share"`
	Cells  []PayoutCellDTO `json:"cells"`
	Total  string          `json:"total"`
}

// PayoutCellDTO is one (worker, lot) payout.
type PayoutCellDTO struct {
	Lot           string `json:"lot"`
	Participation string `json:"participation"`
	Absences      int    `json:"absences"`
	Factor        string `json:"factor"`
	Amount        string `json:"amount"`
}

func toPayoutTableDTO(t *bonus.Table) PayoutTableDTO {
	dto := PayoutTableDTO{
		Process:    string(t.Process),
		Lots:       toLotDTOs(t.Lots),
		Rows:       make([]PayoutRowDTO, len(t.Rows)),
		LotTotals:  make([]string, len(t.LotTotals)),
		GrandTotal: t.GrandTotal.StringFixed(2),
		Report:     t.Report,
	}
	for i, lt := range t.LotTotals {
		dto.LotTotals[i] = lt.StringFixed(2)
	}
	for i, r := range t.Rows {
		row := PayoutRowDTO{
			Row:    i,
			DNI:    string(r.Worker.ID),
			Name:   r.Worker.Name,
			Role:   r.Worker.Role,
			Status: string(r.Worker.Status),
			Share:  r.Share.String(),
			Cells:  make([]PayoutCellDTO, len(r.Cells)),
			Total:  r.Total.StringFixed(2),
		}
		for j, c := range r.Cells {
			row.Cells[j] = PayoutCellDTO{
				Lot:           string(c.Lot),
				Participation: c.Participation.String(),
				Absences:      c.Absences,
				Factor:        c.Factor.String(),
				Amount:        c.Amount.StringFixed(2),
			}
		}
		dto.Rows[i] = row
	}
	return dto
}

// PlanResponse is returned after applying a plan document.
type PlanResponse struct {
	Applied       int            `json:"applied"`
	UnmatchedDNIs []string       `json:"unmatched_dnis"`
	Table         PayoutTableDTO `json:"table"`
}

// =============================================================================
// ROLES AND SCENARIOS
// =============================================================================

// RoleDTO is one row of a role share table.
type RoleDTO struct {
	Role  string `json:"role"`
	Share string `json:"share"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Process     string `json:"process"`
}

// LoadScenarioRequest picks a scenario to load into a new session.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

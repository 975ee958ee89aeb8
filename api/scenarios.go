/*
scenarios.go - Demo farms for testing and demonstrations

PURPOSE:

	Provides pre-built bonus runs that load realistic requester lists,
	rosters and participation into a fresh session. Each scenario shows a
	specific behavior of the bonus rules.

AVAILABLE SCENARIOS:

	granja-produccion: three breeder lots, one unknown DNI, one role
	                   without a share, absences on several workers
	granja-levante:    rearing process with two lots
	datos-sucios:      spreadsheet noise (apostrophes, ".0" suffixes, short
	                   DNIs, duplicate roster rows, unparseable cells)

HOW SCENARIOS WORK:
 1. Create a new session
 2. Load the scenario's requester list and roster (same path as uploads)
 3. Apply the scenario's plan document (configure, edit, commit)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "granja-produccion"}

ADDING NEW SCENARIOS:
 1. Add an entry to 'scenarios' with its tables and plan
 2. Nothing else: LoadScenario looks scenarios up by ID

SEE ALSO:
  - handlers.go: ListScenarios, LoadScenario handlers
  - factory/plan.go: Plan document format
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/warp/bono-engine/factory"
	"github.com/warp/bono-engine/roster"
	"github.com/warp/bono-engine/session"
	"go.uber.org/zap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	requesters roster.Table
	roster     roster.Table
	plan       string
}

var rosterHeaders = []string{"DNI", "NOMBRE COMPLETO", "CARGO", "AREA"}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "granja-produccion",
			Name:        "Granja de producción",
			Description: "Three breeder lots, one unknown DNI, one role without a share",
			Process:     "PRODUCCION",
		},
		requesters: roster.Table{
			Headers: []string{"N°", "DNI"},
			Rows: [][]string{
				{"1", "40112233"}, {"2", "40112234"}, {"3", "40112235"},
				{"4", "40112236"}, {"5", "40112237"}, {"6", "40112238"},
				{"7", "49999999"},
			},
		},
		roster: roster.Table{
			Headers: rosterHeaders,
			Rows: [][]string{
				{"40112233", "QUISPE MAMANI, ROSA", "GALPONERO", "PRODUCCION"},
				{"40112234", "HUAMAN TORRES, LUIS", "AYUDANTE GALPONERO", "PRODUCCION"},
				{"40112235", "FLORES RAMOS, ANA", "CAPORAL", "PRODUCCION"},
				{"40112236", "CCAHUANA LOPEZ, JUAN", "BIOSEGURIDAD", "SANIDAD"},
				{"40112237", "PAREDES VEGA, MARIA", "SUPERVISOR", "PRODUCCION"},
				{"40112238", "SALAZAR RUIZ, PEDRO", "CHOFER", "LOGISTICA"},
			},
		},
		plan: `
process: PRODUCCION
lots:
  - {id: "211", genetics: ROSS, budget: "1000"}
  - {id: "212", genetics: ROSS, budget: "1200"}
  - {id: "213", genetics: COBB, budget: "800"}
entries:
  - {dni: "40112233", lot: "211", participation: 100, absences: 0}
  - {dni: "40112233", lot: "212", participation: 50, absences: 1}
  - {dni: "40112234", lot: "211", participation: 100, absences: 2}
  - {dni: "40112235", lot: "211", participation: 100}
  - {dni: "40112235", lot: "212", participation: 100}
  - {dni: "40112235", lot: "213", participation: 100, absences: 7}
  - {dni: "40112236", lot: "213", participation: 100}
  - {dni: "40112237", lot: "212", participation: 100, absences: 3}
  - {dni: "40112238", lot: "211", participation: 100}
  - {dni: "49999999", lot: "211", participation: 100}
`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "granja-levante",
			Name:        "Granja de levante",
			Description: "Rearing process with two lots and partial participation",
			Process:     "LEVANTE",
		},
		requesters: roster.Table{
			Headers: []string{"DNI"},
			Rows:    [][]string{{"41223344"}, {"41223345"}, {"41223346"}, {"41223347"}},
		},
		roster: roster.Table{
			Headers: rosterHeaders,
			Rows: [][]string{
				{"41223344", "CONDORI APAZA, ELENA", "GALPONERO", "LEVANTE"},
				{"41223345", "RIOS CHAVEZ, OSCAR", "VOLANTE ALIMENTO", "LEVANTE"},
				{"41223346", "MENDOZA CRUZ, LUZ", "VACUNADORES", "SANIDAD"},
				{"41223347", "TICONA QUISPE, RAUL", "GRADING", "LEVANTE"},
			},
		},
		plan: `
process: LEVANTE
lots:
  - {id: "301", genetics: ROSS, budget: "1500"}
  - {id: "302", genetics: ROSS, budget: "1500"}
entries:
  - {dni: "41223344", lot: "301", participation: 60, absences: 1}
  - {dni: "41223344", lot: "302", participation: 40}
  - {dni: "41223345", lot: "301", participation: 100}
  - {dni: "41223346", lot: "301", participation: 100}
  - {dni: "41223346", lot: "302", participation: 100, absences: 4}
  - {dni: "41223347", lot: "302", participation: "75%"}
`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "datos-sucios",
			Name:        "Datos sucios",
			Description: "Spreadsheet noise: apostrophes, .0 suffixes, short DNIs, duplicates, bad cells",
			Process:     "PRODUCCION",
		},
		requesters: roster.Table{
			Headers: []string{"Nro. Documento"},
			Rows: [][]string{
				{"'01234567"}, {"1234567.0"}, {"7654321"}, {"ABC"}, {" 00888888 "},
			},
		},
		roster: roster.Table{
			Headers: []string{"dni", "Apellidos y Nombres", "Puesto"},
			Rows: [][]string{
				{"1234567", "ARIAS PINTO, CARLOS", "galponero"},
				{"01234567", "ARIAS PINTO, CARLOS (DUPLICADO)", "SUPERVISOR"},
				{"07654321.0", "BRAVO LEON, SARA", "Volante Descansero"},
				{"888888", "CUEVA DIAZ, TOMAS", "MANTENIMIENTO"},
			},
		},
		plan: `
lots:
  - {id: "211"}
entries:
  - {row: 1, lot: "211", participation: "150"}
  - {row: 2, lot: "211", participation: "50,5", absences: "dos"}
  - {row: 3, lot: "211", participation: "cien"}
  - {row: 5, lot: "211", participation: 100}
`,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario creates a session preloaded with the chosen scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	sc, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	s, res, err := h.loadScenario(r.Context(), sc)
	if err != nil {
		h.fail(w, r, "Failed to load scenario", err)
		return
	}
	h.logger(r).Info("scenario loaded",
		zap.String("scenario", sc.ID),
		zap.String("session", string(s.ID())),
		zap.String("grand_total", res.Table.GrandTotal.StringFixed(2)),
	)
	writeJSON(w, http.StatusCreated, toSessionDTO(s.Summary()))
}

func (h *Handler) loadScenario(ctx context.Context, sc scenario) (*session.Session, *factory.ApplyResult, error) {
	p, err := factory.ParsePlan([]byte(sc.plan))
	if err != nil {
		return nil, nil, fmt.Errorf("scenario %s: %w", sc.ID, err)
	}

	s, err := h.Store.Create(ctx)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.LoadInputs(sc.requesters, sc.roster); err != nil {
		h.Store.Delete(ctx, s.ID())
		return nil, nil, fmt.Errorf("scenario %s: %w", sc.ID, err)
	}
	res, err := p.Apply(s)
	if err != nil {
		h.Store.Delete(ctx, s.ID())
		return nil, nil, fmt.Errorf("scenario %s: %w", sc.ID, err)
	}
	return s, res, nil
}

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/username/compartmentdesk/backend/src/bondcalc"
	"github.com/username/compartmentdesk/backend/src/jobs"
	"github.com/username/compartmentdesk/backend/src/logger"
)

type JobHandler struct {
	runner *jobs.Runner
}

func NewJobHandler(runner *jobs.Runner) *JobHandler {
	return &JobHandler{runner: runner}
}

type jobRunResponse struct {
	Job        string `json:"job"`
	AsOf       string `json:"as_of"`
	Affected   int64  `json:"affected"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

// HandleRunJob executes a job on demand. The optional "date" query parameter
// sets the business date, today otherwise.
func (h *JobHandler) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.runner.Has(name) {
		sendJSONError(w, "unknown job: "+name, http.StatusNotFound)
		return
	}

	asOf := time.Now().UTC()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := bondcalc.ParseDate(d)
		if err != nil {
			sendJSONError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}

	subject, _ := GetSubjectFromContext(r.Context())
	logger.FromContext(r.Context()).Info("Job triggered on demand", "job", name, "subject", subject)

	run, err := h.runner.Run(r.Context(), name, asOf)
	if err != nil {
		sendServiceError(w, r, err, "run job "+name)
		return
	}
	sendJSON(w, r, http.StatusOK, jobRunResponse{
		Job:        name,
		AsOf:       bondcalc.Truncate(asOf).Format(bondcalc.DateLayout),
		Affected:   run.Affected,
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: run.FinishedAt.UTC().Format(time.RFC3339),
	})
}

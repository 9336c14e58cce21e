package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nicholaslie90/stck-scanner/internal/scheduler"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

// JobScheduler is the scheduler surface the handler needs
type JobScheduler interface {
	GetJobStats() []scheduler.JobStats
	RunJob(jobName string) error
}

// JobsHandler handles scheduler endpoints
type JobsHandler struct {
	scheduler JobScheduler
	logger    *logger.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(s JobScheduler, log *logger.Logger) *JobsHandler {
	return &JobsHandler{
		scheduler: s,
		logger:    log,
	}
}

// ListJobs returns the registered jobs with their statistics
// GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": h.scheduler.GetJobStats(),
	})
}

// RunJob triggers a job immediately
// POST /api/jobs/{name}/run
func (h *JobsHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.scheduler.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.WithField("job", name).Info("Job triggered via API")
	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"job":    name,
	})
}

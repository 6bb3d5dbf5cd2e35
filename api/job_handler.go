package api

import (
	"errors"
	"net/http"

	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/service"
	"github.com/suisse-offerten/marketplace-api/store"
	"github.com/suisse-offerten/marketplace-api/utils"
)

const defaultJobPageSize = 20

type jobUpdate struct {
	JobTitle         *string   `json:"jobTitle" validate:"omitempty,min=1"`
	JobDescription   *string   `json:"jobDescription"`
	JobLocation      *string   `json:"jobLocation"`
	JobNumber        *string   `json:"jobNumber"`
	JobCity          *[]string `json:"jobCity"`
	JobCategories    *[]string `json:"jobCategories"`
	JobSubCategories *[]string `json:"jobSubCategories"`
}

func (u jobUpdate) apply(j *models.Job) {
	set(&j.JobTitle, u.JobTitle)
	set(&j.JobDescription, u.JobDescription)
	set(&j.JobLocation, u.JobLocation)
	set(&j.JobNumber, u.JobNumber)
	set(&j.JobCity, u.JobCity)
	set(&j.JobCategories, u.JobCategories)
	set(&j.JobSubCategories, u.JobSubCategories)
}

type jobStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active closed"`
}

type jobsResponse struct {
	CurrentPage int          `json:"currentPage"`
	TotalPages  int          `json:"totalPages"`
	TotalJobs   int64        `json:"totalJobs"`
	Jobs        []models.Job `json:"jobs"`
}

// ListJobsHandler supports ?status, ?city, ?category, ?page and ?limit.
func (s *Server) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[List Jobs API]")
	defer logs.Flush()

	q := r.URL.Query()
	p := parsePagination(r, defaultJobPageSize)
	filter := store.JobFilter{
		Status:   q.Get("status"),
		City:     q.Get("city"),
		Category: q.Get("category"),
	}

	total, err := s.repos.Jobs.Count(r.Context(), filter)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	filter.Page = p.store()
	jobs, err := s.repos.Jobs.List(r.Context(), filter)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, jobsResponse{
		CurrentPage: p.page,
		TotalPages:  p.totalPages(total),
		TotalJobs:   total,
		Jobs:        jobs,
	})
}

// CreateJobHandler stores the job and, for an already verified owner,
// activates it and notifies the matched sellers.
func (s *Server) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Create Job API]")
	defer logs.Flush()

	var req service.JobInput
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}

	job, notified, err := s.jobs.Create(r.Context(), req)
	if err != nil {
		var fe *service.FanOutError
		if errors.As(err, &fe) {
			logs.Addf("Job %s active, %d of %d sellers notified", job.ID.Hex(), fe.Notified, fe.Total)
		}
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Job %s created with status %s, %d sellers notified", job.ID.Hex(), job.Status, notified)
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"job":      job,
		"notified": notified,
		"message":  JobCreateSuccess,
	})
}

func (s *Server) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Get Job API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	job, err := s.repos.Jobs.FindByID(r.Context(), id)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, job)
}

func (s *Server) UpdateJobHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Update Job API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	var req jobUpdate
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	job, err := s.repos.Jobs.FindByID(r.Context(), id)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	req.apply(job)
	if err := s.repos.Jobs.Save(r.Context(), job); err != nil {
		respondErr(w, logs, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"job":     job,
		"message": UpdateSuccess,
	})
}

func (s *Server) UpdateJobStatusHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Update Job Status API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	var req jobStatusRequest
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	job, err := s.repos.Jobs.FindByID(r.Context(), id)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	job.Status = req.Status
	if err := s.repos.Jobs.Save(r.Context(), job); err != nil {
		respondErr(w, logs, err)
		return
	}
	respondMessage(w, http.StatusOK, UpdateSuccess)
}

func (s *Server) DeleteJobHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Delete Job API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	if err := s.repos.Jobs.Delete(r.Context(), id); err != nil {
		respondErr(w, logs, err)
		return
	}
	respondMessage(w, http.StatusOK, DeleteSuccess)
}

package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/store"
)

type JobInput struct {
	JobEmail         string   `json:"jobEmail" validate:"required,email"`
	JobTitle         string   `json:"jobTitle" validate:"required"`
	JobDescription   string   `json:"jobDescription"`
	JobLocation      string   `json:"jobLocation"`
	JobNumber        string   `json:"jobNumber"`
	JobCity          []string `json:"jobCity"`
	JobCategories    []string `json:"jobCategories"`
	JobSubCategories []string `json:"jobSubCategories"`
}

// Jobs creates jobs and activates them for verified owners.
type Jobs struct {
	repos    store.Repositories
	notifier Notifier
	logger   zerolog.Logger
}

func NewJobs(repos store.Repositories, notifier Notifier, logger zerolog.Logger) *Jobs {
	return &Jobs{repos: repos, notifier: notifier, logger: logger}
}

// Create stores a pending job. When the owning client is already verified
// the job goes active at once and matched sellers are notified, exactly as
// on verification. The returned count is the number of sellers mailed.
func (j *Jobs) Create(ctx context.Context, in JobInput) (*models.Job, int, error) {
	job := &models.Job{
		JobEmail:         in.JobEmail,
		JobTitle:         in.JobTitle,
		JobDescription:   in.JobDescription,
		JobLocation:      in.JobLocation,
		JobNumber:        in.JobNumber,
		JobCity:          in.JobCity,
		JobCategories:    in.JobCategories,
		JobSubCategories: in.JobSubCategories,
		Status:           models.JobStatusPending,
	}
	if err := j.repos.Jobs.Create(ctx, job); err != nil {
		return nil, 0, fmt.Errorf("create job: %w", err)
	}

	owner, err := optional(j.repos.Clients.FindByEmail(ctx, job.JobEmail))
	if err != nil {
		return job, 0, err
	}
	if owner == nil || owner.Status != models.StatusVerified {
		return job, 0, nil
	}

	sellers, err := MatchSellers(ctx, j.repos.Sellers, job)
	if err != nil {
		return job, 0, err
	}
	job.Status = models.JobStatusActive
	if err := j.repos.Jobs.Save(ctx, job); err != nil {
		return job, 0, fmt.Errorf("activate job: %w", err)
	}
	n, err := notifySellers(ctx, j.notifier, j.logger, sellers, *job)
	return job, n, err
}

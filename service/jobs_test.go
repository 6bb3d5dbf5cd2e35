package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suisse-offerten/marketplace-api/models"
)

func TestJobsCreate_VerifiedOwnerActivatesImmediately(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedSellers(t, f.repos)

	_, err := f.accounts.CreateClientByAdmin(ctx, AdminClientInput{Username: "acme", Email: "a@x.com", Password: "p"})
	require.NoError(t, err)

	job, n, err := f.jobs.Create(ctx, JobInput{
		JobEmail: "a@x.com", JobTitle: "Move piano",
		JobCity: []string{"Bern"}, JobSubCategories: []string{"moving"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusActive, job.Status)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"match2@x.com"}, f.notifier.jobMails)
}

func TestJobsCreate_UnknownOwnerStaysPending(t *testing.T) {
	f := newFixture()
	seedSellers(t, f.repos)

	job, n, err := f.jobs.Create(context.Background(), JobInput{
		JobEmail: "nobody@x.com", JobTitle: "t",
		JobCity: []string{"Zurich"}, JobSubCategories: []string{"painting"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Zero(t, n)
	assert.Empty(t, f.notifier.jobMails)
}

func TestMatchSellers_EmptyJobSets(t *testing.T) {
	f := newFixture()
	seedSellers(t, f.repos)

	got, err := MatchSellers(context.Background(), f.repos.Sellers, &models.Job{JobCity: []string{"Zurich"}})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = MatchSellers(context.Background(), f.repos.Sellers, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

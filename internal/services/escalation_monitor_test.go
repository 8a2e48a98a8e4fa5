package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/civicfix/backend/internal/models"
	"github.com/civicfix/backend/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRunSweepEscalatesOverdueComplaints(t *testing.T) {
	repo := &mockComplaintRepo{}
	overdue := []models.Complaint{
		{ID: uuid.New(), ComplaintNumber: "CMP-2026-000001", Status: models.StatusSubmitted},
		{ID: uuid.New(), ComplaintNumber: "CMP-2026-000002", Status: models.StatusInProgress},
	}

	repo.On("ListForEscalation", mock.Anything, mock.AnythingOfType("time.Time")).Return(overdue, nil)
	repo.On("AppendHistory", mock.Anything, mock.AnythingOfType("*models.ComplaintHistory")).Return(nil)
	repo.On("UpdateFields", mock.Anything, mock.AnythingOfType("uuid.UUID"), map[string]interface{}{"escalated": true}).Return(nil)

	monitor := services.NewEscalationMonitor(repo, 7, time.Hour)
	monitor.RunSweep(context.Background())

	repo.AssertNumberOfCalls(t, "AppendHistory", 2)
	repo.AssertNumberOfCalls(t, "UpdateFields", 2)

	for _, call := range repo.Calls {
		if call.Method == "AppendHistory" {
			entry := call.Arguments.Get(1).(*models.ComplaintHistory)
			assert.Equal(t, "Complaint escalated due to delay", entry.Comment)
		}
	}
}

func TestRunSweepHistoryKeepsCurrentStatus(t *testing.T) {
	repo := &mockComplaintRepo{}
	c := models.Complaint{ID: uuid.New(), ComplaintNumber: "CMP-2026-000003", Status: models.StatusInProgress}

	repo.On("ListForEscalation", mock.Anything, mock.AnythingOfType("time.Time")).Return([]models.Complaint{c}, nil)
	repo.On("AppendHistory", mock.Anything, mock.AnythingOfType("*models.ComplaintHistory")).Return(nil)
	repo.On("UpdateFields", mock.Anything, c.ID, map[string]interface{}{"escalated": true}).Return(nil)

	monitor := services.NewEscalationMonitor(repo, 7, time.Hour)
	monitor.RunSweep(context.Background())

	entry := repo.Calls[1].Arguments.Get(1).(*models.ComplaintHistory)
	assert.Equal(t, models.StatusInProgress, entry.Status)
	assert.Equal(t, c.ID, entry.ComplaintID)
}

func TestRunSweepUsesConfiguredThreshold(t *testing.T) {
	repo := &mockComplaintRepo{}
	repo.On("ListForEscalation", mock.Anything, mock.AnythingOfType("time.Time")).Return([]models.Complaint{}, nil)

	monitor := services.NewEscalationMonitor(repo, 7, time.Hour)
	before := time.Now()
	monitor.RunSweep(context.Background())

	cutoff := repo.Calls[0].Arguments.Get(1).(time.Time)
	want := before.Add(-7 * 24 * time.Hour)
	assert.WithinDuration(t, want, cutoff, 5*time.Second)
}

func TestRunSweepContinuesAfterSingleFailure(t *testing.T) {
	repo := &mockComplaintRepo{}
	failing := models.Complaint{ID: uuid.New(), ComplaintNumber: "CMP-2026-000004", Status: models.StatusSubmitted}
	healthy := models.Complaint{ID: uuid.New(), ComplaintNumber: "CMP-2026-000005", Status: models.StatusSubmitted}

	repo.On("ListForEscalation", mock.Anything, mock.AnythingOfType("time.Time")).Return([]models.Complaint{failing, healthy}, nil)
	repo.On("AppendHistory", mock.Anything, mock.MatchedBy(func(e *models.ComplaintHistory) bool {
		return e.ComplaintID == failing.ID
	})).Return(errors.New("deadlock detected"))
	repo.On("AppendHistory", mock.Anything, mock.MatchedBy(func(e *models.ComplaintHistory) bool {
		return e.ComplaintID == healthy.ID
	})).Return(nil)
	repo.On("UpdateFields", mock.Anything, healthy.ID, map[string]interface{}{"escalated": true}).Return(nil)

	monitor := services.NewEscalationMonitor(repo, 7, time.Hour)
	monitor.RunSweep(context.Background())

	repo.AssertCalled(t, "UpdateFields", mock.Anything, healthy.ID, map[string]interface{}{"escalated": true})
	repo.AssertNotCalled(t, "UpdateFields", mock.Anything, failing.ID, map[string]interface{}{"escalated": true})
}

func TestRunSweepNeverOverlaps(t *testing.T) {
	repo := &mockComplaintRepo{}
	release := make(chan struct{})
	listing := make(chan struct{})
	var once sync.Once

	repo.On("ListForEscalation", mock.Anything, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			once.Do(func() { close(listing) })
			<-release
		}).
		Return([]models.Complaint{}, nil)

	monitor := services.NewEscalationMonitor(repo, 7, time.Hour)

	done := make(chan struct{})
	go func() {
		monitor.RunSweep(context.Background())
		close(done)
	}()

	// Wait until the first sweep is inside the repository call, then try
	// to start a second one. It must return without listing again.
	<-listing
	monitor.RunSweep(context.Background())
	repo.AssertNumberOfCalls(t, "ListForEscalation", 1)

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first sweep did not finish")
	}

	// With the first sweep finished the guard is released again.
	monitor.RunSweep(context.Background())
	repo.AssertNumberOfCalls(t, "ListForEscalation", 2)
}

func TestStartAndStopRunImmediateSweep(t *testing.T) {
	repo := &mockComplaintRepo{}
	swept := make(chan struct{}, 1)

	repo.On("ListForEscalation", mock.Anything, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			select {
			case swept <- struct{}{}:
			default:
			}
		}).
		Return([]models.Complaint{}, nil)

	monitor := services.NewEscalationMonitor(repo, 7, time.Hour)
	monitor.Start()
	defer monitor.Stop()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate sweep on start")
	}
	require.GreaterOrEqual(t, len(repo.Calls), 1)
}

package services

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/civicfix/backend/internal/models"
	"github.com/civicfix/backend/internal/repository"
)

const escalationComment = "Complaint escalated due to delay"

// EscalationMonitor periodically flags complaints that sat unresolved
// past the configured age. Each matching complaint gets one history entry
// and is marked escalated so later sweeps skip it.
type EscalationMonitor struct {
	complaintRepo repository.ComplaintRepository
	threshold     time.Duration
	interval      time.Duration
	stopChan      chan struct{}
	sweeping      atomic.Bool
}

func NewEscalationMonitor(complaintRepo repository.ComplaintRepository, thresholdDays int, interval time.Duration) *EscalationMonitor {
	return &EscalationMonitor{
		complaintRepo: complaintRepo,
		threshold:     time.Duration(thresholdDays) * 24 * time.Hour,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start launches the monitor goroutine. The first sweep runs immediately,
// then on every interval tick until Stop is called.
func (m *EscalationMonitor) Start() {
	go func() {
		log.Printf("Escalation monitor started (threshold %s, interval %s)", m.threshold, m.interval)

		m.RunSweep(context.Background())

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.RunSweep(context.Background())
			case <-m.stopChan:
				log.Println("Escalation monitor stopped")
				return
			}
		}
	}()
}

func (m *EscalationMonitor) Stop() {
	close(m.stopChan)
}

// RunSweep scans for overdue complaints and escalates them. Sweeps never
// overlap: if one is still running when the next is due, the new one is
// skipped rather than queued. A failure on one complaint does not stop
// the rest of the sweep.
func (m *EscalationMonitor) RunSweep(ctx context.Context) {
	if !m.sweeping.CompareAndSwap(false, true) {
		log.Println("Escalation sweep still in progress, skipping this run")
		return
	}
	defer m.sweeping.Store(false)

	cutoff := time.Now().Add(-m.threshold)
	complaints, err := m.complaintRepo.ListForEscalation(ctx, cutoff)
	if err != nil {
		log.Printf("Escalation sweep failed to list complaints: %v", err)
		return
	}

	if len(complaints) == 0 {
		return
	}

	escalated := 0
	for _, c := range complaints {
		if err := m.escalate(ctx, &c); err != nil {
			log.Printf("Failed to escalate complaint %s: %v", c.ComplaintNumber, err)
			continue
		}
		escalated++
	}

	log.Printf("Escalation sweep finished: %d of %d overdue complaints escalated", escalated, len(complaints))
}

func (m *EscalationMonitor) escalate(ctx context.Context, c *models.Complaint) error {
	entry := &models.ComplaintHistory{
		ComplaintID: c.ID,
		Status:      c.Status,
		Comment:     escalationComment,
	}
	if err := m.complaintRepo.AppendHistory(ctx, entry); err != nil {
		return err
	}
	return m.complaintRepo.UpdateFields(ctx, c.ID, map[string]interface{}{"escalated": true})
}

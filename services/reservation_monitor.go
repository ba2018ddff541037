package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tablebook/reservation-app/models"
)

// ReservationMonitor sweeps reservations in the background: confirmed
// reservations whose interval has elapsed are completed, and pending ones
// that were never confirmed within the TTL are cancelled so their slots free
// up.
type ReservationMonitor struct {
	booking      *BookingService
	reservations ReservationStore
	logger       *logrus.Logger

	Interval   time.Duration
	PendingTTL time.Duration

	stopCh chan struct{}
}

func NewReservationMonitor(booking *BookingService, reservations ReservationStore, logger *logrus.Logger) *ReservationMonitor {
	return &ReservationMonitor{
		booking:      booking,
		reservations: reservations,
		logger:       logger,
		Interval:     time.Minute,
		PendingTTL:   30 * time.Minute,
		stopCh:       make(chan struct{}),
	}
}

func (m *ReservationMonitor) Start() {
	go m.run()
}

func (m *ReservationMonitor) Stop() {
	close(m.stopCh)
}

func (m *ReservationMonitor) run() {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stopCh:
			return
		}
	}
}

// Sweep runs one pass. Exported so tests can drive it without the ticker.
func (m *ReservationMonitor) Sweep() {
	ctx := context.Background()
	now := time.Now()

	confirmed, err := m.reservations.FindByStatus(models.ReservationStatusConfirmed)
	if err != nil {
		m.logger.Errorf("monitor: listing confirmed reservations failed: %v", err)
	} else {
		for i := range confirmed {
			if confirmed[i].EndTime.After(now) {
				continue
			}
			if _, err := m.booking.CompleteReservation(ctx, confirmed[i].ID); err != nil {
				m.logger.Errorf("monitor: completing reservation %d failed: %v", confirmed[i].ID, err)
			}
		}
	}

	pending, err := m.reservations.FindByStatus(models.ReservationStatusPending)
	if err != nil {
		m.logger.Errorf("monitor: listing pending reservations failed: %v", err)
		return
	}
	cutoff := now.Add(-m.PendingTTL)
	for i := range pending {
		if pending[i].CreatedAt.After(cutoff) {
			continue
		}
		if _, err := m.booking.CancelReservation(ctx, pending[i].ID, "not confirmed in time"); err != nil {
			m.logger.Errorf("monitor: cancelling stale reservation %d failed: %v", pending[i].ID, err)
		} else {
			m.logger.Infof("monitor: cancelled stale pending reservation %d", pending[i].ID)
		}
	}
}

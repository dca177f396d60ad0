package services

import (
	"context"
	"testing"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func addAppointment(t *testing.T, db *gorm.DB, userID uint, at time.Time, status models.AppointmentStatus) models.Appointment {
	t.Helper()
	appt := models.Appointment{
		UserID:        userID,
		BloodTypeID:   1,
		ScheduledDate: at,
		Location:      "Jakarta",
		Status:        status,
	}
	require.NoError(t, db.Create(&appt).Error)
	return appt
}

func TestHourBeforeReminders(t *testing.T) {
	db := newTestDB(t)
	sender := &fakeSender{failOn: map[uint]bool{}}
	svc := NewReminderService(db, testConfig(), sender)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	soon := createUser(t, db, "soon", uintPtr(31), models.RoleUser)
	later := createUser(t, db, "later", uintPtr(31), models.RoleUser)
	moved := createUser(t, db, "moved", uintPtr(31), models.RoleUser)
	cancelled := createUser(t, db, "cancel", uintPtr(31), models.RoleUser)
	failing := createUser(t, db, "failing", uintPtr(31), models.RoleUser)
	sender.failOn[failing.ID] = true

	dueSoon := addAppointment(t, db, soon.ID, now.Add(30*time.Minute), models.AppointmentScheduled)
	addAppointment(t, db, later.ID, now.Add(3*time.Hour), models.AppointmentScheduled)
	addAppointment(t, db, moved.ID, now.Add(45*time.Minute), models.AppointmentRescheduled)
	addAppointment(t, db, cancelled.ID, now.Add(15*time.Minute), models.AppointmentCancelled)
	dueFailing := addAppointment(t, db, failing.ID, now.Add(20*time.Minute), models.AppointmentScheduled)

	assert.Equal(t, 2, svc.SendHourBeforeReminders(ctx))
	assert.ElementsMatch(t, []uint{soon.ID, moved.ID}, sender.SentTo())

	var reloaded models.Appointment
	require.NoError(t, db.First(&reloaded, dueSoon.ID).Error)
	assert.True(t, reloaded.HourBeforeReminderSent)
	assert.False(t, reloaded.MorningReminderSent)

	var failingReloaded models.Appointment
	require.NoError(t, db.First(&failingReloaded, dueFailing.ID).Error)
	assert.False(t, failingReloaded.HourBeforeReminderSent, "failed sends are retried on the next run")

	assert.Equal(t, 0, svc.SendHourBeforeReminders(ctx), "reminders are sent once")
}

func TestMorningReminders(t *testing.T) {
	db := newTestDB(t)
	sender := &fakeSender{}
	svc := NewReminderService(db, testConfig(), sender)
	now := time.Date(2026, 5, 1, 7, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	today := createUser(t, db, "today", uintPtr(31), models.RoleUser)
	tomorrow := createUser(t, db, "tomorrow", uintPtr(31), models.RoleUser)

	addAppointment(t, db, today.ID, now.Add(6*time.Hour), models.AppointmentScheduled)
	addAppointment(t, db, tomorrow.ID, now.Add(26*time.Hour), models.AppointmentScheduled)

	assert.Equal(t, 1, svc.SendMorningReminders(ctx))
	assert.Equal(t, []uint{today.ID}, sender.SentTo())
	assert.Equal(t, 0, svc.SendMorningReminders(ctx))
}

func TestReminderStartRejectsBadSpec(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	cfg.ReminderHourlySpec = "not a cron spec"
	cfg.ReminderMorningSpec = "0 7 * * *"

	svc := NewReminderService(db, cfg, &fakeSender{})
	require.Error(t, svc.Start())

	cfg.ReminderHourlySpec = "* * * * *"
	require.NoError(t, svc.Start())
	svc.Stop()
	svc.Stop()
}

package services

import (
	"context"
	"testing"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func addHelpOffer(t *testing.T, db *gorm.DB, userID, bloodTypeID uint, willing, emergency bool) {
	t.Helper()
	offer := models.HelpOffer{
		UserID:             userID,
		BloodTypeID:        bloodTypeID,
		IsWillingToDonate:  willing,
		CanHelpInEmergency: emergency,
	}
	require.NoError(t, db.Create(&offer).Error)
}

func TestNotificationFanOutReachesOnlyEligibleDonors(t *testing.T) {
	db := newTestDB(t)
	oNeg := bloodTypeID(t, db, "O-")
	aPos := bloodTypeID(t, db, "A+")

	eligible := createUser(t, db, "ani", uintPtr(31), models.RoleUser)
	eligible2 := createUser(t, db, "dewi", uintPtr(31), models.RoleUser)
	wrongType := createUser(t, db, "eko", uintPtr(31), models.RoleUser)
	notWilling := createUser(t, db, "fajar", uintPtr(31), models.RoleUser)
	noEmergency := createUser(t, db, "gita", uintPtr(31), models.RoleUser)
	otherProvince := createUser(t, db, "hadi", uintPtr(32), models.RoleUser)
	noProvince := createUser(t, db, "indra", nil, models.RoleUser)

	addHelpOffer(t, db, eligible.ID, oNeg, true, true)
	addHelpOffer(t, db, eligible2.ID, oNeg, true, true)
	addHelpOffer(t, db, wrongType.ID, aPos, true, true)
	addHelpOffer(t, db, notWilling.ID, oNeg, false, true)
	addHelpOffer(t, db, noEmergency.ID, oNeg, true, false)
	addHelpOffer(t, db, otherProvince.ID, oNeg, true, true)
	addHelpOffer(t, db, noProvince.ID, oNeg, true, true)

	sender := &fakeSender{}
	publisher := &fakePublisher{}
	svc := NewNotificationService(db, testConfig(), sender, publisher)

	svc.NotifyEligibleDonors(oNeg, 31)
	svc.Close()

	assert.ElementsMatch(t, []uint{eligible.ID, eligible2.ID}, sender.SentTo())

	events := publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, oNeg, events[0].BloodTypeID)
	assert.Equal(t, uint(31), events[0].ProvinceID)
	assert.Equal(t, 2, events[0].Matched)
	assert.Equal(t, 2, events[0].Sent)
	assert.Zero(t, events[0].Failed)
	assert.NotEmpty(t, events[0].JobID)
}

func TestNotificationFailuresDoNotAbortFanOut(t *testing.T) {
	db := newTestDB(t)
	oNeg := bloodTypeID(t, db, "O-")

	first := createUser(t, db, "ani", uintPtr(31), models.RoleUser)
	second := createUser(t, db, "dewi", uintPtr(31), models.RoleUser)
	third := createUser(t, db, "eko", uintPtr(31), models.RoleUser)
	for _, u := range []models.User{first, second, third} {
		addHelpOffer(t, db, u.ID, oNeg, true, true)
	}

	failuresBefore := testutil.ToFloat64(metrics.DonorNotifications.WithLabelValues("fake", "failure"))

	sender := &fakeSender{failOn: map[uint]bool{first.ID: true}}
	publisher := &fakePublisher{}
	svc := NewNotificationService(db, testConfig(), sender, publisher)

	svc.NotifyEligibleDonors(oNeg, 31)
	svc.Close()

	assert.ElementsMatch(t, []uint{second.ID, third.ID}, sender.SentTo())
	require.Len(t, publisher.Events(), 1)
	assert.Equal(t, 1, publisher.Events()[0].Failed)
	assert.Equal(t, failuresBefore+1, testutil.ToFloat64(metrics.DonorNotifications.WithLabelValues("fake", "failure")))
}

func TestNotifyDropsWhenQueueFull(t *testing.T) {
	svc := &NotificationService{
		Config: testConfig(),
		Sender: &fakeSender{},
		jobs:   make(chan donorJob, 1),
	}

	droppedBefore := testutil.ToFloat64(metrics.NotificationJobs.WithLabelValues("dropped"))

	svc.NotifyEligibleDonors(1, 31)
	svc.NotifyEligibleDonors(2, 31)

	assert.Len(t, svc.jobs, 1)
	assert.Equal(t, droppedBefore+1, testutil.ToFloat64(metrics.NotificationJobs.WithLabelValues("dropped")))
}

func TestNotifyAfterCloseIsIgnored(t *testing.T) {
	db := newTestDB(t)
	sender := &fakeSender{}
	svc := NewNotificationService(db, testConfig(), sender, nil)
	svc.Close()
	svc.Close()

	assert.NotPanics(t, func() { svc.NotifyEligibleDonors(1, 31) })
	assert.Empty(t, sender.SentTo())
}

func TestFindEligibleDonorsCarriesContactDetails(t *testing.T) {
	db := newTestDB(t)
	oNeg := bloodTypeID(t, db, "O-")
	donor := createUser(t, db, "ani", uintPtr(31), models.RoleUser)
	require.NoError(t, db.Model(&donor).Update("telegram_chat_id", int64(4242)).Error)
	addHelpOffer(t, db, donor.ID, oNeg, true, true)

	svc := &NotificationService{DB: db, Config: testConfig()}
	recipients, err := svc.FindEligibleDonors(context.Background(), oNeg, 31)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, donor.Phone, recipients[0].Phone)
	require.NotNil(t, recipients[0].TelegramChatID)
	assert.Equal(t, int64(4242), *recipients[0].TelegramChatID)
}

func TestNotificationRecordsArePersisted(t *testing.T) {
	db := newTestDB(t)
	oNeg := bloodTypeID(t, db, "O-")

	ok := createUser(t, db, "ani", uintPtr(31), models.RoleUser)
	broken := createUser(t, db, "dewi", uintPtr(31), models.RoleUser)
	addHelpOffer(t, db, ok.ID, oNeg, true, true)
	addHelpOffer(t, db, broken.ID, oNeg, true, true)

	sender := &fakeSender{failOn: map[uint]bool{broken.ID: true}}
	svc := NewNotificationService(db, testConfig(), sender, nil)
	svc.NotifyEligibleDonors(oNeg, 31)
	svc.Close()

	ctx := context.Background()
	all, err := svc.ListNotifications(ctx, NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, all.Notifications, 2)
	assert.EqualValues(t, 2, all.TotalRecords)
	assert.Equal(t, all.Notifications[0].JobID, all.Notifications[1].JobID)

	failed, err := svc.ListNotifications(ctx, NotificationFilter{Status: models.NotificationFailed})
	require.NoError(t, err)
	require.Len(t, failed.Notifications, 1)
	assert.Equal(t, broken.ID, failed.Notifications[0].UserID)
	assert.NotEmpty(t, failed.Notifications[0].Error)
	assert.Equal(t, "fake", failed.Notifications[0].Channel)

	mine, err := svc.ListNotifications(ctx, NotificationFilter{UserID: ok.ID})
	require.NoError(t, err)
	require.Len(t, mine.Notifications, 1)
	assert.Equal(t, models.NotificationSent, mine.Notifications[0].Status)

	_, err = svc.ListNotifications(ctx, NotificationFilter{Status: "bogus"})
	assert.True(t, IsKind(err, KindInvalidInput))
}

package services

import (
	"context"
	"testing"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func newTestHelpOfferService(t *testing.T) (*HelpOfferService, *models.User, *models.User, *models.User) {
	t.Helper()
	db := newTestDB(t)
	authz, err := NewAuthorizationService()
	require.NoError(t, err)

	owner := createUser(t, db, "owner", uintPtr(31), models.RoleUser)
	other := createUser(t, db, "other", uintPtr(31), models.RoleUser)
	admin := createUser(t, db, "root", nil, models.RoleAdmin)
	return NewHelpOfferService(db, testConfig(), NewReferenceService(db, testConfig(), nil), authz), &owner, &other, &admin
}

func TestHelpOfferCreateAndFilter(t *testing.T) {
	svc, owner, other, _ := newTestHelpOfferService(t)
	ctx := context.Background()

	offer, err := svc.CreateHelpOffer(ctx, owner.ID, CreateHelpOfferInput{
		BloodType:          "O-",
		IsWillingToDonate:  boolPtr(true),
		CanHelpInEmergency: boolPtr(true),
		Reason:             "regular donor",
	})
	require.NoError(t, err)
	require.NotNil(t, offer.BloodType)
	assert.Equal(t, "O-", offer.BloodType.Type)
	assert.Empty(t, offer.User.Email, "only public user fields are loaded")

	_, err = svc.CreateHelpOffer(ctx, other.ID, CreateHelpOfferInput{
		BloodType:          "A+",
		IsWillingToDonate:  boolPtr(true),
		CanHelpInEmergency: boolPtr(false),
	})
	require.NoError(t, err)

	_, err = svc.CreateHelpOffer(ctx, other.ID, CreateHelpOfferInput{
		BloodType:          "Z+",
		IsWillingToDonate:  boolPtr(true),
		CanHelpInEmergency: boolPtr(true),
	})
	assert.True(t, IsKind(err, KindInvalidInput))

	all, err := svc.ListHelpOffers(ctx, HelpOfferFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.TotalRecords)

	emergency, err := svc.ListHelpOffers(ctx, HelpOfferFilter{CanHelpInEmergency: "true"})
	require.NoError(t, err)
	require.Len(t, emergency.HelpOffers, 1)
	assert.Equal(t, owner.ID, emergency.HelpOffers[0].UserID)

	byType, err := svc.ListHelpOffers(ctx, HelpOfferFilter{BloodType: "A+"})
	require.NoError(t, err)
	require.Len(t, byType.HelpOffers, 1)
	assert.Equal(t, other.ID, byType.HelpOffers[0].UserID)
}

func TestHelpOfferOwnershipRules(t *testing.T) {
	svc, owner, other, admin := newTestHelpOfferService(t)
	ctx := context.Background()

	offer, err := svc.CreateHelpOffer(ctx, owner.ID, CreateHelpOfferInput{
		BloodType:          "B+",
		IsWillingToDonate:  boolPtr(true),
		CanHelpInEmergency: boolPtr(true),
	})
	require.NoError(t, err)

	_, err = svc.UpdateHelpOffer(ctx, Actor{ID: other.ID, Role: other.Role}, offer.ID, UpdateHelpOfferInput{CanHelpInEmergency: boolPtr(false)})
	assert.True(t, IsKind(err, KindForbidden))

	updated, err := svc.UpdateHelpOffer(ctx, Actor{ID: owner.ID, Role: owner.Role}, offer.ID, UpdateHelpOfferInput{CanHelpInEmergency: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.CanHelpInEmergency)
	assert.True(t, updated.IsWillingToDonate)

	err = svc.DeleteHelpOffer(ctx, Actor{ID: other.ID, Role: other.Role}, offer.ID)
	assert.True(t, IsKind(err, KindForbidden))

	require.NoError(t, svc.DeleteHelpOffer(ctx, Actor{ID: admin.ID, Role: admin.Role}, offer.ID))

	_, err = svc.GetHelpOffer(ctx, offer.ID)
	assert.True(t, IsKind(err, KindNotFound))
}

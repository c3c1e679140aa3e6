package donations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/mosque-donations/internal/auth"
	"github.com/hongminglow/mosque-donations/internal/models"
	"github.com/hongminglow/mosque-donations/internal/storage/memory"
)

var testNow = time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *memory.Store, int64, int64) {
	t.Helper()
	store := memory.NewSeeded()
	ctx := context.Background()
	u1, err := store.CreateUser(ctx, models.User{FullName: "U", Email: "u@example.com", Role: models.RoleImam, MosqueID: 1})
	require.NoError(t, err)
	u2, err := store.CreateUser(ctx, models.User{FullName: "V", Email: "v@example.com", Role: models.RoleImam, MosqueID: 1})
	require.NoError(t, err)
	svc := NewService(store).WithClock(func() time.Time { return testNow })
	return svc, store, u1.ID, u2.ID
}

func friday(amount models.Money, purpose int64, date string) CreateInput {
	return CreateInput{MosqueID: 1, Amount: amount, PurposeID: purpose, DonationDate: date}
}

func TestCreateAndListOwnDonations(t *testing.T) {
	svc, _, u, _ := setup(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, u, models.KindFriday, friday(3000, 1, "2025-03-07"))
	require.NoError(t, err)
	assert.Equal(t, "Mosque maintenance", first.Friday.PurposeName)
	_, err = svc.Create(ctx, u, models.KindFriday, friday(7000, 2, "2025-02-28"))
	require.NoError(t, err)

	list, err := svc.List(ctx, u, u)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID, "newest donation date first")
	assert.Equal(t, u, list[0].UserID)
}

func TestListRejectsOtherUsers(t *testing.T) {
	svc, _, u, v := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, u, models.KindFriday, friday(1000, 1, ""))
	require.NoError(t, err)

	_, err = svc.List(ctx, v, u)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestListEmpty(t *testing.T) {
	svc, _, u, _ := setup(t)
	_, err := svc.List(context.Background(), u, u)
	assert.ErrorIs(t, err, ErrNoDonations)
}

func TestCreateRejectsForeignOwner(t *testing.T) {
	svc, store, u, v := setup(t)
	ctx := context.Background()
	in := friday(1000, 1, "")
	in.UserID = v
	_, err := svc.Create(ctx, u, models.KindFriday, in)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	totals, err := store.SumAndCount(ctx, models.KindFriday, v)
	require.NoError(t, err)
	assert.Zero(t, totals.Count)
}

func TestCreateRejectsNonPositiveAmounts(t *testing.T) {
	svc, store, u, _ := setup(t)
	ctx := context.Background()

	for _, amount := range []models.Money{0, -500} {
		_, err := svc.Create(ctx, u, models.KindFriday, friday(amount, 1, ""))
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "amount", verr.Field)

		_, err = svc.Create(ctx, u, models.KindZakat, CreateInput{MosqueID: 1, Amount: amount, Year: 2025})
		require.ErrorAs(t, err, &verr)
	}

	for _, kind := range models.Kinds {
		totals, err := store.SumAndCount(ctx, kind, u)
		require.NoError(t, err)
		assert.Zero(t, totals.Count, "no %s row persisted", kind)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, u, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		kind  models.Kind
		in    CreateInput
		field string
	}{
		{"unknown kind", "sadaqa", friday(100, 1, ""), "kind"},
		{"missing mosque", models.KindFriday, CreateInput{Amount: 100, PurposeID: 1}, "mosque_id"},
		{"missing purpose", models.KindFriday, friday(100, 0, ""), "purpose_id"},
		{"bad date", models.KindFriday, friday(100, 1, "07/03/2025"), "donation_date"},
		{"year too old", models.KindFitr, CreateInput{MosqueID: 1, Amount: 100, Year: 1800}, "year"},
		{"year in future", models.KindFitr, CreateInput{MosqueID: 1, Amount: 100, Year: 2030}, "year"},
		{"unknown purpose", models.KindFriday, friday(100, 99, ""), ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, u, tc.kind, tc.in)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestCreateDefaultsDateToToday(t *testing.T) {
	svc, _, u, _ := setup(t)
	d, err := svc.Create(context.Background(), u, models.KindFriday, friday(100, 1, ""))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC), d.Friday.DonationDate)
}

func TestDeleteOnlyByOwner(t *testing.T) {
	svc, _, u, v := setup(t)
	ctx := context.Background()
	d, err := svc.Create(ctx, v, models.KindFriday, friday(2500, 1, ""))
	require.NoError(t, err)

	err = svc.Delete(ctx, u, models.KindFriday, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(ctx, v, v)
	require.NoError(t, err)
	assert.Len(t, list, 1, "record stays intact")

	require.NoError(t, svc.Delete(ctx, v, models.KindFriday, d.ID))
	_, err = svc.List(ctx, v, v)
	assert.ErrorIs(t, err, ErrNoDonations)

	assert.ErrorIs(t, svc.Delete(ctx, v, models.KindFriday, d.ID), ErrNotFound)
}

func TestDeleteAnnualKindUnsupported(t *testing.T) {
	svc, _, u, _ := setup(t)
	var verr *models.ValidationError
	assert.ErrorAs(t, svc.Delete(context.Background(), u, models.KindZakat, 1), &verr)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-03-07T22:30:00Z", testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("yesterday", testNow)
	assert.Error(t, err)
}

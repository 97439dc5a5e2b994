package letter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/letter"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupLetterService(t *testing.T) (*letter.LetterService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestDB(t, db)
	})

	return letter.NewLetterService(db, letter.NewLetterRepository(), testutil.NewTestConfig().Physical), db
}

func TestCreate_AppliesPolicyDefaults(t *testing.T) {
	// Given: Service with policy defaults
	service, _ := setupLetterService(t)

	// When: Create without limits and with too many recipients
	response, err := service.Create(context.Background(), 7, &letter.CreateLetterRequest{
		Title:                   "첫 편지",
		AllowPhysicalRequests:   true,
		MaxRecipientsPerRequest: 50,
	})

	// Then: Defaults filled in and recipients capped
	require.NoError(t, err)
	assert.NotZero(t, response.ID)
	assert.Equal(t, uint32(7), response.AuthorID)
	assert.Equal(t, model.LetterTypeLetter, response.Type)
	assert.True(t, response.PhysicalSettings.AllowPhysicalRequests)
	assert.False(t, response.PhysicalSettings.AutoApprove)
	assert.Equal(t, 5, response.PhysicalSettings.MaxRequestsPerPerson)
	assert.Equal(t, 10, response.PhysicalSettings.MaxRecipientsPerRequest)
	assert.Equal(t, letter.Counters{}, response.Counters)
}

func TestGet_NotFound(t *testing.T) {
	service, _ := setupLetterService(t)

	_, err := service.Get(context.Background(), 404)

	assert.True(t, errors.Is(err, letter.ErrLetterNotFound))
}

func TestUpdatePhysicalSettings(t *testing.T) {
	// Given: Letter of member 7
	service, _ := setupLetterService(t)
	created, err := service.Create(context.Background(), 7, &letter.CreateLetterRequest{Title: "첫 편지"})
	require.NoError(t, err)

	allow := true
	autoApprove := true
	maxPerPerson := 2

	// When: Another member updates it
	_, err = service.UpdatePhysicalSettings(context.Background(), 8, false, created.ID, &letter.UpdatePhysicalSettingsRequest{
		AllowPhysicalRequests: &allow,
	})

	// Then: Not the author
	assert.True(t, errors.Is(err, letter.ErrNotLetterAuthor))

	// When: Author updates only some fields
	updated, err := service.UpdatePhysicalSettings(context.Background(), 7, false, created.ID, &letter.UpdatePhysicalSettingsRequest{
		AllowPhysicalRequests: &allow,
		AutoApprove:           &autoApprove,
		MaxRequestsPerPerson:  &maxPerPerson,
	})

	// Then: Given fields changed, the rest kept
	require.NoError(t, err)
	assert.True(t, updated.PhysicalSettings.AllowPhysicalRequests)
	assert.True(t, updated.PhysicalSettings.AutoApprove)
	assert.Equal(t, 2, updated.PhysicalSettings.MaxRequestsPerPerson)
	assert.Equal(t, 1, updated.PhysicalSettings.MaxRecipientsPerRequest)

	reloaded, err := service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.PhysicalSettings, reloaded.PhysicalSettings)

	// When: Admin updates someone else's letter
	disallow := false
	_, err = service.UpdatePhysicalSettings(context.Background(), 1, true, created.ID, &letter.UpdatePhysicalSettingsRequest{
		AllowPhysicalRequests: &disallow,
	})

	// Then: Allowed
	assert.NoError(t, err)
}

func TestGormCounterStore(t *testing.T) {
	// Given: Letter with zero counters
	service, db := setupLetterService(t)
	created, err := service.Create(context.Background(), 7, &letter.CreateLetterRequest{Title: "첫 편지"})
	require.NoError(t, err)
	store := letter.NewGormCounterStore()
	ctx := context.Background()

	// When: Apply deltas
	require.NoError(t, store.ApplyDelta(ctx, db, created.ID, letter.Counters{Total: 2, Pending: 2}))
	require.NoError(t, store.ApplyDelta(ctx, db, created.ID, letter.Counters{Pending: -1, Approved: 1}))
	require.NoError(t, store.ApplyDelta(ctx, db, created.ID, letter.Counters{}))

	// Then: Columns reflect the sum
	counters, err := store.Read(ctx, db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, letter.Counters{Total: 2, Pending: 1, Approved: 1}, counters)

	// When: Overwrite
	require.NoError(t, store.Overwrite(ctx, db, created.ID, letter.Counters{Total: 1, Rejected: 1}))

	// Then: Exact values stored
	counters, err = store.Read(ctx, db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, letter.Counters{Total: 1, Rejected: 1}, counters)

	// Then: Unknown letter is reported
	err = store.ApplyDelta(ctx, db, 404, letter.Counters{Total: 1})
	assert.True(t, errors.Is(err, letter.ErrLetterNotFound))
}

func TestCounters_Arithmetic(t *testing.T) {
	a := letter.Counters{Total: 3, Pending: 1, Approved: 2}
	b := letter.Counters{Total: 1, Pending: 1}

	assert.Equal(t, letter.Counters{Total: 4, Pending: 2, Approved: 2}, a.Add(b))
	assert.Equal(t, letter.Counters{Total: 2, Approved: 2}, a.Sub(b))
	assert.Equal(t, letter.Counters{Total: 6, Pending: 2, Approved: 4}, a.Scale(2))
	assert.True(t, a.Sub(a).IsZero())
	assert.False(t, b.IsZero())
}

package physicalrequest_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/letter"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/notify"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/physicalrequest"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/clock"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/lock"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	authorID uint32 = 7
	adminID  uint32 = 99
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(event notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Types() []notify.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]notify.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type testEnv struct {
	db         *gorm.DB
	service    *physicalrequest.PhysicalRequestService
	reconciler *physicalrequest.Reconciler
	letters    *letter.LetterRepository
	counters   *letter.GormCounterStore
	publisher  *recordingPublisher
	clock      *clock.FakeClock
}

// setupServiceEnv wires the service against an in-memory database
func setupServiceEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestDB(t, db)
	})

	cfg := testutil.NewTestConfig()
	requests := physicalrequest.NewGormRequestRepository()
	letters := letter.NewLetterRepository()
	counters := letter.NewGormCounterStore()
	publisher := &recordingPublisher{}
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	service := physicalrequest.NewPhysicalRequestService(physicalrequest.ServiceDeps{
		DB:        db,
		Requests:  requests,
		Letters:   letters,
		Counters:  counters,
		Addresses: physicalrequest.NewAddressValidator(),
		Costs:     physicalrequest.NewCostCalculator(cfg.Physical),
		Locker:    lock.NewLocalLocker(),
		Publisher: publisher,
		Clock:     fakeClock,
		Policy:    cfg.Physical,
	})

	return &testEnv{
		db:         db,
		service:    service,
		reconciler: physicalrequest.NewReconciler(db, requests, letters, counters),
		letters:    letters,
		counters:   counters,
		publisher:  publisher,
		clock:      fakeClock,
	}
}

func (e *testEnv) createLetter(t *testing.T, mutate func(*model.Letter)) *model.Letter {
	t.Helper()

	return testutil.SeedLetter(t, e.db, authorID, mutate)
}

func (e *testEnv) readCounters(t *testing.T, letterID uint32) letter.Counters {
	t.Helper()

	c, err := e.counters.Read(context.Background(), e.db, letterID)
	require.NoError(t, err)
	return c
}

func (e *testEnv) submitOne(t *testing.T, letterID uint32, identity physicalrequest.RequesterIdentity) *physicalrequest.SubmitResponse {
	t.Helper()

	response, err := e.service.Submit(context.Background(), letterID, identity, []physicalrequest.AddressInput{validAddress()})
	require.NoError(t, err)
	return response
}

func (e *testEnv) assertNoDrift(t *testing.T, letterID uint32) {
	t.Helper()

	drift, err := e.reconciler.ReconcileLetter(context.Background(), letterID)
	require.NoError(t, err)
	assert.Nil(t, drift, "counters drifted from ledger")
}

func sessionOf(token string) physicalrequest.SessionIdentity {
	return physicalrequest.SessionIdentity{
		Token:     token,
		HashedIP:  "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		UserAgent: "Mozilla/5.0",
	}
}

func TestSubmit_PendingWithCost(t *testing.T) {
	// Given: Letter requiring approval
	env := setupServiceEnv(t)
	l := env.createLetter(t, nil)

	// When: Session submits to a metro postal code
	response := env.submitOne(t, l.ID, sessionOf("session-a"))

	// Then: Request is pending and priced
	assert.Equal(t, string(model.StatusPending), response.Status)
	assert.True(t, response.NeedsApproval)
	assert.Equal(t, int64(5000), response.TotalCost)
	assert.Len(t, response.RequestIDs, 1)
	assert.Equal(t, response.RequestIDs[0], response.RequestID)
	assert.Len(t, response.BatchID, 26)

	view, err := env.service.GetStatus(context.Background(), response.RequestID, sessionOf("session-a"))
	require.NoError(t, err)
	assert.Equal(t, int64(3000), view.Cost.ShippingCost)
	assert.Equal(t, int64(2000), view.Cost.LetterCost)
	assert.Equal(t, "010-1234-5678", view.Recipient.Phone)
	assert.Nil(t, view.ApprovedAt)

	assert.Equal(t, letter.Counters{Total: 1, Pending: 1}, env.readCounters(t, l.ID))
	assert.Equal(t, []notify.EventType{notify.EventRequestSubmitted}, env.publisher.Types())
	env.assertNoDrift(t, l.ID)
}

func TestSubmit_RemoteTier(t *testing.T) {
	// Given: Letter accepting requests
	env := setupServiceEnv(t)
	l := env.createLetter(t, nil)

	// When: Submit to a Jeju postal code
	input := validAddress()
	input.PostalCode = "63000"
	response, err := env.service.Submit(context.Background(), l.ID, sessionOf("session-a"), []physicalrequest.AddressInput{input})

	// Then: Remote shipping is charged
	require.NoError(t, err)
	assert.Equal(t, int64(5500), response.TotalCost)
}

func TestSubmit_RateLimitPerPerson(t *testing.T) {
	// Given: Letter allowing one request per person
	env := setupServiceEnv(t)
	l := env.createLetter(t, func(l *model.Letter) {
		l.MaxRequestsPerPerson = 1
	})
	env.submitOne(t, l.ID, sessionOf("session-a"))

	// When: Same session submits again
	_, err := env.service.Submit(context.Background(), l.ID, sessionOf("session-a"), []physicalrequest.AddressInput{validAddress()})

	// Then: Rejected with limit details
	require.Error(t, err)
	assert.True(t, errors.Is(err, physicalrequest.ErrRateLimitExceeded))

	var rateErr *physicalrequest.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, int64(1), rateErr.Limit)
	assert.Equal(t, int64(1), rateErr.Current)

	// Then: Another session is unaffected
	env.submitOne(t, l.ID, sessionOf("session-b"))
	assert.Equal(t, letter.Counters{Total: 2, Pending: 2}, env.readCounters(t, l.ID))
}

func TestSubmit_CancelledRequestsFreeTheLimit(t *testing.T) {
	// Given: Limit of one, already used
	env := setupServiceEnv(t)
	l := env.createLetter(t, func(l *model.Letter) {
		l.MaxRequestsPerPerson = 1
	})
	identity := physicalrequest.AccountIdentity{MemberID: 11}
	first := env.submitOne(t, l.ID, identity)

	// When: Cancel and submit again
	_, err := env.service.Cancel(context.Background(), first.RequestID, identity)
	require.NoError(t, err)
	env.submitOne(t, l.ID, identity)

	// Then: Both rows remain in the ledger, one live
	assert.Equal(t, letter.Counters{Total: 2, Pending: 1}, env.readCounters(t, l.ID))
	env.assertNoDrift(t, l.ID)
}

func TestSubmit_LimitIsPerIdentity(t *testing.T) {
	tests := []struct {
		name   string
		first  physicalrequest.RequesterIdentity
		second physicalrequest.RequesterIdentity
	}{
		{name: "two sessions", first: sessionOf("session-a"), second: sessionOf("session-b")},
		{name: "two accounts", first: physicalrequest.AccountIdentity{MemberID: 5}, second: physicalrequest.AccountIdentity{MemberID: 6}},
		{name: "session spelling a member id, then that member", first: sessionOf("5"), second: physicalrequest.AccountIdentity{MemberID: 5}},
		{name: "member, then a session spelling its id", first: physicalrequest.AccountIdentity{MemberID: 5}, second: sessionOf("5")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: Limit of one, used up by the first identity
			env := setupServiceEnv(t)
			l := env.createLetter(t, func(l *model.Letter) {
				l.MaxRequestsPerPerson = 1
			})
			env.submitOne(t, l.ID, tt.first)
			_, err := env.service.Submit(context.Background(), l.ID, tt.first, []physicalrequest.AddressInput{validAddress()})
			require.ErrorIs(t, err, physicalrequest.ErrRateLimitExceeded)

			// When: The second identity submits
			response, err := env.service.Submit(context.Background(), l.ID, tt.second, []physicalrequest.AddressInput{validAddress()})

			// Then: It has its own allowance
			require.NoError(t, err)
			assert.Equal(t, string(model.StatusPending), response.Status)
			assert.Equal(t, letter.Counters{Total: 2, Pending: 2}, env.readCounters(t, l.ID))
			env.assertNoDrift(t, l.ID)
		})
	}
}

func TestSubmit_ConcurrentSubmitsRespectLimit(t *testing.T) {
	// Given: Limit of three per person
	env := setupServiceEnv(t)
	l := env.createLetter(t, func(l *model.Letter) {
		l.MaxRequestsPerPerson = 3
	})
	identity := sessionOf("session-burst")

	// When: Ten submits race for the same identity
	const attempts = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, limited := 0, 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.service.Submit(context.Background(), l.ID, identity, []physicalrequest.AddressInput{validAddress()})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, physicalrequest.ErrRateLimitExceeded):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	// Then: Exactly the limit is accepted
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, attempts-3, limited)
	assert.Equal(t, letter.Counters{Total: 3, Pending: 3}, env.readCounters(t, l.ID))
	env.assertNoDrift(t, l.ID)
}

func TestSubmit_AutoApprove(t *testing.T) {
	// Given: Letter without approval step
	env := setupServiceEnv(t)
	l := env.createLetter(t, func(l *model.Letter) {
		l.AutoApprove = true
	})

	// When: Submit
	response := env.submitOne(t, l.ID, physicalrequest.AccountIdentity{MemberID: 11})

	// Then: Request starts approved
	assert.Equal(t, string(model.StatusApproved), response.Status)
	assert.False(t, response.NeedsApproval)

	view, err := env.service.GetStatus(context.Background(), response.RequestID, physicalrequest.AccountIdentity{MemberID: 11})
	require.NoError(t, err)
	require.NotNil(t, view.ApprovedAt)
	assert.Equal(t, env.clock.Now(), view.ApprovedAt.UTC())

	assert.Equal(t, letter.Counters{Total: 1, Approved: 1}, env.readCounters(t, l.ID))
	env.assertNoDrift(t, l.ID)
}

func TestSubmit_MultipleRecipients(t *testing.T) {
	// Given: Letter allowing three recipients per request
	env := setupServiceEnv(t)
	l := env.createLetter(t, func(l *model.Letter) {
		l.MaxRecipientsPerRequest = 3
	})

	second := validAddress()
	second.RecipientName = "김철수"
	second.PostalCode = "63000"

	// When: Submit two recipients at once
	response, err := env.service.Submit(context.Background(), l.ID, sessionOf("session-a"), []physicalrequest.AddressInput{validAddress(), second})

	// Then: One row per recipient sharing a batch
	require.NoError(t, err)
	assert.Len(t, response.RequestIDs, 2)
	assert.NotEqual(t, response.RequestIDs[0], response.RequestIDs[1])
	assert.Equal(t, int64(5000+5500), response.TotalCost)

	for _, id := range response.RequestIDs {
		view, err := env.service.GetStatus(context.Background(), id, sessionOf("session-a"))
		require.NoError(t, err)
		assert.Equal(t, response.BatchID, view.BatchID)
	}

	assert.Equal(t, letter.Counters{Total: 2, Pending: 2}, env.readCounters(t, l.ID))
	assert.Len(t, env.publisher.Types(), 2)
}

func TestSubmit_TooManyRecipients(t *testing.T) {
	// Given: Single recipient letter
	env := setupServiceEnv(t)
	l := env.createLetter(t, nil)

	// When: Submit two recipients
	_, err := env.service.Submit(context.Background(), l.ID, sessionOf("session-a"), []physicalrequest.AddressInput{validAddress(), validAddress()})

	// Then: Rejected without side effects
	assert.True(t, errors.Is(err, physicalrequest.ErrTooManyRecipients))
	assert.Equal(t, letter.Counters{}, env.readCounters(t, l.ID))
}

func TestSubmit_RecipientFieldIsIndexed(t *testing.T) {
	// Given: Multi recipient letter
	env := setupServiceEnv(t)
	l := env.createLetter(t, func(l *model.Letter) {
		l.MaxRecipientsPerRequest = 3
	})
	invalid := validAddress()
	invalid.PostalCode = "123"

	// When: Second recipient is invalid
	_, err := env.service.Submit(context.Background(), l.ID, sessionOf("session-a"), []physicalrequest.AddressInput{validAddress(), invalid})

	// Then: Error points at the recipient index
	var validationErr *physicalrequest.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "recipients[1].postalCode", validationErr.Field)
}

func TestSubmit_RejectedPreconditions(t *testing.T) {
	testCases := []struct {
		name     string
		letterID func(t *testing.T, env *testEnv) uint32
		inputs   []physicalrequest.AddressInput
		expected error
	}{
		{
			name: "신청 비허용 편지",
			letterID: func(t *testing.T, env *testEnv) uint32 {
				return env.createLetter(t, func(l *model.Letter) { l.AllowPhysicalRequests = false }).ID
			},
			inputs:   []physicalrequest.AddressInput{validAddress()},
			expected: physicalrequest.ErrRequestsNotAllowed,
		},
		{
			name:     "존재하지 않는 편지",
			letterID: func(t *testing.T, env *testEnv) uint32 { return 404 },
			inputs:   []physicalrequest.AddressInput{validAddress()},
			expected: letter.ErrLetterNotFound,
		},
		{
			name: "수신자 없음",
			letterID: func(t *testing.T, env *testEnv) uint32 {
				return env.createLetter(t, nil).ID
			},
			inputs:   nil,
			expected: physicalrequest.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupServiceEnv(t)

			_, err := env.service.Submit(context.Background(), tc.letterID(t, env), sessionOf("session-a"), tc.inputs)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.expected), "got %v", err)
			assert.Empty(t, env.publisher.Types())
		})
	}
}

func TestGetStatus_OwnershipAndIdempotency(t *testing.T) {
	// Given: Request submitted by a session
	env := setupServiceEnv(t)
	l := env.createLetter(t, nil)
	response := env.submitOne(t, l.ID, sessionOf("session-a"))

	// When: Owner reads twice
	first, err := env.service.GetStatus(context.Background(), response.RequestID, sessionOf("session-a"))
	require.NoError(t, err)
	second, err := env.service.GetStatus(context.Background(), response.RequestID, sessionOf("session-a"))
	require.NoError(t, err)

	// Then: Reads are stable and side-effect free
	assert.Equal(t, first, second)
	assert.Equal(t, letter.Counters{Total: 1, Pending: 1}, env.readCounters(t, l.ID))

	// Then: Other identities are denied, unknown ids are not found
	_, err = env.service.GetStatus(context.Background(), response.RequestID, sessionOf("session-b"))
	assert.True(t, errors.Is(err, physicalrequest.ErrAccessDenied))

	_, err = env.service.GetStatus(context.Background(), response.RequestID, physicalrequest.AccountIdentity{MemberID: 11})
	assert.True(t, errors.Is(err, physicalrequest.ErrAccessDenied))

	_, err = env.service.GetStatus(context.Background(), "01JNZZZZZZZZZZZZZZZZZZZZZZ", sessionOf("session-a"))
	assert.True(t, errors.Is(err, physicalrequest.ErrRequestNotFound))
}

func TestCancel(t *testing.T) {
	// Given: Approved request
	env := setupServiceEnv(t)
	l := env.createLetter(t, func(l *model.Letter) {
		l.AutoApprove = true
	})
	identity := physicalrequest.AccountIdentity{MemberID: 11}
	response := env.submitOne(t, l.ID, identity)

	// When: Another member tries to cancel
	_, err := env.service.Cancel(context.Background(), response.RequestID, physicalrequest.AccountIdentity{MemberID: 12})

	// Then: Denied
	assert.True(t, errors.Is(err, physicalrequest.ErrAccessDenied))

	// When: Owner cancels
	env.clock.Advance(time.Hour)
	view, err := env.service.Cancel(context.Background(), response.RequestID, identity)

	// Then: Cancelled and counters released
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusCancelled), view.Status)
	require.NotNil(t, view.CancelledAt)
	assert.Equal(t, env.clock.Now(), view.CancelledAt.UTC())
	assert.Equal(t, letter.Counters{Total: 1}, env.readCounters(t, l.ID))

	// When: Cancel twice
	_, err = env.service.Cancel(context.Background(), response.RequestID, identity)

	// Then: Already terminal
	assert.True(t, errors.Is(err, physicalrequest.ErrAlreadyTerminal))
	assert.Equal(t, []notify.EventType{notify.EventRequestSubmitted, notify.EventRequestCancelled}, env.publisher.Types())
	env.assertNoDrift(t, l.ID)
}

func TestDecideApproval_Approve(t *testing.T) {
	// Given: Pending request
	env := setupServiceEnv(t)
	l := env.createLetter(t, nil)
	response := env.submitOne(t, l.ID, sessionOf("session-a"))

	// When: Admin approves
	view, err := env.service.DecideApproval(context.Background(), l.ID, response.RequestID, adminID, true, physicalrequest.DecisionRequest{Action: "approve"})

	// Then: Approved and counters moved
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusApproved), view.Status)
	require.NotNil(t, view.ApprovedAt)
	assert.Equal(t, letter.Counters{Total: 1, Pending: 0, Approved: 1}, env.readCounters(t, l.ID))

	// When: Decide again
	_, err = env.service.DecideApproval(context.Background(), l.ID, response.RequestID, adminID, true, physicalrequest.DecisionRequest{Action: "reject"})

	// Then: Already processed, counters unchanged
	assert.True(t, errors.Is(err, physicalrequest.ErrAlreadyProcessed))
	assert.Equal(t, letter.Counters{Total: 1, Approved: 1}, env.readCounters(t, l.ID))
	assert.Equal(t, []notify.EventType{notify.EventRequestSubmitted, notify.EventRequestApproved}, env.publisher.Types())
	env.assertNoDrift(t, l.ID)
}

func TestDecideApproval_AuthorRejects(t *testing.T) {
	// Given: Pending request
	env := setupServiceEnv(t)
	l := env.createLetter(t, nil)
	response := env.submitOne(t, l.ID, sessionOf("session-a"))

	// When: Author rejects with a reason
	view, err := env.service.DecideApproval(context.Background(), l.ID, response.RequestID, authorID, false, physicalrequest.DecisionRequest{
		Action: "reject",
		Reason: "  주소 확인이 어렵습니다  ",
	})

	// Then: Rejected with trimmed reason
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusRejected), view.Status)
	assert.Equal(t, "주소 확인이 어렵습니다", view.RejectionReason)
	assert.Equal(t, letter.Counters{Total: 1, Rejected: 1}, env.readCounters(t, l.ID))
	env.assertNoDrift(t, l.ID)
}

func TestDecideApproval_Authorization(t *testing.T) {
	// Given: Two letters with a pending request on the first
	env := setupServiceEnv(t)
	l := env.createLetter(t, nil)
	other := env.createLetter(t, func(l *model.Letter) { l.AuthorID = 8 })
	response := env.submitOne(t, l.ID, sessionOf("session-a"))

	// When: A non author decides
	_, err := env.service.DecideApproval(context.Background(), l.ID, response.RequestID, 8, false, physicalrequest.DecisionRequest{Action: "approve"})

	// Then: Not author
	assert.True(t, errors.Is(err, physicalrequest.ErrNotAuthor))

	// When: The other letter's author addresses the request through their own letter
	_, err = env.service.DecideApproval(context.Background(), other.ID, response.RequestID, 8, false, physicalrequest.DecisionRequest{Action: "approve"})

	// Then: Reported as not found
	assert.True(t, errors.Is(err, physicalrequest.ErrRequestNotFound))
	assert.Equal(t, letter.Counters{Total: 1, Pending: 1}, env.readCounters(t, l.ID))
}

// advanceTo moves an auto approved request through the admin shipment steps
func advanceTo(t *testing.T, env *testEnv, requestID string, steps ...physicalrequest.ShipmentRequest) {
	t.Helper()

	for _, step := range steps {
		_, err := env.service.UpdateShipmentStatus(context.Background(), requestID, adminID, step)
		require.NoError(t, err)
	}
}

func TestUpdateShipmentStatus_SentRequiresTracking(t *testing.T) {
	// Given: Request in writing
	env := setupServiceEnv(t)
	l := env.createLetter(t, func(l *model.Letter) { l.AutoApprove = true })
	response := env.submitOne(t, l.ID, sessionOf("session-a"))
	advanceTo(t, env, response.RequestID, physicalrequest.ShipmentRequest{Status: "writing"})

	// When: Mark sent without tracking
	_, err := env.service.UpdateShipmentStatus(context.Background(), response.RequestID, adminID, physicalrequest.ShipmentRequest{Status: "sent"})

	// Then: Rejected, still writing
	assert.True(t, errors.Is(err, physicalrequest.ErrTrackingRequired))
	current, err := env.service.AdminGet(context.Background(), response.RequestID)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusWriting), current.Status)

	// When: Mark sent with tracking and a note
	env.clock.Advance(2 * time.Hour)
	view, err := env.service.UpdateShipmentStatus(context.Background(), response.RequestID, adminID, physicalrequest.ShipmentRequest{
		Status:          "sent",
		TrackingNumber:  "1234567890",
		ShippingCompany: "우체국",
		Note:            "오전 발송",
	})

	// Then: Sent with shipping details and the note recorded
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusSent), view.Status)
	require.NotNil(t, view.Shipping)
	assert.Equal(t, "1234567890", view.Shipping.TrackingNumber)
	assert.Equal(t, "우체국", view.Shipping.ShippingCompany)
	require.NotNil(t, view.Shipping.SentAt)
	assert.Equal(t, env.clock.Now(), view.Shipping.SentAt.UTC())
	require.Len(t, view.Notes, 1)
	assert.Equal(t, "오전 발송", view.Notes[0].Note)
	assert.Equal(t, adminID, view.Notes[0].AuthorID)
}

func TestUpdateShipmentStatus_FullLifecycle(t *testing.T) {
	// Given: Approved request
	env := setupServiceEnv(t)
	l := env.createLetter(t, func(l *model.Letter) { l.AutoApprove = true })
	response := env.submitOne(t, l.ID, sessionOf("session-a"))

	// When: Admin drives it to delivered
	advanceTo(t, env, response.RequestID,
		physicalrequest.ShipmentRequest{Status: "writing"},
		physicalrequest.ShipmentRequest{Status: "sent", TrackingNumber: "1234567890", ShippingCompany: "CJ대한통운"},
		physicalrequest.ShipmentRequest{Status: "delivered"},
	)

	// Then: Completed counter incremented and ledger agrees
	view, err := env.service.AdminGet(context.Background(), response.RequestID)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusDelivered), view.Status)
	require.NotNil(t, view.Shipping.DeliveredAt)
	assert.Equal(t, letter.Counters{Total: 1, Approved: 1, Completed: 1}, env.readCounters(t, l.ID))
	env.assertNoDrift(t, l.ID)

	// When: Requester tries to cancel after delivery
	_, err = env.service.Cancel(context.Background(), response.RequestID, sessionOf("session-a"))

	// Then: Already terminal
	assert.True(t, errors.Is(err, physicalrequest.ErrAlreadyTerminal))
}

func TestUpdateShipmentStatus_InvalidTransitions(t *testing.T) {
	testCases := []struct {
		name   string
		target string
	}{
		{name: "작성 없이 발송", target: "sent"},
		{name: "작성 없이 배송 완료", target: "delivered"},
		{name: "작성 전 실패", target: "failed"},
		{name: "관리 대상 아닌 상태", target: "approved"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Given: Pending request
			env := setupServiceEnv(t)
			l := env.createLetter(t, nil)
			response := env.submitOne(t, l.ID, sessionOf("session-a"))

			// When: Jump to a later shipment status
			_, err := env.service.UpdateShipmentStatus(context.Background(), response.RequestID, adminID, physicalrequest.ShipmentRequest{
				Status:          tc.target,
				TrackingNumber:  "1234567890",
				ShippingCompany: "우체국",
			})

			// Then: Invalid transition, nothing changed
			var transitionErr *physicalrequest.TransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Equal(t, model.StatusPending, transitionErr.From)
			assert.Equal(t, letter.Counters{Total: 1, Pending: 1}, env.readCounters(t, l.ID))
		})
	}
}

func TestUpdateShipmentStatus_Failed(t *testing.T) {
	// Given: Sent request
	env := setupServiceEnv(t)
	l := env.createLetter(t, func(l *model.Letter) { l.AutoApprove = true })
	response := env.submitOne(t, l.ID, sessionOf("session-a"))
	advanceTo(t, env, response.RequestID,
		physicalrequest.ShipmentRequest{Status: "writing"},
		physicalrequest.ShipmentRequest{Status: "sent", TrackingNumber: "1234567890", ShippingCompany: "우체국"},
	)

	// When: Delivery fails
	view, err := env.service.UpdateShipmentStatus(context.Background(), response.RequestID, adminID, physicalrequest.ShipmentRequest{
		Status:        "failed",
		FailureReason: "수취인 불명",
	})

	// Then: Failed with reason, counted as approved
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusFailed), view.Status)
	assert.Equal(t, "수취인 불명", view.Shipping.FailureReason)
	assert.Equal(t, letter.Counters{Total: 1, Approved: 1}, env.readCounters(t, l.ID))
	env.assertNoDrift(t, l.ID)
}

func TestAppendNote(t *testing.T) {
	// Given: Pending request
	env := setupServiceEnv(t)
	l := env.createLetter(t, nil)
	response := env.submitOne(t, l.ID, physicalrequest.AccountIdentity{MemberID: 11})

	// When: Admin appends two notes
	env.clock.Advance(time.Minute)
	_, err := env.service.AppendNote(context.Background(), response.RequestID, adminID, "전화 확인 필요")
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	view, err := env.service.AppendNote(context.Background(), response.RequestID, adminID, "  확인 완료 ")

	// Then: Notes are kept in order and status is unchanged
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusPending), view.Status)
	require.Len(t, view.Notes, 2)
	assert.Equal(t, "전화 확인 필요", view.Notes[0].Note)
	assert.Equal(t, "확인 완료", view.Notes[1].Note)
	assert.Equal(t, env.clock.Now(), view.UpdatedAt.UTC())
	assert.Equal(t, "11", view.MemberID)

	// When: Note on an unknown request
	_, err = env.service.AppendNote(context.Background(), "01JNZZZZZZZZZZZZZZZZZZZZZZ", adminID, "메모")

	// Then: Not found
	assert.True(t, errors.Is(err, physicalrequest.ErrRequestNotFound))
}

func TestAdminGet_HidesSessionToken(t *testing.T) {
	// Given: Session request
	env := setupServiceEnv(t)
	l := env.createLetter(t, nil)
	response := env.submitOne(t, l.ID, sessionOf("session-secret"))

	// When: Admin reads it
	view, err := env.service.AdminGet(context.Background(), response.RequestID)

	// Then: Requester metadata is visible, token is not
	require.NoError(t, err)
	assert.Equal(t, model.RequesterTypeSession, view.RequesterType)
	assert.Empty(t, view.MemberID)
	assert.NotEmpty(t, view.HashedIP)
	assert.Equal(t, "Mozilla/5.0", view.UserAgent)
	assert.Empty(t, view.Notes)
}

func TestReconcile_CorrectsDrift(t *testing.T) {
	// Given: Two letters, one with tampered counters
	env := setupServiceEnv(t)
	l := env.createLetter(t, nil)
	clean := env.createLetter(t, nil)
	env.submitOne(t, l.ID, sessionOf("session-a"))
	env.submitOne(t, l.ID, sessionOf("session-b"))
	env.submitOne(t, clean.ID, sessionOf("session-a"))

	require.NoError(t, env.db.Model(&model.Letter{}).Where("id = ?", l.ID).
		Updates(map[string]interface{}{"pending_requests": 9, "completed_requests": 4}).Error)

	// When: Reconcile every letter
	report, err := env.reconciler.ReconcileAll(context.Background(), physicalrequest.TriggerAdmin)

	// Then: Only the tampered letter is reported and fixed
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	require.Len(t, report.Drifted, 1)
	assert.Equal(t, l.ID, report.Drifted[0].LetterID)
	assert.Equal(t, int64(9), report.Drifted[0].Cached.Pending)
	assert.Equal(t, letter.Counters{Total: 2, Pending: 2}, report.Drifted[0].Actual)
	assert.Equal(t, letter.Counters{Total: 2, Pending: 2}, env.readCounters(t, l.ID))

	// When: Reconcile again
	report, err = env.reconciler.ReconcileAll(context.Background(), physicalrequest.TriggerScheduler)

	// Then: Nothing left to fix
	require.NoError(t, err)
	assert.Empty(t, report.Drifted)
}

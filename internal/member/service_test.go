package member_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/member"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/middleware"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedRequest(t *testing.T, db *gorm.DB, id string, letterID, memberID uint32, status model.PhysicalRequestStatus) {
	t.Helper()

	require.NoError(t, db.Create(&model.PhysicalRequest{
		ID:             id,
		LetterID:       letterID,
		BatchID:        id,
		RequesterType:  model.RequesterTypeAccount,
		RequesterKey:   strconv.FormatUint(uint64(memberID), 10),
		RecipientName:  "홍길동",
		RecipientPhone: "010-1234-5678",
		PostalCode:     "06000",
		AddressLine1:   "서울특별시 강남구 테헤란로 1",
		ShippingCost:   3000,
		LetterCost:     2000,
		TotalCost:      5000,
		Status:         status,
	}).Error)
}

func TestGetProfile_IncludesActivity(t *testing.T) {
	// Given: Member who wrote a letter and requested three copies of another
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	reader := testutil.SeedMember(t, db, "reader@example.com", model.RoleUser)
	testutil.SeedLetter(t, db, reader.ID, nil)
	other := testutil.SeedLetter(t, db, reader.ID+100, nil)

	seedRequest(t, db, "01J0000000000000000000000A", other.ID, reader.ID, model.StatusPending)
	seedRequest(t, db, "01J0000000000000000000000B", other.ID, reader.ID, model.StatusSent)
	seedRequest(t, db, "01J0000000000000000000000C", other.ID, reader.ID, model.StatusCancelled)
	seedRequest(t, db, "01J0000000000000000000000D", other.ID, reader.ID+1, model.StatusPending)

	service := member.NewMemberService(db, member.NewMemberRepository())

	// When: Reading the profile
	profile, err := service.GetProfile(context.Background(), reader.ID)

	// Then: Counts are scoped to the member
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", profile.Email)
	assert.Equal(t, model.RoleUser, profile.Role)
	assert.Equal(t, member.ProfileActivity{Letters: 1, PhysicalRequests: 3, LivePhysicalRequests: 2}, profile.Activity)
}

func TestGetProfile_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	_, err := member.NewMemberService(db, member.NewMemberRepository()).GetProfile(context.Background(), 404)

	assert.ErrorIs(t, err, member.ErrMemberNotFound)
}

func TestGetProfileHandler(t *testing.T) {
	// Given: Admin member behind the JWT middleware
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	cfg := testutil.NewTestConfig()

	admin := testutil.SeedMember(t, db, "admin@example.com", model.RoleAdmin)
	handler := member.NewMemberHandler(member.NewMemberService(db, member.NewMemberRepository()))

	router := testutil.SetupTestRouter(middleware.JWT(cfg))
	router.GET("/api/v1/members/me", handler.GetProfile)

	// When: Calling with and without a token
	ok := testutil.ExecuteRequest(t, router, testutil.TestRequest{
		Method:  http.MethodGet,
		URL:     "/api/v1/members/me",
		Headers: testutil.BearerHeader(t, cfg, admin.ID, model.RoleAdmin),
	})
	anonymous := testutil.ExecuteRequest(t, router, testutil.TestRequest{
		Method: http.MethodGet,
		URL:    "/api/v1/members/me",
	})

	// Then
	require.Equal(t, http.StatusOK, ok.Code)
	var profile member.GetProfileResponse
	testutil.ParseResponse(t, ok, &profile)
	assert.Equal(t, admin.ID, profile.ID)
	assert.Equal(t, model.RoleAdmin, profile.Role)

	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)
	assert.Equal(t, "AUTH-000", testutil.ParseError(t, anonymous).Code)
}

func TestChangeRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	service := member.NewMemberService(db, member.NewMemberRepository())

	admin := testutil.SeedMember(t, db, "admin@example.com", model.RoleAdmin)
	reader := testutil.SeedMember(t, db, "reader@example.com", model.RoleUser)

	// When: Admin promotes a reader
	profile, err := service.ChangeRole(context.Background(), admin.ID, reader.ID, model.RoleAdmin)

	// Then: Role and audit column are stored
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, profile.Role)

	var stored model.Member
	require.NoError(t, db.First(&stored, reader.ID).Error)
	assert.Equal(t, model.RoleAdmin, stored.Role)
	require.NotNil(t, stored.UpdatedBy)
	assert.Equal(t, admin.ID, *stored.UpdatedBy)

	// Then: Self change and unknown member are refused
	_, err = service.ChangeRole(context.Background(), admin.ID, admin.ID, model.RoleUser)
	assert.ErrorIs(t, err, member.ErrSelfRoleChange)

	_, err = service.ChangeRole(context.Background(), admin.ID, 404, model.RoleUser)
	assert.ErrorIs(t, err, member.ErrMemberNotFound)
}

func TestChangeRoleHandler_ValidatesRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	cfg := testutil.NewTestConfig()

	admin := testutil.SeedMember(t, db, "admin@example.com", model.RoleAdmin)
	reader := testutil.SeedMember(t, db, "reader@example.com", model.RoleUser)
	handler := member.NewMemberHandler(member.NewMemberService(db, member.NewMemberRepository()))

	router := testutil.SetupTestRouter(middleware.JWT(cfg), middleware.RequireAdmin())
	router.PATCH("/api/v1/admin/members/:memberId/role", handler.ChangeRole)

	// When: Unknown role
	recorder := testutil.ExecuteRequest(t, router, testutil.TestRequest{
		Method:  http.MethodPatch,
		URL:     "/api/v1/admin/members/" + strconv.FormatUint(uint64(reader.ID), 10) + "/role",
		Body:    member.ChangeRoleRequest{Role: "OWNER"},
		Headers: testutil.BearerHeader(t, cfg, admin.ID, model.RoleAdmin),
	})

	// Then: Binding error names the field
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "[role] USER ADMIN 중 하나여야 합니다.", testutil.ParseError(t, recorder).Message)

	// When: Admin demotes itself through the API
	recorder = testutil.ExecuteRequest(t, router, testutil.TestRequest{
		Method:  http.MethodPatch,
		URL:     "/api/v1/admin/members/" + strconv.FormatUint(uint64(admin.ID), 10) + "/role",
		Body:    member.ChangeRoleRequest{Role: model.RoleUser},
		Headers: testutil.BearerHeader(t, cfg, admin.ID, model.RoleAdmin),
	})

	// Then
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "MEMBER-003", testutil.ParseError(t, recorder).Code)
}

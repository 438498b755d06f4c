package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/internal/app/repository"
	"github.com/jwyun/staffpass-backend/internal/app/service"
	"github.com/jwyun/staffpass-backend/internal/db"
	"github.com/jwyun/staffpass-backend/internal/middleware"
	"github.com/jwyun/staffpass-backend/internal/websocket"
	"github.com/jwyun/staffpass-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testControllerSecret = "test-secret"

type verificationControllerEnv struct {
	router   *gin.Engine
	userRepo repository.UserRepository
	staff    *model.User
	admin    *model.User
	store    *model.Store
}

func setupVerificationControllerTest(t *testing.T) *verificationControllerEnv {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	userRepo := repository.NewUserRepository(testDB)
	storeRepo := repository.NewStoreRepository(testDB)
	rosterRepo := repository.NewRosterRepository(testDB)
	verificationRepo := repository.NewVerificationRepository(testDB)
	notificationRepo := repository.NewNotificationRepository(testDB)

	hub := websocket.NewHub()
	notifier := service.NewNotificationService(notificationRepo, userRepo, hub)
	scoringService := service.NewScoringService(verificationRepo, storeRepo, rosterRepo)
	verificationService := service.NewVerificationService(verificationRepo, userRepo, scoringService, notifier, testDB)

	ctrl := NewVerificationController(verificationService, scoringService)
	authMiddleware := middleware.NewAuthMiddleware(testControllerSecret)

	router := gin.New()
	authed := router.Group("/verifications", authMiddleware.Authenticate())
	{
		authed.POST("", ctrl.Submit)
		authed.GET("/me", ctrl.ListMine)
		authed.GET("/:id", ctrl.GetDetail)
		authed.POST("/:id/reply", ctrl.Reply)
	}
	adminGroup := router.Group("/admin/verifications",
		authMiddleware.Authenticate(),
		authMiddleware.RequireRole(string(model.RoleAdmin)))
	{
		adminGroup.GET("", ctrl.ListByStatus)
		adminGroup.POST("/:id/approve", ctrl.Approve)
		adminGroup.POST("/:id/reject", ctrl.Reject)
		adminGroup.POST("/:id/request-info", ctrl.RequestInfo)
		adminGroup.POST("/:id/rescore", ctrl.Rescore)
		adminGroup.POST("/:id/remind", ctrl.SendReminder)
	}

	staff := &model.User{
		Email:        "staff@example.com",
		PasswordHash: "hashed",
		Name:         "김철수",
		Role:         model.RoleStaff,
	}
	require.NoError(t, userRepo.Create(staff))

	admin := &model.User{
		Email:        "admin@example.com",
		PasswordHash: "hashed",
		Name:         "관리자",
		Role:         model.RoleAdmin,
	}
	require.NoError(t, userRepo.Create(admin))

	brand := &model.Brand{Name: "컨트롤러브랜드", IsActive: true}
	require.NoError(t, storeRepo.CreateBrand(brand))

	lat := 37.5665
	lng := 126.9780
	store := &model.Store{
		BrandID:   brand.ID,
		Name:      "시청점",
		Region:    "서울특별시",
		District:  "중구",
		Latitude:  &lat,
		Longitude: &lng,
		IsActive:  true,
	}
	require.NoError(t, storeRepo.Create(store))

	return &verificationControllerEnv{
		router:   router,
		userRepo: userRepo,
		staff:    staff,
		admin:    admin,
		store:    store,
	}
}

func (env *verificationControllerEnv) tokenFor(t *testing.T, user *model.User) string {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		testControllerSecret,
		15*time.Minute,
		7*24*time.Hour,
	)
	require.NoError(t, err)
	return tokens.AccessToken
}

func (env *verificationControllerEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *verificationControllerEnv) submit(t *testing.T) uint {
	t.Helper()

	w := env.do(t, "POST", "/verifications", env.tokenFor(t, env.staff), SubmitVerificationRequest{
		StoreID:   &env.store.ID,
		PhotoURL:  "https://cdn.example.com/selfie.jpg",
		DeviceLat: env.store.Latitude,
		DeviceLng: env.store.Longitude,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Request model.VerificationRequest `json:"request"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotZero(t, response.Request.ID)
	return response.Request.ID
}

func TestVerificationController_Submit(t *testing.T) {
	env := setupVerificationControllerTest(t)

	w := env.do(t, "POST", "/verifications", env.tokenFor(t, env.staff), SubmitVerificationRequest{
		StoreID:   &env.store.ID,
		PhotoURL:  "https://cdn.example.com/selfie.jpg",
		DeviceLat: env.store.Latitude,
		DeviceLng: env.store.Longitude,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	request := response["request"].(map[string]interface{})
	assert.Equal(t, "pending", request["status"])
	assert.NotNil(t, request["auto_score"])

	// 같은 신청자의 중복 제출은 409
	w = env.do(t, "POST", "/verifications", env.tokenFor(t, env.staff), SubmitVerificationRequest{
		StoreID:  &env.store.ID,
		PhotoURL: "https://cdn.example.com/selfie2.jpg",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "VERIFICATION_ALREADY_PENDING")
}

func TestVerificationController_SubmitRequiresPhoto(t *testing.T) {
	env := setupVerificationControllerTest(t)

	w := env.do(t, "POST", "/verifications", env.tokenFor(t, env.staff), SubmitVerificationRequest{
		StoreID: &env.store.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerificationController_AdminRoutesRequireAdminRole(t *testing.T) {
	env := setupVerificationControllerTest(t)
	requestID := env.submit(t)

	w := env.do(t, "POST", fmt.Sprintf("/admin/verifications/%d/approve", requestID), env.tokenFor(t, env.staff), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVerificationController_ApproveAndConflictOnSecondDecision(t *testing.T) {
	env := setupVerificationControllerTest(t)
	requestID := env.submit(t)
	adminToken := env.tokenFor(t, env.admin)

	w := env.do(t, "POST", fmt.Sprintf("/admin/verifications/%d/approve", requestID), adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"approved"`)

	// 종결된 요청에 대한 두 번째 심사는 409
	w = env.do(t, "POST", fmt.Sprintf("/admin/verifications/%d/reject", requestID), adminToken,
		RejectVerificationRequest{Reason: string(model.RejectOther)})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "VERIFICATION_ALREADY_DECIDED")
}

func TestVerificationController_RejectValidatesReasonCode(t *testing.T) {
	env := setupVerificationControllerTest(t)
	requestID := env.submit(t)

	w := env.do(t, "POST", fmt.Sprintf("/admin/verifications/%d/reject", requestID), env.tokenFor(t, env.admin),
		RejectVerificationRequest{Reason: "not_in_the_list"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VERIFICATION_INVALID_REASON")
}

func TestVerificationController_RequestInfoAndReplyFlow(t *testing.T) {
	env := setupVerificationControllerTest(t)
	requestID := env.submit(t)
	adminToken := env.tokenFor(t, env.admin)
	staffToken := env.tokenFor(t, env.staff)

	w := env.do(t, "POST", fmt.Sprintf("/admin/verifications/%d/request-info", requestID), adminToken,
		RequestInfoRequest{Message: "코드가 보이게 다시 찍어주세요."})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"needs_info"`)

	w = env.do(t, "POST", fmt.Sprintf("/verifications/%d/reply", requestID), staffToken,
		ReplyRequest{Body: "재촬영해서 올렸습니다."})
	assert.Equal(t, http.StatusCreated, w.Code)

	// 상세 조회에 이력이 모두 붙어 나와야 한다
	w = env.do(t, "GET", fmt.Sprintf("/verifications/%d", requestID), staffToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "코드가 보이게 다시 찍어주세요.")
	assert.Contains(t, w.Body.String(), "재촬영해서 올렸습니다.")
}

func TestVerificationController_ReplyAfterDecision(t *testing.T) {
	env := setupVerificationControllerTest(t)
	requestID := env.submit(t)
	staffToken := env.tokenFor(t, env.staff)

	w := env.do(t, "POST", fmt.Sprintf("/admin/verifications/%d/approve", requestID), env.tokenFor(t, env.admin), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// 종결 이후에도 신청자 답변은 거부되지 않는다
	w = env.do(t, "POST", fmt.Sprintf("/verifications/%d/reply", requestID), staffToken,
		ReplyRequest{Body: "승인 감사합니다."})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "GET", fmt.Sprintf("/verifications/%d", requestID), staffToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "승인 감사합니다.")
	assert.Contains(t, w.Body.String(), `"status":"approved"`)
}

func TestVerificationController_SendReminderForRequest(t *testing.T) {
	env := setupVerificationControllerTest(t)
	requestID := env.submit(t)
	adminToken := env.tokenFor(t, env.admin)

	w := env.do(t, "POST", fmt.Sprintf("/admin/verifications/%d/remind", requestID), adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)

	// 종결된 요청에는 독촉 불가
	w = env.do(t, "POST", fmt.Sprintf("/admin/verifications/%d/approve", requestID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, "POST", fmt.Sprintf("/admin/verifications/%d/remind", requestID), adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "VERIFICATION_ALREADY_DECIDED")
}

func TestVerificationController_GetDetailForbiddenForOtherStaff(t *testing.T) {
	env := setupVerificationControllerTest(t)
	requestID := env.submit(t)

	// 다른 스태프 계정 생성
	other := &model.User{
		Email:        "other@example.com",
		PasswordHash: "hashed",
		Name:         "남의요청",
		Role:         model.RoleStaff,
	}
	require.NoError(t, env.userRepo.Create(other))

	w := env.do(t, "GET", fmt.Sprintf("/verifications/%d", requestID), env.tokenFor(t, other), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVerificationController_ListByStatus(t *testing.T) {
	env := setupVerificationControllerTest(t)
	env.submit(t)
	adminToken := env.tokenFor(t, env.admin)

	w := env.do(t, "GET", "/admin/verifications?status=pending", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = env.do(t, "GET", "/admin/verifications?status=bogus", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerificationController_Rescore(t *testing.T) {
	env := setupVerificationControllerTest(t)
	requestID := env.submit(t)
	adminToken := env.tokenFor(t, env.admin)

	w := env.do(t, "POST", fmt.Sprintf("/admin/verifications/%d/rescore", requestID), adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "auto_score")

	w = env.do(t, "POST", "/admin/verifications/99999/rescore", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/internal/app/repository"
	"github.com/jwyun/staffpass-backend/internal/db"
	"github.com/jwyun/staffpass-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type verificationTestEnv struct {
	db                  *gorm.DB
	verificationService VerificationService
	verificationRepo    repository.VerificationRepository
	staff               *model.User
	admin               *model.User
	store               *model.Store
}

func setupVerificationServiceTest(t *testing.T) *verificationTestEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	userRepo := repository.NewUserRepository(testDB)
	storeRepo := repository.NewStoreRepository(testDB)
	rosterRepo := repository.NewRosterRepository(testDB)
	verificationRepo := repository.NewVerificationRepository(testDB)
	notificationRepo := repository.NewNotificationRepository(testDB)

	hub := websocket.NewHub()
	notifier := NewNotificationService(notificationRepo, userRepo, hub)
	scoringService := NewScoringService(verificationRepo, storeRepo, rosterRepo)
	verificationService := NewVerificationService(verificationRepo, userRepo, scoringService, notifier, testDB)

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

	brand := &model.Brand{Name: "테스트치킨", IsActive: true}
	require.NoError(t, storeRepo.CreateBrand(brand))

	lat := 37.4979
	lng := 127.0276
	store := &model.Store{
		BrandID:   brand.ID,
		Name:      "강남점",
		Region:    "서울특별시",
		District:  "강남구",
		Latitude:  &lat,
		Longitude: &lng,
		IsActive:  true,
	}
	require.NoError(t, storeRepo.Create(store))

	require.NoError(t, rosterRepo.Create(&model.RosterEntry{
		StoreID: store.ID,
		Email:   "staff@example.com",
		Name:    "김철수",
	}))

	return &verificationTestEnv{
		db:                  testDB,
		verificationService: verificationService,
		verificationRepo:    verificationRepo,
		staff:               staff,
		admin:               admin,
		store:               store,
	}
}

// submitAtStore 매장 좌표와 같은 위치에서 방금 찍은 제출 입력
func (env *verificationTestEnv) submitAtStore() SubmitVerificationInput {
	capturedAt := time.Now()
	return SubmitVerificationInput{
		StoreID:          &env.store.ID,
		PhotoURL:         "https://cdn.example.com/selfie.jpg",
		DeviceLat:        env.store.Latitude,
		DeviceLng:        env.store.Longitude,
		DeviceCapturedAt: &capturedAt,
	}
}

func TestVerificationService_Submit(t *testing.T) {
	env := setupVerificationServiceTest(t)
	ctx := context.Background()

	req, err := env.verificationService.Submit(ctx, env.staff.ID, env.submitAtStore())
	require.NoError(t, err)
	require.NotNil(t, req)

	assert.Equal(t, model.VerificationStatusPending, req.Status)
	assert.Equal(t, env.staff.ID, req.ApplicantID)
	assert.Equal(t, "staff@example.com", req.ApplicantEmail)

	// 제출 직후 자동 채점이 반영되어 있어야 한다:
	// 거리 0m(60) + 명부 이메일 일치(30) + 신선한 촬영(10)
	require.NotNil(t, req.AutoScore)
	assert.Equal(t, 100, *req.AutoScore)
	require.NotNil(t, req.DistanceMeters)
	assert.Equal(t, 0, *req.DistanceMeters)
	require.NotNil(t, req.LocationSource)
	assert.Equal(t, model.LocationSourceDevice, *req.LocationSource)
	assert.NotNil(t, req.ScoredAt)
	assert.Contains(t, []string(req.Reasons), "ROSTER_EMAIL_MATCH")
	assert.Contains(t, []string(req.Reasons), "FRESH_CAPTURE")
}

func TestVerificationService_SubmitWithoutStore(t *testing.T) {
	env := setupVerificationServiceTest(t)

	req, err := env.verificationService.Submit(context.Background(), env.staff.ID, SubmitVerificationInput{
		PhotoURL: "https://cdn.example.com/selfie.jpg",
	})
	require.NoError(t, err)

	// 매장 미지정은 즉시 0점 종료
	require.NotNil(t, req.AutoScore)
	assert.Equal(t, 0, *req.AutoScore)
	assert.Equal(t, []string{"NO_STORE_ID"}, []string(req.Reasons))
	assert.Nil(t, req.DistanceMeters)
}

func TestVerificationService_SubmitBlocksDuplicateOpenRequest(t *testing.T) {
	env := setupVerificationServiceTest(t)
	ctx := context.Background()

	_, err := env.verificationService.Submit(ctx, env.staff.ID, env.submitAtStore())
	require.NoError(t, err)

	// pending 요청이 열려 있는 동안에는 재제출 불가
	_, err = env.verificationService.Submit(ctx, env.staff.ID, env.submitAtStore())
	assert.ErrorIs(t, err, ErrOpenRequestExists)
}

func TestVerificationService_SubmitUnknownApplicant(t *testing.T) {
	env := setupVerificationServiceTest(t)

	_, err := env.verificationService.Submit(context.Background(), 99999, env.submitAtStore())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerificationService_Approve(t *testing.T) {
	env := setupVerificationServiceTest(t)
	ctx := context.Background()

	req, err := env.verificationService.Submit(ctx, env.staff.ID, env.submitAtStore())
	require.NoError(t, err)

	approved, err := env.verificationService.Approve(ctx, req.ID, env.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedAt)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, env.admin.ID, *approved.ReviewedBy)

	// 신청자 인증 플래그가 같은 트랜잭션에서 갱신되어야 한다
	var staff model.User
	require.NoError(t, env.db.First(&staff, env.staff.ID).Error)
	assert.True(t, staff.IsVerified)
	assert.NotNil(t, staff.VerifiedAt)
	require.NotNil(t, staff.StoreID)
	assert.Equal(t, env.store.ID, *staff.StoreID)
}

func TestVerificationService_Reject(t *testing.T) {
	env := setupVerificationServiceTest(t)
	ctx := context.Background()

	req, err := env.verificationService.Submit(ctx, env.staff.ID, env.submitAtStore())
	require.NoError(t, err)

	// 닫힌 목록에 없는 사유 코드는 거부
	_, err = env.verificationService.Reject(ctx, req.ID, env.admin.ID, model.RejectReason("made_up"))
	assert.ErrorIs(t, err, ErrInvalidRejectReason)

	rejected, err := env.verificationService.Reject(ctx, req.ID, env.admin.ID, model.RejectLocationTooFar)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusRejected, rejected.Status)
	assert.Equal(t, model.RejectLocationTooFar, rejected.RejectionReason)

	var staff model.User
	require.NoError(t, env.db.First(&staff, env.staff.ID).Error)
	assert.False(t, staff.IsVerified)
	assert.Nil(t, staff.VerifiedAt)
	assert.Equal(t, string(model.RejectLocationTooFar), staff.VerificationNote)
}

func TestVerificationService_IllegalTransitions(t *testing.T) {
	env := setupVerificationServiceTest(t)
	ctx := context.Background()

	req, err := env.verificationService.Submit(ctx, env.staff.ID, env.submitAtStore())
	require.NoError(t, err)

	_, err = env.verificationService.Approve(ctx, req.ID, env.admin.ID)
	require.NoError(t, err)

	// 종결된 요청에는 어떤 심사 액션도 허용되지 않는다
	tests := []struct {
		name string
		call func() error
	}{
		{"approve again", func() error {
			_, err := env.verificationService.Approve(ctx, req.ID, env.admin.ID)
			return err
		}},
		{"reject after approve", func() error {
			_, err := env.verificationService.Reject(ctx, req.ID, env.admin.ID, model.RejectOther)
			return err
		}},
		{"request info after approve", func() error {
			_, err := env.verificationService.RequestInfo(ctx, req.ID, env.admin.ID, "추가 자료를 보내주세요")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var transitionErr *IllegalTransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Equal(t, model.VerificationStatusApproved, transitionErr.Current)
		})
	}
}

func TestVerificationService_RequestInfoAccumulates(t *testing.T) {
	env := setupVerificationServiceTest(t)
	ctx := context.Background()

	req, err := env.verificationService.Submit(ctx, env.staff.ID, env.submitAtStore())
	require.NoError(t, err)

	first, err := env.verificationService.RequestInfo(ctx, req.ID, env.admin.ID, "사진이 흐립니다. 다시 찍어주세요.")
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusNeedsInfo, first.Status)

	// needs_info 상태에서 다시 요청해도 상태는 유지되고 이력만 쌓인다
	second, err := env.verificationService.RequestInfo(ctx, req.ID, env.admin.ID, "코드가 보이게 찍어주세요.")
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusNeedsInfo, second.Status)

	detail, err := env.verificationService.GetDetail(req.ID, env.admin.ID, model.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, detail.InfoRequests, 2)
	assert.Equal(t, "사진이 흐립니다. 다시 찍어주세요.", detail.InfoRequests[0].Message)
	assert.Equal(t, "코드가 보이게 찍어주세요.", detail.InfoRequests[1].Message)

	// 심사 시각은 아직 비어 있다. 요청 이력은 InfoRequests 행이 담당한다
	assert.Nil(t, detail.ReviewedAt)
	assert.Nil(t, detail.ReviewedBy)

	// needs_info에서 승인으로 종결 가능. 종결 시점에만 심사 시각이 찍힌다
	approved, err := env.verificationService.Approve(ctx, req.ID, env.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, env.admin.ID, *approved.ReviewedBy)
}

func TestVerificationService_RequestInfoRequiresMessage(t *testing.T) {
	env := setupVerificationServiceTest(t)
	ctx := context.Background()

	req, err := env.verificationService.Submit(ctx, env.staff.ID, env.submitAtStore())
	require.NoError(t, err)

	_, err = env.verificationService.RequestInfo(ctx, req.ID, env.admin.ID, "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestVerificationService_Reply(t *testing.T) {
	env := setupVerificationServiceTest(t)
	ctx := context.Background()

	req, err := env.verificationService.Submit(ctx, env.staff.ID, env.submitAtStore())
	require.NoError(t, err)

	_, err = env.verificationService.Reply(req.ID, env.staff.ID, "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = env.verificationService.Reply(req.ID, env.admin.ID, "다른 사람의 답변")
	assert.ErrorIs(t, err, ErrNotRequestOwner)

	msg, err := env.verificationService.Reply(req.ID, env.staff.ID, "재촬영해서 올렸습니다.")
	require.NoError(t, err)
	assert.Equal(t, env.staff.ID, msg.SenderID)

	detail, err := env.verificationService.GetDetail(req.ID, env.staff.ID, model.RoleStaff)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 1)
	assert.Equal(t, "재촬영해서 올렸습니다.", detail.Messages[0].Body)

	// 종결 이후에도 답변 기록은 가능하고 상태는 그대로다
	_, err = env.verificationService.Approve(ctx, req.ID, env.admin.ID)
	require.NoError(t, err)
	closedReply, err := env.verificationService.Reply(req.ID, env.staff.ID, "종결 후 답변")
	require.NoError(t, err)
	assert.Equal(t, env.staff.ID, closedReply.SenderID)

	detail, err = env.verificationService.GetDetail(req.ID, env.staff.ID, model.RoleStaff)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "종결 후 답변", detail.Messages[1].Body)
	assert.Equal(t, model.VerificationStatusApproved, detail.Status)
}

func TestVerificationService_GetDetailOwnership(t *testing.T) {
	env := setupVerificationServiceTest(t)
	ctx := context.Background()

	req, err := env.verificationService.Submit(ctx, env.staff.ID, env.submitAtStore())
	require.NoError(t, err)

	// 본인 조회 허용
	_, err = env.verificationService.GetDetail(req.ID, env.staff.ID, model.RoleStaff)
	assert.NoError(t, err)

	// 다른 스태프는 거부
	_, err = env.verificationService.GetDetail(req.ID, env.admin.ID, model.RoleStaff)
	assert.ErrorIs(t, err, ErrNotRequestOwner)

	// 관리자는 모든 요청 조회 가능
	_, err = env.verificationService.GetDetail(req.ID, env.admin.ID, model.RoleAdmin)
	assert.NoError(t, err)

	_, err = env.verificationService.GetDetail(99999, env.admin.ID, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestVerificationService_ListByStatus(t *testing.T) {
	env := setupVerificationServiceTest(t)
	ctx := context.Background()

	// 신청자를 여러 명 만들어 pending 요청 3건 생성
	userRepo := repository.NewUserRepository(env.db)
	for i := 0; i < 3; i++ {
		staff := &model.User{
			Email:        string(rune('a'+i)) + "-staff@example.com",
			PasswordHash: "hashed",
			Name:         "스태프",
			Role:         model.RoleStaff,
		}
		require.NoError(t, userRepo.Create(staff))
		_, err := env.verificationService.Submit(ctx, staff.ID, env.submitAtStore())
		require.NoError(t, err)
	}

	requests, total, err := env.verificationService.ListByStatus(model.VerificationStatusPending, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, requests, 2)

	requests, total, err = env.verificationService.ListByStatus(model.VerificationStatusPending, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, requests, 1)

	requests, total, err = env.verificationService.ListByStatus(model.VerificationStatusApproved, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, requests)
}

func TestVerificationService_SendReminderSingleRequest(t *testing.T) {
	env := setupVerificationServiceTest(t)
	ctx := context.Background()

	req, err := env.verificationService.Submit(ctx, env.staff.ID, env.submitAtStore())
	require.NoError(t, err)

	// pending 상태에서도 단건 독촉이 가능하고 상태는 바뀌지 않는다
	reminded, err := env.verificationService.SendReminder(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusPending, reminded.Status)

	var reminder model.Notification
	err = env.db.Where("user_id = ? AND type = ?", env.staff.ID, model.NotificationTypeReminder).
		First(&reminder).Error
	require.NoError(t, err)
	require.NotNil(t, reminder.RelatedRequestID)
	assert.Equal(t, req.ID, *reminder.RelatedRequestID)

	_, err = env.verificationService.RequestInfo(ctx, req.ID, env.admin.ID, "추가 자료 부탁드립니다.")
	require.NoError(t, err)
	reminded, err = env.verificationService.SendReminder(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusNeedsInfo, reminded.Status)

	// 종결된 요청에는 독촉 불가
	_, err = env.verificationService.Approve(ctx, req.ID, env.admin.ID)
	require.NoError(t, err)
	var illegal *IllegalTransitionError
	_, err = env.verificationService.SendReminder(ctx, req.ID)
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, model.VerificationStatusApproved, illegal.Current)

	_, err = env.verificationService.SendReminder(ctx, 99999)
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestVerificationService_SendReminders(t *testing.T) {
	env := setupVerificationServiceTest(t)
	ctx := context.Background()

	req, err := env.verificationService.Submit(ctx, env.staff.ID, env.submitAtStore())
	require.NoError(t, err)
	_, err = env.verificationService.RequestInfo(ctx, req.ID, env.admin.ID, "추가 자료 부탁드립니다.")
	require.NoError(t, err)

	// 아직 오래되지 않은 요청은 독촉 대상이 아니다
	count, err := env.verificationService.SendReminders(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// 마지막 갱신 시각을 과거로 밀어 stale 상태로 만든다
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, env.db.Model(&model.VerificationRequest{}).
		Where("id = ?", req.ID).
		UpdateColumn("updated_at", stale).Error)

	count, err = env.verificationService.SendReminders(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// 독촉 알림이 신청자 앞으로 생성되어야 한다
	var reminder model.Notification
	err = env.db.Where("user_id = ? AND type = ?", env.staff.ID, model.NotificationTypeReminder).
		First(&reminder).Error
	require.NoError(t, err)
	require.NotNil(t, reminder.RelatedRequestID)
	assert.Equal(t, req.ID, *reminder.RelatedRequestID)
}

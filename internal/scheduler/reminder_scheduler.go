package scheduler

import (
	"context"
	"time"

	"github.com/jwyun/staffpass-backend/internal/app/service"
	"github.com/jwyun/staffpass-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ReminderScheduler needs_info 상태로 방치된 인증 요청에 대한 독촉 알림 스케줄러
type ReminderScheduler struct {
	cron                *cron.Cron
	verificationService service.VerificationService
	cronSpec            string
	staleAfter          time.Duration
}

// NewReminderScheduler 독촉 스케줄러 생성
func NewReminderScheduler(
	verificationService service.VerificationService,
	cronSpec string,
	staleAfter time.Duration,
) *ReminderScheduler {
	return &ReminderScheduler{
		cron:                cron.New(),
		verificationService: verificationService,
		cronSpec:            cronSpec,
		staleAfter:          staleAfter,
	}
}

// Start 스케줄러 시작
func (s *ReminderScheduler) Start() error {
	_, err := s.cron.AddFunc(s.cronSpec, func() {
		logger.Info("Starting scheduled verification reminder sweep", nil)

		count, err := s.verificationService.SendReminders(context.Background(), s.staleAfter)
		if err != nil {
			logger.Error("Failed to send verification reminders", err)
			return
		}

		logger.Info("Verification reminder sweep finished", map[string]interface{}{
			"reminders_sent": count,
		})
	})

	if err != nil {
		logger.Error("Failed to add cron job for verification reminders", err)
		return err
	}

	s.cron.Start()
	logger.Info("Verification reminder scheduler started", map[string]interface{}{
		"cron_spec":   s.cronSpec,
		"stale_after": s.staleAfter.String(),
	})

	return nil
}

// Stop 스케줄러 중지
func (s *ReminderScheduler) Stop() {
	logger.Info("Stopping verification reminder scheduler...", nil)
	s.cron.Stop()
	logger.Info("Verification reminder scheduler stopped", nil)
}

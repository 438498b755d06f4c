package db

import (
	"github.com/jwyun/staffpass-backend/internal/app/model"
	"github.com/jwyun/staffpass-backend/pkg/logger"
	"github.com/jwyun/staffpass-backend/pkg/util"
)

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.User{},
		&model.Brand{},
		&model.Store{},
		&model.RosterEntry{},
		&model.VerificationRequest{},
		&model.VerificationInfoRequest{},
		&model.VerificationMessage{},
		&model.Notification{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed adds initial data to the database (optional)
func Seed() error {
	return backfillStoreCodes()
}

// backfillStoreCodes 인증 코드가 비어 있는 매장에 코드를 발급한다
func backfillStoreCodes() error {
	var stores []model.Store
	if err := DB.Where("verification_code = '' OR verification_code IS NULL").Find(&stores).Error; err != nil {
		return err
	}

	if len(stores) == 0 {
		return nil
	}

	logger.Info("Backfilling store verification codes...", map[string]interface{}{
		"stores": len(stores),
	})

	for i := range stores {
		stores[i].VerificationCode = util.GenerateVerificationCode(6)
		if err := DB.Model(&stores[i]).Update("verification_code", stores[i].VerificationCode).Error; err != nil {
			logger.Error("Failed to backfill store code", err, map[string]interface{}{
				"store_id": stores[i].ID,
			})
			return err
		}
	}

	logger.Info("Store verification codes backfilled", map[string]interface{}{
		"stores": len(stores),
	})
	return nil
}

package repository

import (
	"context"

	"investx/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var s models.SystemSetting
	if err := r.db.WithContext(ctx).Where(&models.SystemSetting{Key: key}).First(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.SystemSetting{Key: key, Value: value}).Error
}

// SetMany writes all values in one transaction.
func (r *SettingRepository) SetMany(ctx context.Context, values map[string]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := &SettingRepository{db: tx}
		for k, v := range values {
			if err := inner.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SettingRepository) GetAll(ctx context.Context) ([]models.SystemSetting, error) {
	var list []models.SystemSetting
	err := r.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&list).Error
	return list, err
}

// SeedDefaults inserts default settings if they don't already exist.
func (r *SettingRepository) SeedDefaults(ctx context.Context, defaults map[string]string) error {
	for k, v := range defaults {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.SystemSetting{}).Where(&models.SystemSetting{Key: k}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := r.db.WithContext(ctx).Create(&models.SystemSetting{Key: k, Value: v}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

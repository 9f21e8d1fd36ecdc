package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Generic Accessors ---

// GetValue retrieves a value for a given key from the metadata table.
// A missing key yields an empty string, which is a valid default.
func GetValue(db *gorm.DB, key string) (string, error) {
	var meta Metadata
	err := db.Where("key = ?", key).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return meta.Value, nil
}

// SetValue creates or updates a value for a given key.
// Uses GORM's OnConflict clause for an atomic upsert.
func SetValue(db *gorm.DB, key, value string) error {
	meta := Metadata{
		Key:   key,
		Value: value,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&meta).Error
}

// --- Specific Helpers for Type Conversion ---

// GetLastProjectedActivityID retrieves and parses the projection checkpoint.
func GetLastProjectedActivityID(db *gorm.DB) (uint, error) {
	valueStr, err := GetValue(db, LastProjectedActivityIDKey)
	if err != nil {
		return 0, err
	}
	if valueStr == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(valueStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("无法解析元数据 '%s' 的值: %w", LastProjectedActivityIDKey, err)
	}
	return uint(id), nil
}

// SetLastProjectedActivityID formats and sets the projection checkpoint.
func SetLastProjectedActivityID(db *gorm.DB, activityID uint) error {
	return SetValue(db, LastProjectedActivityIDKey, strconv.FormatUint(uint64(activityID), 10))
}

// GetLastRecalcAt retrieves and parses a recalculation timestamp key.
func GetLastRecalcAt(db *gorm.DB, key string) (time.Time, error) {
	valueStr, err := GetValue(db, key)
	if err != nil {
		return time.Time{}, err
	}
	if valueStr == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, valueStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("无法解析元数据 '%s' 的值: %w", key, err)
	}
	return t, nil
}

// SetLastRecalcAt formats and sets a recalculation timestamp key.
func SetLastRecalcAt(db *gorm.DB, key string, t time.Time) error {
	return SetValue(db, key, t.Format(time.RFC3339))
}

package metadata

import (
	"fmt"
	"strconv"

	"github.com/AksiHijau/green-action-backend/internal/platform/database"
	"gorm.io/gorm"
)

// PrimeCachedDB migrates the metadata table and warms the Redis mirror.
func PrimeCachedDB() error {
	if err := database.DB.AutoMigrate(&Metadata{}); err != nil {
		return fmt.Errorf("无法迁移metadata表: %w", err)
	}
	fmt.Println("Metadata数据库表迁移成功。")
	return WarmupCache()
}

// WarmupCache copies the persisted projection checkpoint into Redis and
// rebuilds the live activity counter from SQL, so both the activity
// processor and the site stats endpoint resume from authoritative state
// after a Redis restart.
func WarmupCache() error {
	lastID, err := GetLastProjectedActivityID(database.DB)
	if err != nil {
		return fmt.Errorf("无法读取投影检查点: %w", err)
	}

	totalActivities, err := approvedActivityCount(database.DB)
	if err != nil {
		return fmt.Errorf("无法统计已审核活动数: %w", err)
	}

	pipe := database.RDB.Pipeline()
	pipe.Set(database.Ctx, RedisLastProjectedActivityIDKey, strconv.FormatUint(uint64(lastID), 10), 0)
	pipe.Set(database.Ctx, RedisTotalActivitiesKey, strconv.FormatInt(totalActivities, 10), 0)
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热元数据到Redis失败: %w", err)
	}
	return nil
}

// approvedActivityCount returns the number of approved activity rows.
// The activities table is owned by another module and may not exist yet
// on first boot, in which case the count is zero. Queried by table name
// to keep this package free of upward imports.
func approvedActivityCount(db *gorm.DB) (int64, error) {
	if !db.Migrator().HasTable("activities") {
		return 0, nil
	}
	var total int64
	err := db.Table("activities").
		Where("status = ? AND deleted_at IS NULL", "approved").
		Count(&total).Error
	return total, err
}

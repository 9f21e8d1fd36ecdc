package metadata

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("无法打开内存数据库: %v", err)
	}
	return db
}

// TestApprovedActivityCount 验证预热时的活动计数来自SQL权威数据：
// 只统计已审核且未删除的行，活动表尚不存在时按0处理。
func TestApprovedActivityCount(t *testing.T) {
	db := newTestDB(t)

	// 表不存在（首次启动，迁移顺序在本模块之后）
	total, err := approvedActivityCount(db)
	if err != nil {
		t.Fatalf("表缺失时不应报错: %v", err)
	}
	if total != 0 {
		t.Fatalf("表缺失时计数应为0, got %d", total)
	}

	ddl := `CREATE TABLE activities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		status TEXT,
		deleted_at DATETIME
	)`
	if err := db.Exec(ddl).Error; err != nil {
		t.Fatalf("无法创建测试表: %v", err)
	}
	inserts := []string{
		`INSERT INTO activities (status, deleted_at) VALUES ('approved', NULL)`,
		`INSERT INTO activities (status, deleted_at) VALUES ('approved', NULL)`,
		`INSERT INTO activities (status, deleted_at) VALUES ('pending', NULL)`,
		`INSERT INTO activities (status, deleted_at) VALUES ('rejected', NULL)`,
		`INSERT INTO activities (status, deleted_at) VALUES ('approved', '2026-01-01 00:00:00')`,
	}
	for _, stmt := range inserts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("无法插入测试数据: %v", err)
		}
	}

	total, err = approvedActivityCount(db)
	if err != nil {
		t.Fatalf("计数失败: %v", err)
	}
	if total != 2 {
		t.Fatalf("应只统计已审核且未删除的活动, got %d, want 2", total)
	}
}

// TestRecalcTimestampRoundTrip 验证重算时间戳的持久化与读取。
func TestRecalcTimestampRoundTrip(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&Metadata{}); err != nil {
		t.Fatalf("无法迁移metadata表: %v", err)
	}

	// 从未重算过：零值时间，不报错
	got, err := GetLastRecalcAt(db, LastPointsRecalcAtKey)
	if err != nil {
		t.Fatalf("读取缺失的时间戳不应报错: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("缺失的时间戳应为零值, got %v", got)
	}

	want := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	if err := SetLastRecalcAt(db, LastPointsRecalcAtKey, want); err != nil {
		t.Fatalf("写入时间戳失败: %v", err)
	}
	got, err = GetLastRecalcAt(db, LastPointsRecalcAtKey)
	if err != nil {
		t.Fatalf("读取时间戳失败: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("时间戳往返不一致: got %v, want %v", got, want)
	}
}

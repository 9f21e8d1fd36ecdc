package activity

import (
	"fmt"

	"github.com/AksiHijau/green-action-backend/internal/platform/database"
	"github.com/AksiHijau/green-action-backend/internal/platform/metadata"
	"github.com/AksiHijau/green-action-backend/internal/profile"
	"github.com/AksiHijau/green-action-backend/pkg/lifecycle"
)

// PrimeDB 负责初始化activity模块的数据库部分，并驱动profile模块的回填
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&Activity{}); err != nil {
		return fmt.Errorf("无法迁移activity表: %w", err)
	}
	fmt.Println("Activity数据库表迁移成功。")

	var userIDs []string
	err := database.DB.Model(&Activity{}).Where("user_uuid != ?", "").Distinct("user_uuid").Pluck("user_uuid", &userIDs).Error
	if err != nil {
		return fmt.Errorf("无法从activity表提取用户ID: %w", err)
	}

	if err := profile.BatchCreateProfiles(userIDs); err != nil {
		return fmt.Errorf("将用户同步到profile模块失败: %w", err)
	}

	return nil
}

// StartActivityProcessor 初始化并启动全局的Activity Processor
// 它接收两个handle来管理其两阶段的关闭逻辑
func StartActivityProcessor(gracefulHandle, forcefulHandle *lifecycle.Handle) error {
	startID, err := metadata.GetLastProjectedActivityID(database.DB)
	if err != nil {
		return fmt.Errorf("无法获取启动Activity Processor所需的检查点ID: %w", err)
	}

	initializeProcessor(startID)
	go startProcessor(gracefulHandle, forcefulHandle) // 在一个新的Goroutine中启动它

	return nil
}

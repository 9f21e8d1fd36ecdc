package profile

import (
	"errors"
	"fmt"

	"github.com/AksiHijau/green-action-backend/internal/platform/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateProvisionalUser 生成一个临时的、尚未持久化的新用户UUID。
// 这个UUID会被设置到cookie中，首次提交活动时才被激活。
func CreateProvisionalUser() (string, error) {
	newUUID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("无法生成UUID v7: %w", err)
	}
	return newUUID.String(), nil
}

// IsValidUUID 判断一个字符串是否是合法的UUID。
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// IsUserActivated 检查一个UUID是否已被激活（存在于持久化系统中）。
// 只查询Redis缓存以获得最高性能。
func IsUserActivated(uuidStr string) (bool, error) {
	if uuidStr == "" {
		return false, nil
	}
	exists, err := database.RDB.SIsMember(database.Ctx, KnownUsersKey, uuidStr).Result()
	if err != nil {
		return false, fmt.Errorf("检查Redis用户缓存时出错: %w", err)
	}
	return exists, nil
}

// ActivateUser 将一个临时UUID正式持久化到数据库和缓存中。
// 如果缓存写入失败，数据库写入会被回滚。
func ActivateUser(uuidStr string, province string) error {
	activated, err := IsUserActivated(uuidStr)
	if err != nil {
		return err
	}
	if activated {
		return nil
	}

	tx := database.DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("无法开始数据库事务: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	newProfile := Profile{UUID: uuidStr, Province: province}
	if err := tx.Create(&newProfile).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("无法在数据库中创建新用户档案: %w", err)
	}

	if err := database.RDB.SAdd(database.Ctx, KnownUsersKey, uuidStr).Err(); err != nil {
		tx.Rollback()
		return fmt.Errorf("无法将新用户 %s 添加到Redis缓存: %w", uuidStr, err)
	}

	return tx.Commit().Error
}

// BatchCreateProfiles 批量补建用户档案，已存在的记录会被跳过。
// 供activity模块启动时回填历史活动中出现过的用户。
func BatchCreateProfiles(uuids []string) error {
	profiles := make([]Profile, 0, len(uuids))
	for _, id := range uuids {
		if id == "" {
			continue
		}
		profiles = append(profiles, Profile{UUID: id})
	}
	if len(profiles) == 0 {
		return nil
	}

	err := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&profiles).Error
	if err != nil {
		return fmt.Errorf("批量创建用户档案失败: %w", err)
	}

	members := make([]interface{}, len(profiles))
	for i, p := range profiles {
		members[i] = p.UUID
	}
	if err := database.RDB.SAdd(database.Ctx, KnownUsersKey, members...).Err(); err != nil {
		return fmt.Errorf("批量写入用户缓存失败: %w", err)
	}
	return nil
}

// GetProfile 按UUID读取用户档案。不存在时返回(nil, nil)。
func GetProfile(uuidStr string) (*Profile, error) {
	var p Profile
	err := database.DB.Where("uuid = ?", uuidStr).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取用户档案失败: %w", err)
	}
	return &p, nil
}

// UpdateProfile 更新用户的展示名与省份。
// 返回旧的省份名，调用方据此驱动两侧省份统计的缓存失效。
func UpdateProfile(uuidStr, displayName, province string) (oldProvince string, err error) {
	var p Profile
	if err := database.DB.Where("uuid = ?", uuidStr).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("读取用户档案失败: %w", err)
	}

	oldProvince = p.Province
	patch := map[string]any{}
	if displayName != "" {
		patch["display_name"] = displayName
	}
	if province != "" {
		patch["province"] = province
	}
	if len(patch) == 0 {
		return oldProvince, nil
	}

	if err := database.DB.Model(&Profile{}).Where("uuid = ?", uuidStr).Updates(patch).Error; err != nil {
		return "", fmt.Errorf("更新用户档案失败: %w", err)
	}
	return oldProvince, nil
}

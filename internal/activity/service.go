package activity

import (
	"errors"
	"fmt"

	"github.com/AksiHijau/green-action-backend/internal/platform/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Service-Level DTOs ---

// CreateActivityInput 是创建活动所需的、已通过校验的输入。
type CreateActivityInput struct {
	UserUUID   string
	CategoryID string
	Title      string
	Points     int
	Province   string
	Location   string
}

// --- Service Functions ---

// submitStatus 是新提交活动的初始状态。
// 当前策略为直接通过：提交即计分，审核接口仍可事后驳回。
const submitStatus = StatusApproved

// CreateActivity 持久化一条新活动并返回它。
// 状态为approved的活动会被提交给投影处理器，异步计入排行榜。
func CreateActivity(input CreateActivityInput) (*Activity, error) {
	activityID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("无法生成活动ID: %w", err)
	}

	a := Activity{
		ActivityID: activityID.String(),
		UserUUID:   input.UserUUID,
		CategoryID: input.CategoryID,
		Title:      input.Title,
		Points:     input.Points,
		Province:   input.Province,
		Location:   input.Location,
		Status:     submitStatus,
	}
	if err := database.DB.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("无法创建活动记录: %w", err)
	}

	if a.Status == StatusApproved {
		submitActivityToQueue(a)
	}
	return &a, nil
}

// ListActivitiesByUser 返回某个用户的全部活动，按创建时间倒序。
func ListActivitiesByUser(userUUID string) ([]Activity, error) {
	var list []Activity
	if err := database.DB.Where("user_uuid = ?", userUUID).Order("id desc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("无法读取用户活动列表: %w", err)
	}
	return list, nil
}

// GetActivityByID 按业务ID读取单条活动。不存在时返回(nil, nil)。
func GetActivityByID(activityID string) (*Activity, error) {
	var a Activity
	err := database.DB.Where("activity_id = ?", activityID).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取活动失败: %w", err)
	}
	return &a, nil
}

// UpdateActivityFields 更新活动的可编辑字段（标题/地点/图片）。
// 积分、省份快照与归属不可经此修改。
func UpdateActivityFields(a *Activity, title, location, imageURL string) error {
	patch := map[string]any{}
	if title != "" {
		patch["title"] = title
	}
	if location != "" {
		patch["location"] = location
	}
	if imageURL != "" {
		patch["image_url"] = imageURL
	}
	if len(patch) == 0 {
		return nil
	}
	if err := database.DB.Model(a).Updates(patch).Error; err != nil {
		return fmt.Errorf("更新活动失败: %w", err)
	}
	return nil
}

// DeleteActivity 删除一条活动（软删除）。
// 已通过审核的活动删除后，其积分在下一次全量重算前仍留在投影中，
// 这是有界的暂态不一致；重算端点会将其纠正。
func DeleteActivity(a *Activity) error {
	if err := database.DB.Delete(a).Error; err != nil {
		return fmt.Errorf("删除活动失败: %w", err)
	}
	return nil
}

// ReviewActivity 审核一条pending活动。通过后提交给投影处理器计分。
func ReviewActivity(a *Activity, approve bool) error {
	if a.Status != StatusPending {
		return fmt.Errorf("活动 %s 不在待审核状态", a.ActivityID)
	}

	newStatus := StatusRejected
	if approve {
		newStatus = StatusApproved
	}
	if err := database.DB.Model(a).Update("status", newStatus).Error; err != nil {
		return fmt.Errorf("更新活动状态失败: %w", err)
	}
	a.Status = newStatus

	if newStatus == StatusApproved {
		submitActivityToQueue(*a)
	}
	return nil
}

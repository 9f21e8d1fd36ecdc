package activity

import (
	"gorm.io/gorm"
)

// ActivityStatus 定义了活动审核状态的枚举类型
type ActivityStatus string

const (
	// StatusPending 表示等待审核
	StatusPending ActivityStatus = "pending"
	// StatusApproved 表示已通过审核，积分计入聚合
	StatusApproved ActivityStatus = "approved"
	// StatusRejected 表示未通过审核
	StatusRejected ActivityStatus = "rejected"
)

// Activity 定义了单条绿色行动记录的数据结构。
// 记录在通过审核后即视为不可变：只有状态和编辑字段（标题/地点/图片）
// 允许更新，积分与归属永不改写；删除仅限记录的所有者。
type Activity struct {
	gorm.Model

	// ActivityID 是活动的业务主键（UUIDv7字符串）
	ActivityID string `gorm:"uniqueIndex;not null" json:"id"`

	// UserUUID 是提交者的用户UUID
	UserUUID string `gorm:"index;not null" json:"userId"`

	// CategoryID 是绿色行动的类别（如 "tanam-pohon"）
	CategoryID string `json:"categoryId"`

	// Title 是用户填写的标题
	Title string `json:"title"`

	// Points 是该活动对应的积分
	Points int `json:"points"`

	// Province 是提交时刻用户档案上的省份快照。
	// 聚合以档案当前省份为准，这个字段只作为历史记录保留。
	Province string `gorm:"index" json:"province"`

	// Location 是活动发生的具体地点描述
	Location string `json:"location"`

	// ImageURL 是活动照片在对象存储中的公开URL
	ImageURL string `json:"imageUrl"`

	// Status 是审核状态
	Status ActivityStatus `gorm:"index" json:"status"`
}

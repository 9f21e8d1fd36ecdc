package profile

import (
	"time"

	"gorm.io/gorm"
)

// Profile 定义了用户档案在SQL中的持久化模型。
// Points 是派生值：它永远可以由该用户所有已通过审核的活动积分求和重算得出，
// 聚合引擎的每次重算都会刷新它。
type Profile struct {
	// UUID 是用户的主键，来自客户端Cookie。
	UUID string `gorm:"primarykey;type:varchar(36)"`

	// DisplayName 是用户的展示名。
	DisplayName string

	// Province 是用户当前档案上的省份。
	// 注意：活动记录上也带有提交时刻的省份快照，两者在用户迁移后会分叉；
	// 省份聚合以档案上的当前省份为准（见stats模块）。
	Province string `gorm:"index"`

	// Points 是已通过审核活动的积分总和（派生聚合）。
	Points int `gorm:"index"`

	// Activities 是已通过审核的活动数量（派生聚合）。
	Activities int

	// Rank 是用户排行榜上的名次（稠密排名）。
	Rank int

	// 部分gorm.Model，由GORM自动管理
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

package province

import "gorm.io/gorm"

// ProvinceStats 是按省份聚合的派生统计，一行对应一个省份。
// 所有字段都可以由活动与档案全量重算得出；这张表是聚合引擎的落盘产物。
type ProvinceStats struct {
	gorm.Model

	// Name 是省份名，业务主键
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	// TotalUsers 是该省拥有至少一条已审核活动的去重用户数
	TotalUsers int `json:"totalUsers"`

	// TotalActivities 是该省已审核活动总数
	TotalActivities int `json:"totalActivities"`

	// TotalPoints 是该省已审核活动的积分总和
	TotalPoints int `json:"totalPoints"`

	// AvgPointsPerUser = TotalPoints / TotalUsers，TotalUsers为0时取0
	AvgPointsPerUser float64 `json:"avgPointsPerUser"`

	// Rank 是省份排行榜上的名次，由独立的排名重算pass写入。
	// 排序键为 (TotalPoints DESC, Name ASC)，名称升序保证全序和确定性。
	Rank int `gorm:"index" json:"rank"`
}

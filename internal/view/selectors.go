package view

import (
	"sort"
	"sync"

	"github.com/AksiHijau/green-action-backend/internal/profile"
	"github.com/AksiHijau/green-action-backend/internal/province"
)

// --- 展示模型 ---

// ProvinceView 是省份统计的展示层模型：
// 在原始聚合行上补充名次、坐标与格式化后的数字。
type ProvinceView struct {
	Rank             int                 `json:"rank"`
	Name             string              `json:"name"`
	TotalUsers       int                 `json:"totalUsers"`
	TotalActivities  int                 `json:"totalActivities"`
	TotalPoints      int                 `json:"totalPoints"`
	AvgPointsPerUser float64             `json:"avgPointsPerUser"`
	Coordinate       province.Coordinate `json:"coordinate"`
	FormattedPoints  string              `json:"formattedPoints"`
	FormattedAvg     string              `json:"formattedAvg"`
}

// UserView 是用户排行的展示层模型。
type UserView struct {
	Rank            int    `json:"rank"`
	UserID          string `json:"userId"`
	DisplayName     string `json:"displayName"`
	Province        string `json:"province"`
	Points          int    `json:"points"`
	FormattedPoints string `json:"formattedPoints"`
}

// --- 选择器 ---

// ProvinceSelector 将省份聚合行转换为展示模型，并按输入切片的身份做备忘：
// 同一个底层切片重复传入时直接返回上一次的结果，不重复计算。
// 输入切片在传入后不应再被修改。
type ProvinceSelector struct {
	mu         sync.Mutex
	lastInput  []province.ProvinceStats
	lastOutput []ProvinceView
}

// Select 返回按 (TotalPoints 降序, Name 升序) 排序并注入名次的展示列表。
// 输入顺序无关紧要，输出顺序总是排序后的顺序。
func (s *ProvinceSelector) Select(rows []province.ProvinceStats) []ProvinceView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sameSlice(rows, s.lastInput) {
		return s.lastOutput
	}

	views := make([]ProvinceView, len(rows))
	for i, r := range rows {
		views[i] = ProvinceView{
			Name:             r.Name,
			TotalUsers:       r.TotalUsers,
			TotalActivities:  r.TotalActivities,
			TotalPoints:      r.TotalPoints,
			AvgPointsPerUser: r.AvgPointsPerUser,
			Coordinate:       province.LookupCoordinate(r.Name),
			FormattedPoints:  FormatPoints(r.TotalPoints),
			FormattedAvg:     FormatAverage(r.AvgPointsPerUser),
		}
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].TotalPoints != views[j].TotalPoints {
			return views[i].TotalPoints > views[j].TotalPoints
		}
		return views[i].Name < views[j].Name
	})
	for i := range views {
		views[i].Rank = i + 1
	}

	s.lastInput = rows
	s.lastOutput = views
	return views
}

// UserSelector 将用户档案转换为排行展示模型，备忘策略同ProvinceSelector。
type UserSelector struct {
	mu         sync.Mutex
	lastInput  []profile.Profile
	lastOutput []UserView
}

// Select 返回按 (Points 降序, UUID 升序) 排序并注入名次的展示列表。
func (s *UserSelector) Select(rows []profile.Profile) []UserView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sameSlice(rows, s.lastInput) {
		return s.lastOutput
	}

	sorted := make([]profile.Profile, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		return sorted[i].UUID < sorted[j].UUID
	})

	views := make([]UserView, len(sorted))
	for i, p := range sorted {
		views[i] = UserView{
			Rank:            i + 1,
			UserID:          p.UUID,
			DisplayName:     p.DisplayName,
			Province:        p.Province,
			Points:          p.Points,
			FormattedPoints: FormatPoints(p.Points),
		}
	}

	s.lastInput = rows
	s.lastOutput = views
	return views
}

// sameSlice 判断两个切片是否是同一个底层数组片段（身份比较，非深比较）。
func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return a == nil && b == nil
	}
	return &a[0] == &b[0]
}

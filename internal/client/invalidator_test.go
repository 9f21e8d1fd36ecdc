package client

import (
	"testing"
	"time"

	"github.com/AksiHijau/green-action-backend/pkg/swr"
)

func newTestResources() *Resources {
	// 失效路径不发起网络请求（没有订阅者），地址不会被访问
	return NewResources(swr.NewClient("http://127.0.0.1:0", time.Second))
}

func seedAll(res *Resources, userID string) {
	res.Provinces.Cache().Set(ProvincesKey(), []ProvinceRow{{Name: "Aceh"}})
	res.Stats.Cache().Set(StatsKey(), SiteStats{TotalUsers: 10})
	res.LeaderboardUsers.Cache().Set(LeaderboardKey("users"), []LeaderboardUserRow{})
	res.LeaderboardProvinces.Cache().Set(LeaderboardKey("provinces"), []LeaderboardProvinceRow{})
	res.UserActivities.Cache().Set(UserActivitiesKey(userID), []ActivityRow{})
	res.UserStats.Cache().Set(UserStatsKey(userID), UserStats{Points: 5})
}

func TestActivitySubmittedInvalidatesUserKeysImmediately(t *testing.T) {
	res := newTestResources()
	seedAll(res, "u1")

	iv := NewInvalidator(res, 5*time.Second)
	var delayed []func()
	iv.schedule = func(d time.Duration, fn func()) {
		if d != 5*time.Second {
			t.Errorf("延迟 = %v, 期望 5s", d)
		}
		delayed = append(delayed, fn)
	}

	iv.ActivitySubmitted("u1")

	// 用户自己的数据与用户排行榜立即失效
	if _, ok := res.UserActivities.Cache().Peek(UserActivitiesKey("u1")); ok {
		t.Error("用户活动列表应已失效")
	}
	if _, ok := res.UserStats.Cache().Peek(UserStatsKey("u1")); ok {
		t.Error("用户统计应已失效")
	}
	if _, ok := res.LeaderboardUsers.Cache().Peek(LeaderboardKey("users")); ok {
		t.Error("用户排行榜应已失效")
	}

	// 省份数据要等聚合跟上，延迟前保持可用
	if _, ok := res.Provinces.Cache().Peek(ProvincesKey()); !ok {
		t.Error("省份数据在延迟前不应失效")
	}
	if _, ok := res.LeaderboardProvinces.Cache().Peek(LeaderboardKey("provinces")); !ok {
		t.Error("省份排行榜在延迟前不应失效")
	}

	// 触发延迟任务后省份数据失效
	if len(delayed) != 1 {
		t.Fatalf("期望1个延迟任务，得到 %d", len(delayed))
	}
	delayed[0]()
	if _, ok := res.Provinces.Cache().Peek(ProvincesKey()); ok {
		t.Error("延迟后省份数据应已失效")
	}
	if _, ok := res.LeaderboardProvinces.Cache().Peek(LeaderboardKey("provinces")); ok {
		t.Error("延迟后省份排行榜应已失效")
	}

	// 全站概览不在此事件的失效范围内
	if _, ok := res.Stats.Cache().Peek(StatsKey()); !ok {
		t.Error("全站概览不应被此事件失效")
	}
}

func TestProvinceChangedInvalidatesBothBoards(t *testing.T) {
	res := newTestResources()
	seedAll(res, "u1")

	iv := NewInvalidator(res, time.Second)
	iv.schedule = func(time.Duration, func()) {
		t.Error("省份迁移不应使用延迟失效")
	}

	iv.ProvinceChanged("u1", "Bali", "Aceh")

	if _, ok := res.Provinces.Cache().Peek(ProvincesKey()); ok {
		t.Error("省份数据应已失效")
	}
	if _, ok := res.LeaderboardUsers.Cache().Peek(LeaderboardKey("users")); ok {
		t.Error("用户排行榜应已失效")
	}
	if _, ok := res.LeaderboardProvinces.Cache().Peek(LeaderboardKey("provinces")); ok {
		t.Error("省份排行榜应已失效")
	}
	if _, ok := res.UserStats.Cache().Peek(UserStatsKey("u1")); ok {
		t.Error("用户统计应已失效")
	}
	// 用户的活动列表本身没有变化
	if _, ok := res.UserActivities.Cache().Peek(UserActivitiesKey("u1")); !ok {
		t.Error("用户活动列表不应被省份迁移失效")
	}
}

func TestInvalidationIsIdempotent(t *testing.T) {
	res := newTestResources()
	iv := NewInvalidator(res, time.Second)
	iv.schedule = func(_ time.Duration, fn func()) { fn() }

	// 缓存为空时的失效是no-op，重复调用也不应panic
	iv.ActivitySubmitted("u1")
	iv.ActivitySubmitted("u1")
	iv.ProvinceChanged("u1", "", "Aceh")

	// 空userID构造出空键，同样是no-op
	iv.ActivitySubmitted("")
}

func TestKeyConstruction(t *testing.T) {
	if UserActivitiesKey("") != "" || UserStatsKey("") != "" {
		t.Error("空userID应产生空键（禁用状态）")
	}
	if UserActivitiesKey("u1") == UserActivitiesKey("u2") {
		t.Error("不同用户的键应互不相同")
	}
	if UserActivitiesKey("u1") == UserStatsKey("u1") {
		t.Error("同一用户不同资源的键应互不相同")
	}
}

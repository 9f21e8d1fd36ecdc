package view

import (
	"testing"

	"github.com/AksiHijau/green-action-backend/internal/profile"
	"github.com/AksiHijau/green-action-backend/internal/province"
)

func TestProvinceSelectorRankAndOrder(t *testing.T) {
	rows := []province.ProvinceStats{
		{Name: "Jambi", TotalPoints: 50},
		{Name: "Bali", TotalPoints: 100},
		{Name: "Aceh", TotalPoints: 100},
	}

	var s ProvinceSelector
	views := s.Select(rows)

	if len(views) != 3 {
		t.Fatalf("期望3行，得到 %d", len(views))
	}
	// 同分按名称升序：Aceh在Bali之前
	expected := []struct {
		name string
		rank int
	}{{"Aceh", 1}, {"Bali", 2}, {"Jambi", 3}}
	for i, want := range expected {
		if views[i].Name != want.name || views[i].Rank != want.rank {
			t.Errorf("位置%d: 得到 %s=%d, 期望 %s=%d", i, views[i].Name, views[i].Rank, want.name, want.rank)
		}
	}
}

func TestProvinceSelectorMemoizesOnSliceIdentity(t *testing.T) {
	rows := []province.ProvinceStats{
		{Name: "Bali", TotalPoints: 100},
		{Name: "Aceh", TotalPoints: 50},
	}

	var s ProvinceSelector
	first := s.Select(rows)
	second := s.Select(rows)

	if len(first) == 0 || &first[0] != &second[0] {
		t.Error("同一个输入切片应返回备忘的结果")
	}

	// 内容相同但身份不同的切片应重新计算
	clone := make([]province.ProvinceStats, len(rows))
	copy(clone, rows)
	third := s.Select(clone)
	if &third[0] == &second[0] {
		t.Error("新的输入切片应产生新的结果")
	}
}

func TestProvinceSelectorEnrichesCoordinates(t *testing.T) {
	rows := []province.ProvinceStats{
		{Name: "Bali", TotalPoints: 10},
		{Name: "Atlantis", TotalPoints: 5},
	}

	var s ProvinceSelector
	views := s.Select(rows)

	if views[0].Coordinate == (province.Coordinate{}) {
		t.Error("已知省份Bali应带有非零坐标")
	}
	if views[1].Coordinate != (province.Coordinate{}) {
		t.Error("未知省份应得到零值坐标")
	}
}

func TestProvinceSelectorEmptyInput(t *testing.T) {
	var s ProvinceSelector
	views := s.Select(nil)
	if len(views) != 0 {
		t.Errorf("空输入应产生空输出，得到 %d 行", len(views))
	}
}

func TestUserSelectorTiebreakAndMemo(t *testing.T) {
	rows := []profile.Profile{
		{UUID: "bbb", Points: 80},
		{UUID: "aaa", Points: 80},
		{UUID: "ccc", Points: 90},
	}

	var s UserSelector
	views := s.Select(rows)

	order := []string{"ccc", "aaa", "bbb"}
	for i, want := range order {
		if views[i].UserID != want || views[i].Rank != i+1 {
			t.Errorf("位置%d: 得到 %s(%d), 期望 %s(%d)", i, views[i].UserID, views[i].Rank, want, i+1)
		}
	}

	// 选择器不应改动输入切片本身
	if rows[0].UUID != "bbb" {
		t.Error("输入切片被原地修改了")
	}

	again := s.Select(rows)
	if &again[0] != &views[0] {
		t.Error("同一个输入切片应返回备忘的结果")
	}
}

func TestFormatPointsPlainByDefault(t *testing.T) {
	// 非交互模式退化为纯数字，保证批处理输出可逐字节比较
	cases := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1000"},
		{1234567, "1234567"},
	}
	for _, tc := range cases {
		if got := FormatPoints(tc.in); got != tc.want {
			t.Errorf("FormatPoints(%d) = %q, 期望 %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatPointsInteractiveGrouping(t *testing.T) {
	SetInteractive(true)
	defer SetInteractive(false)

	cases := []struct {
		in   int
		want string
	}{
		{999, "999"},
		{1000, "1.000"},
		{1234567, "1.234.567"},
	}
	for _, tc := range cases {
		if got := FormatPoints(tc.in); got != tc.want {
			t.Errorf("FormatPoints(%d) = %q, 期望 %q", tc.in, got, tc.want)
		}
	}
	if got := FormatAverage(45.25); got != "45,2" && got != "45,3" {
		t.Errorf("FormatAverage(45.25) = %q, 期望印尼语小数逗号格式", got)
	}
}

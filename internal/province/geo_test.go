package province

import "testing"

// TestKnownProvinces 验证坐标表覆盖全部34个省份，
// 且每个已知省份都有非零的展示坐标。
func TestKnownProvinces(t *testing.T) {
	if got := KnownProvinces(); got != 34 {
		t.Fatalf("坐标表应包含34个省份, got %d", got)
	}
	for name := range coordinates {
		coord := LookupCoordinate(name)
		if coord.Lat == 0 && coord.Lng == 0 {
			t.Errorf("省份 %s 的坐标不应为零值", name)
		}
	}
}

// TestLookupCoordinateUnknown 验证未知省份返回零值坐标而不是panic。
func TestLookupCoordinateUnknown(t *testing.T) {
	coord := LookupCoordinate("Atlantis")
	if coord.Lat != 0 || coord.Lng != 0 {
		t.Fatalf("未知省份应返回零值坐标, got %+v", coord)
	}
}

package stats

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/AksiHijau/green-action-backend/internal/province"
)

func TestRunBatchAllSucceed(t *testing.T) {
	keys := []string{"a", "b", "c", "d"}
	var calls int32

	report := runBatch(keys, func(string) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	if calls != 4 {
		t.Errorf("写入函数被调用 %d 次，期望 4", calls)
	}
	if report.UpdatedCount != 4 || report.FailedCount != 0 {
		t.Errorf("report = %+v, 期望 UpdatedCount=4 FailedCount=0", report)
	}
}

func TestRunBatchPartialFailureDoesNotAbort(t *testing.T) {
	keys := []string{"u1", "u2", "u3", "u4", "u5"}
	failing := map[string]bool{"u2": true, "u4": true}
	var calls int32

	report := runBatch(keys, func(key string) error {
		atomic.AddInt32(&calls, 1)
		if failing[key] {
			return errors.New("写入被拒绝")
		}
		return nil
	})

	// 单行失败不应阻止其余行的写入
	if calls != 5 {
		t.Errorf("写入函数被调用 %d 次，期望 5", calls)
	}
	if report.UpdatedCount != 3 || report.FailedCount != 2 {
		t.Errorf("report = %+v, 期望 UpdatedCount=3 FailedCount=2", report)
	}
	if len(report.Failures) != 2 {
		t.Fatalf("期望2条失败记录，得到 %d", len(report.Failures))
	}
	if !strings.HasPrefix(report.Failures[0], "u2:") || !strings.HasPrefix(report.Failures[1], "u4:") {
		t.Errorf("失败记录应按key排序并携带key前缀: %v", report.Failures)
	}
}

func TestRunBatchRespectsConcurrencyLimit(t *testing.T) {
	old := writeConcurrency
	writeConcurrency = 2
	defer func() { writeConcurrency = old }()

	var mu sync.Mutex
	inFlight, peak := 0, 0
	block := make(chan struct{})

	done := make(chan Report)
	go func() {
		done <- runBatch([]string{"a", "b", "c", "d", "e", "f"}, func(string) error {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()

			<-block

			mu.Lock()
			inFlight--
			mu.Unlock()
			return nil
		})
	}()

	close(block)
	report := <-done

	if report.UpdatedCount != 6 {
		t.Errorf("UpdatedCount = %d, 期望 6", report.UpdatedCount)
	}
	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Errorf("并发峰值 %d 超过了限制 2", peak)
	}
}

func TestRunBatchEmptyKeys(t *testing.T) {
	report := runBatch(nil, func(string) error {
		t.Error("空key列表不应触发任何写入")
		return nil
	})
	if report.UpdatedCount != 0 || report.FailedCount != 0 {
		t.Errorf("report = %+v, 期望全零", report)
	}
}

func TestConfigureEngineIgnoresInvalidValues(t *testing.T) {
	old := writeConcurrency
	defer func() { writeConcurrency = old }()

	ConfigureEngine(0)
	if writeConcurrency != old {
		t.Errorf("0不应改变并发度，得到 %d", writeConcurrency)
	}
	ConfigureEngine(-3)
	if writeConcurrency != old {
		t.Errorf("负值不应改变并发度，得到 %d", writeConcurrency)
	}
	ConfigureEngine(16)
	if writeConcurrency != 16 {
		t.Errorf("并发度 = %d, 期望 16", writeConcurrency)
	}
}

// TestStaleProvinceNames 验证全量重建能识别出已经没有任何用户的省份：
// 这些省份不在重算结果中，必须被列入清除名单，且输出按名字排序。
func TestStaleProvinceNames(t *testing.T) {
	current := map[string]province.ProvinceStats{
		"Aceh":  {Name: "Aceh"},
		"Jambi": {Name: "Jambi"},
	}
	existing := []string{"Jambi", "Bali", "Aceh", "Sulawesi Utara"}

	stale := staleProvinceNames(existing, current)
	if len(stale) != 2 {
		t.Fatalf("期望2个待清除省份, got %v", stale)
	}
	if stale[0] != "Bali" || stale[1] != "Sulawesi Utara" {
		t.Fatalf("清除名单应按名字排序: %v", stale)
	}

	if got := staleProvinceNames(nil, current); got != nil {
		t.Fatalf("没有现存行时不应有清除项: %v", got)
	}
	if got := staleProvinceNames([]string{"Aceh", "Jambi"}, current); got != nil {
		t.Fatalf("结果完全覆盖现存行时不应有清除项: %v", got)
	}
}

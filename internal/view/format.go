package view

import (
	"strconv"
	"sync/atomic"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer 按印尼语区域设置格式化数字（千位分隔符为点）。
var printer = message.NewPrinter(language.Indonesian)

// interactive 控制是否启用本地化格式。
// 非交互模式（默认）退化为纯数字字符串，使批处理输出与
// 交互渲染前的输出可以逐字节比较。
var interactive atomic.Bool

// SetInteractive 切换交互渲染模式。
func SetInteractive(on bool) {
	interactive.Store(on)
}

// FormatPoints 将积分格式化为字符串；交互模式下带千位分隔符。
func FormatPoints(n int) string {
	if !interactive.Load() {
		return strconv.Itoa(n)
	}
	return printer.Sprintf("%d", n)
}

// FormatAverage 将人均积分格式化为一位小数。
func FormatAverage(f float64) string {
	if !interactive.Load() {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return printer.Sprintf("%.1f", f)
}

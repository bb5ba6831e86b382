package app

import (
	"fmt"
	"strings"
)

// StartupSummary 在启动时打印一份一眼可读的配置摘要。
type StartupSummary struct {
	Addr            string
	Provider        string
	Symbol          string
	CacheEnabled    bool
	RunLogEnabled   bool
	PresetsEnabled  bool
	SnapshotEnabled bool
}

func (s *StartupSummary) Print() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%*s\n", 40+len("启动配置摘要 (STARTUP SUMMARY)")/2, "启动配置摘要 (STARTUP SUMMARY)")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Println("[HTTP]")
	fmt.Printf("  监听地址: %s\n", s.Addr)
	fmt.Println()

	fmt.Println("[基准指数 (BENCHMARK)]")
	fmt.Printf("  数据源: %s\n", s.Provider)
	fmt.Printf("  符号: %s\n", s.Symbol)
	fmt.Printf("  本地缓存: %s\n", onOff(s.CacheEnabled))
	fmt.Println()

	fmt.Println("[功能开关 (FEATURES)]")
	fmt.Printf("  运行日志: %s\n", onOff(s.RunLogEnabled))
	fmt.Printf("  参数预设: %s\n", onOff(s.PresetsEnabled))
	fmt.Printf("  图表快照: %s\n", onOff(s.SnapshotEnabled))
	fmt.Println(strings.Repeat("=", 80))
}

func onOff(enabled bool) string {
	if enabled {
		return "开启"
	}
	return "关闭"
}

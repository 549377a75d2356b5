package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"tollbooth/internal/config"
	"tollbooth/internal/logger"
	"tollbooth/pkg/api"
	"tollbooth/pkg/filterspec"
	"tollbooth/pkg/flow"
)

// main 命令行入口：加载过滤配置，对 JSONL 流量逐条求值。
// 输入行既可以是代理上报信封（带 type 字段），也可以是裸 TrafficFlow。
func main() {
	var (
		configPath = flag.String("config", "", "配置文件路径，缺省使用内置默认值")
		filterPath = flag.String("filter", "", "过滤配置 JSON 文件路径")
		flowsPath  = flag.String("flows", "-", "流量 JSONL 文件路径，- 表示 stdin")
		describe   = flag.Bool("describe", false, "仅打印过滤配置的条件描述后退出")
		withStore  = flag.Bool("store", false, "启用 sqlite 存储，经信封摄取的流量会入库")
	)
	flag.Parse()

	cfg := config.NewConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "加载配置失败:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	l := logger.New(logger.Options{
		Level:    cfg.Log.Level,
		Writers:  cfg.Log.Writer,
		FilePath: cfg.Log.File,
	})

	svc, err := api.NewService(cfg, l, *withStore)
	if err != nil {
		l.Error("初始化服务失败", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	var af *filterspec.AdvancedFilter
	if *filterPath != "" {
		data, err := os.ReadFile(*filterPath)
		if err != nil {
			l.Error("读取过滤配置失败", "error", err)
			os.Exit(1)
		}
		if af, err = filterspec.Parse(data); err != nil {
			l.Error("解析过滤配置失败", "error", err)
			os.Exit(1)
		}
	}

	for _, p := range svc.SetFilter(af) {
		l.Warn("过滤配置问题", "detail", p.String())
	}

	if *describe {
		for _, line := range svc.DescribeFilter() {
			fmt.Println(line)
		}
		return
	}

	in := os.Stdin
	if *flowsPath != "-" {
		f, err := os.Open(*flowsPath)
		if err != nil {
			l.Error("打开流量文件失败", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	ctx := context.Background()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if gjson.GetBytes(line, "type").Exists() {
			res, err := svc.Ingest(ctx, line)
			if err != nil {
				l.Warn("摄取消息失败", "line", lineNo, "error", err)
				continue
			}
			if res.FlowID != "" && res.Matched {
				fmt.Println(res.FlowID)
			}
			continue
		}

		var f flow.TrafficFlow
		if err := json.Unmarshal(line, &f); err != nil {
			l.Warn("解析流量失败", "line", lineNo, "error", err)
			continue
		}
		if svc.EvaluateFlow(&f) {
			fmt.Println(f.FlowID)
		}
	}
	if err := scanner.Err(); err != nil {
		l.Error("读取输入失败", "error", err)
		os.Exit(1)
	}

	stats := svc.Stats()
	l.Info("求值完成", "total", stats.Total, "matched", stats.Matched)
}

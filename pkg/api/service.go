package api

import (
	"context"

	"tollbooth/internal/config"
	"tollbooth/internal/logger"
	"tollbooth/internal/service"
	"tollbooth/pkg/filterspec"
	"tollbooth/pkg/flow"
	"tollbooth/pkg/model"
)

// Service 服务接口
type Service interface {
	// SetFilter 更新当前过滤配置，返回配置诊断（不影响求值）
	SetFilter(af *filterspec.AdvancedFilter) []filterspec.Problem

	// EvaluateFlow 对单个流量求值当前过滤配置
	EvaluateFlow(f *flow.TrafficFlow) bool

	// FilterFlows 过滤内存中的流量列表
	FilterFlows(fs []*flow.TrafficFlow) []*flow.TrafficFlow

	// DescribeCondition 生成条件的可读描述
	DescribeCondition(c *filterspec.Condition) string

	// DescribeFilter 逐条描述当前过滤配置
	DescribeFilter() []string

	// Stats 获取引擎统计信息
	Stats() model.EngineStats

	// Ingest 摄取一条代理上报消息
	Ingest(ctx context.Context, raw []byte) (*model.IngestResult, error)

	// QueryStored 按当前过滤配置筛选已入库流量
	QueryStored(ctx context.Context) ([]*flow.TrafficFlow, error)

	// TagFlow 为已入库流量追加标签
	TagFlow(ctx context.Context, id flow.FlowID, tag string) error

	// Close 释放底层资源
	Close() error
}

// NewService 创建并返回服务接口实现
func NewService(cfg *config.Config, l logger.Logger, withStore bool) (Service, error) {
	return service.New(service.Options{Config: cfg, Logger: l, WithStore: withStore})
}

package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tollbooth/internal/adapter/proxy"
	"tollbooth/internal/config"
	logger2 "tollbooth/internal/logger"
	"tollbooth/internal/rules"
	"tollbooth/internal/storage"
	"tollbooth/pkg/filterspec"
	"tollbooth/pkg/flow"
	"tollbooth/pkg/model"
)

// Service 过滤核心的聚合实现：引擎 + 代理消息转换 + 流量存储
type Service struct {
	engine    *rules.Engine
	converter *proxy.Converter
	store     *storage.Store
	db        *gorm.DB
	log       logger2.Logger
}

// Options 服务初始化选项
type Options struct {
	Config *config.Config
	Logger logger2.Logger
	// WithStore 为 false 时跳过 sqlite，只做内存求值
	WithStore bool
}

// New 创建服务实例
func New(opts Options) (*Service, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	l := opts.Logger
	if l == nil {
		l = logger2.NewNop()
	}

	s := &Service{
		engine:    rules.New(nil),
		converter: proxy.NewConverter(cfg.Proxy.LLMHosts, cfg.Proxy.MaxBodySize),
		log:       l,
	}

	if opts.WithStore {
		db, err := storage.Open(cfg.Sqlite, l)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		s.db = db
		s.store = storage.NewStore(db, l)
	}
	return s, nil
}

// SetFilter 更新当前过滤配置并返回配置诊断
func (s *Service) SetFilter(af *filterspec.AdvancedFilter) []filterspec.Problem {
	problems := filterspec.Lint(af)
	s.engine.Update(af)
	s.log.Info("过滤配置已更新",
		"enabled", af != nil && af.Enabled,
		"groups", groupCount(af),
		"problems", len(problems))
	return problems
}

// EvaluateFlow 对单个流量求值当前过滤配置
func (s *Service) EvaluateFlow(f *flow.TrafficFlow) bool {
	return s.engine.Eval(f)
}

// FilterFlows 过滤内存中的流量列表
func (s *Service) FilterFlows(fs []*flow.TrafficFlow) []*flow.TrafficFlow {
	out := make([]*flow.TrafficFlow, 0, len(fs))
	for _, f := range fs {
		if s.engine.Eval(f) {
			out = append(out, f)
		}
	}
	return out
}

// DescribeCondition 生成条件的可读描述
func (s *Service) DescribeCondition(c *filterspec.Condition) string {
	return rules.DescribeCondition(c)
}

// DescribeFilter 逐条描述当前过滤配置
func (s *Service) DescribeFilter() []string {
	return rules.DescribeFilter(s.engine.Filter())
}

// Stats 返回引擎统计
func (s *Service) Stats() model.EngineStats {
	return s.engine.Stats()
}

// Ingest 摄取一条代理消息：解码、求值，带存储时按消息类型入库。
// response 类消息在已有请求记录上补写响应，否则整条入库。
func (s *Service) Ingest(ctx context.Context, raw []byte) (*model.IngestResult, error) {
	msg, err := s.converter.ParseMessage(raw)
	if errors.Is(err, proxy.ErrNotFlowMessage) {
		return &model.IngestResult{Type: msg.Type}, nil
	}
	if err != nil {
		return nil, err
	}

	f := msg.Flow
	res := &model.IngestResult{
		Type:    msg.Type,
		FlowID:  string(f.FlowID),
		Matched: s.engine.Eval(f),
	}

	if s.store == nil {
		return res, nil
	}

	switch msg.Type {
	case proxy.TypeResponse, proxy.TypeInterceptResponse:
		if f.Response != nil {
			err = s.store.AttachResponse(ctx, f.FlowID, f.Response, f.ResponseModified)
			if errors.Is(err, storage.ErrFlowNotFound) {
				// 请求阶段未经过本服务（如代理重连后），整条补录
				err = s.store.Save(ctx, f)
			}
		} else {
			err = s.store.Save(ctx, f)
		}
	default:
		err = s.store.Save(ctx, f)
	}
	if err != nil {
		return nil, err
	}
	res.Stored = true
	return res, nil
}

// QueryStored 按当前过滤配置筛选已入库的流量
func (s *Service) QueryStored(ctx context.Context) ([]*flow.TrafficFlow, error) {
	if s.store == nil {
		return nil, errors.New("store is not enabled")
	}
	return s.store.List(ctx, s.engine.Filter())
}

// TagFlow 为已入库流量追加标签
func (s *Service) TagFlow(ctx context.Context, id flow.FlowID, tag string) error {
	if s.store == nil {
		return errors.New("store is not enabled")
	}
	return s.store.AddTag(ctx, id, tag)
}

// Close 释放底层资源
func (s *Service) Close() error {
	return storage.Close(s.db)
}

func groupCount(af *filterspec.AdvancedFilter) int {
	if af == nil {
		return 0
	}
	return len(af.Groups)
}

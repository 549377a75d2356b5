package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/sjson"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	logger2 "tollbooth/internal/logger"
	"tollbooth/internal/rules"
	"tollbooth/pkg/filterspec"
	"tollbooth/pkg/flow"
)

// ErrFlowNotFound 指定的流量记录不存在
var ErrFlowNotFound = errors.New("flow record not found")

// Store 流量存取层
type Store struct {
	db  *gorm.DB
	log logger2.Logger
}

// NewStore 创建流量存取层
func NewStore(db *gorm.DB, l logger2.Logger) *Store {
	if l == nil {
		l = logger2.NewNop()
	}
	return &Store{db: db, log: l}
}

// Save 写入或覆盖一条流量记录（按 flow_id 幂等）
func (s *Store) Save(ctx context.Context, f *flow.TrafficFlow) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal flow: %w", err)
	}

	rec := FlowRecord{
		FlowID:   string(f.FlowID),
		Host:     f.Request.Host,
		Method:   f.Request.Method,
		Path:     f.Request.Path,
		IsLLMAPI: f.IsLLMAPI,
		Raw:      string(raw),
	}
	if f.Response != nil {
		rec.Status = f.Response.StatusCode
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "flow_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"host", "method", "path", "status", "is_llm_api", "raw", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save flow: %w", err)
	}
	s.log.Debug("流量已入库", "flowID", string(f.FlowID), "host", f.Request.Host)
	return nil
}

// AttachResponse 为已入库的请求补写响应，直接在原始 JSON 上打补丁
func (s *Store) AttachResponse(ctx context.Context, id flow.FlowID, res *flow.ResponseData, modified bool) error {
	rec, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	raw, err := sjson.Set(rec.Raw, "response", res)
	if err != nil {
		return fmt.Errorf("patch response: %w", err)
	}
	if modified {
		if raw, err = sjson.Set(raw, "response_modified", true); err != nil {
			return fmt.Errorf("patch response_modified: %w", err)
		}
	}

	updates := map[string]any{"raw": raw, "status": res.StatusCode}
	if err := s.db.WithContext(ctx).Model(&FlowRecord{}).Where("flow_id = ?", string(id)).Updates(updates).Error; err != nil {
		return fmt.Errorf("attach response: %w", err)
	}
	s.log.Debug("响应已补写", "flowID", string(id), "status", res.StatusCode)
	return nil
}

// AddTag 为已入库的流量追加标签，重复标签忽略
func (s *Store) AddTag(ctx context.Context, id flow.FlowID, tag string) error {
	rec, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	var f flow.TrafficFlow
	if err := json.Unmarshal([]byte(rec.Raw), &f); err != nil {
		return fmt.Errorf("unmarshal stored flow: %w", err)
	}
	for _, t := range f.Tags {
		if t == tag {
			return nil
		}
	}

	raw, err := sjson.Set(rec.Raw, "tags.-1", tag)
	if err != nil {
		return fmt.Errorf("patch tags: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&FlowRecord{}).Where("flow_id = ?", string(id)).Update("raw", raw).Error; err != nil {
		return fmt.Errorf("add tag: %w", err)
	}
	return nil
}

// Get 按 flow_id 取回完整流量
func (s *Store) Get(ctx context.Context, id flow.FlowID) (*flow.TrafficFlow, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	var f flow.TrafficFlow
	if err := json.Unmarshal([]byte(rec.Raw), &f); err != nil {
		return nil, fmt.Errorf("unmarshal stored flow: %w", err)
	}
	return &f, nil
}

// List 取回全部流量并按过滤配置筛选，af 为 nil 时返回全部
func (s *Store) List(ctx context.Context, af *filterspec.AdvancedFilter) ([]*flow.TrafficFlow, error) {
	var recs []FlowRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}

	out := make([]*flow.TrafficFlow, 0, len(recs))
	for i := range recs {
		var f flow.TrafficFlow
		if err := json.Unmarshal([]byte(recs[i].Raw), &f); err != nil {
			s.log.Warn("已入库流量解析失败，跳过", "flowID", recs[i].FlowID, "error", err)
			continue
		}
		if rules.EvaluateFilter(&f, af) {
			out = append(out, &f)
		}
	}
	return out, nil
}

func (s *Store) get(ctx context.Context, id flow.FlowID) (*FlowRecord, error) {
	var rec FlowRecord
	err := s.db.WithContext(ctx).Where("flow_id = ?", string(id)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFlowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load flow: %w", err)
	}
	return &rec, nil
}

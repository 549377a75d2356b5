package ctxkeys

// TraceIDKey 链路追踪ID的 context 键
type TraceIDKey struct{}

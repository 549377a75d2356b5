package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 键值对风格的日志接口，args 按 key1, value1, key2, value2 排列
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options 日志初始化选项
type Options struct {
	Level    string   // debug / info / warn / error
	Writers  []string // console / file
	FilePath string   // file writer 的落盘路径
}

// zeroLogger 基于 zerolog 的默认实现
type zeroLogger struct {
	l zerolog.Logger
}

// New 按选项创建日志器，file writer 经 lumberjack 轮转
func New(opts Options) Logger {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	for _, w := range opts.Writers {
		switch w {
		case "console":
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		case "file":
			path := opts.FilePath
			if path == "" {
				path = "tollbooth.log"
			}
			writers = append(writers, &lumberjack.Logger{
				Filename:   path,
				MaxSize:    50, // MB
				MaxBackups: 5,
				MaxAge:     14, // 天
				Compress:   true,
			})
		}
	}
	if len(writers) == 0 {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	return &zeroLogger{l: zl}
}

func (z *zeroLogger) Debug(msg string, args ...any) { z.emit(z.l.Debug(), msg, args) }
func (z *zeroLogger) Info(msg string, args ...any)  { z.emit(z.l.Info(), msg, args) }
func (z *zeroLogger) Warn(msg string, args ...any)  { z.emit(z.l.Warn(), msg, args) }
func (z *zeroLogger) Error(msg string, args ...any) { z.emit(z.l.Error(), msg, args) }

func (z *zeroLogger) emit(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("arg%d", i)
		}
		ev = ev.Interface(key, args[i+1])
	}
	ev.Msg(msg)
}

// nopLogger 空实现，测试与缺省注入用
type nopLogger struct{}

// NewNop 创建不输出任何内容的日志器
func NewNop() Logger { return nopLogger{} }

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

// Package logger 提供统一的日志工具（基于 zerolog）
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel 解析日志级别字符串
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger 日志记录器
// 通过 With 创建的子 logger 共享根 logger 的级别和输出
type Logger struct {
	mu       sync.Mutex
	level    Level
	enabled  bool
	console  bool
	file     bool
	filePath string
	fileOut  *os.File
	out      io.Writer
	zl       zerolog.Logger

	parent    *Logger
	component string
}

// 全局默认 logger
var defaultLogger = New()

// New 创建新的 Logger 实例
func New() *Logger {
	l := &Logger{
		level:   INFO,
		enabled: true,
		console: true,
	}
	l.updateOutput()
	return l
}

// NewWithWriter 创建输出到指定 writer 的 Logger（JSON 格式）
func NewWithWriter(w io.Writer, level Level) *Logger {
	l := &Logger{
		level:   level,
		enabled: true,
		out:     w,
	}
	l.zl = zerolog.New(w).Level(level.zerolog()).With().Timestamp().Logger()
	return l
}

// Default 获取默认 logger
func Default() *Logger {
	return defaultLogger
}

// With 返回带 component 字段的子 logger
func (l *Logger) With(component string) *Logger {
	return &Logger{parent: l.root(), component: component}
}

func (l *Logger) root() *Logger {
	for l.parent != nil {
		l = l.parent
	}
	return l
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level Level) {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.level = level
	r.zl = r.zl.Level(level.zerolog())
}

// GetLevel 获取日志级别
func (l *Logger) GetLevel() Level {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.level
}

// SetEnabled 设置是否启用日志
func (l *Logger) SetEnabled(enabled bool) {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}

// SetConsole 设置是否输出到控制台
func (l *Logger) SetConsole(enabled bool) {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.console = enabled
	r.updateOutput()
}

// SetFile 设置是否输出到文件
func (l *Logger) SetFile(enabled bool, path string) error {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()

	// 关闭旧文件
	if r.fileOut != nil {
		r.fileOut.Close()
		r.fileOut = nil
	}

	r.file = enabled
	r.filePath = path

	if enabled && path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("无法打开日志文件: %w", err)
		}
		r.fileOut = f
	}

	r.updateOutput()
	return nil
}

func (l *Logger) updateOutput() {
	var writers []io.Writer

	if l.console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}
	if l.file && l.fileOut != nil {
		writers = append(writers, l.fileOut)
	}

	switch len(writers) {
	case 0:
		l.out = io.Discard
	case 1:
		l.out = writers[0]
	default:
		l.out = zerolog.MultiLevelWriter(writers...)
	}

	l.zl = zerolog.New(l.out).Level(l.level.zerolog()).With().Timestamp().Logger()
}

// event 在根 logger 上创建事件，未启用或级别不足时返回 nil
// 调用方须持有根 logger 的锁
func (l *Logger) event(r *Logger, level Level) *zerolog.Event {
	if !r.enabled || level < r.level {
		return nil
	}
	ev := r.zl.WithLevel(level.zerolog())
	if l.component != "" {
		ev = ev.Str("component", l.component)
	}
	return ev
}

// log 内部日志方法
func (l *Logger) log(level Level, format string, args ...interface{}) {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev := l.event(r, level); ev != nil {
		ev.Msgf(format, args...)
	}
}

// Debug 输出 DEBUG 级别日志
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info 输出 INFO 级别日志
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn 输出 WARN 级别日志
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error 输出 ERROR 级别日志
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// LogEvent 记录带分类的事件日志，失败事件使用 ERROR 级别
func (l *Logger) LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()

	level := INFO
	if !ok {
		level = ERROR
	}
	ev := l.event(r, level)
	if ev == nil {
		return
	}
	ev.Str("category", category).
		Bool("ok", ok).
		Dur("elapsed", time.Duration(elapsedMs*float64(time.Millisecond))).
		Msg(detail)
}

// Close 关闭 logger，释放资源
func (l *Logger) Close() error {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fileOut != nil {
		err := r.fileOut.Close()
		r.fileOut = nil
		return err
	}
	return nil
}

// 包级别便捷函数
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
func LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	defaultLogger.LogEvent(category, ok, elapsedMs, detail)
}

// SetLevel 设置默认 logger 的级别
func SetLevel(level Level) { defaultLogger.SetLevel(level) }

// SetFile 设置默认 logger 的文件输出
func SetFile(enabled bool, path string) error { return defaultLogger.SetFile(enabled, path) }

// Close 关闭默认 logger
func Close() error { return defaultLogger.Close() }

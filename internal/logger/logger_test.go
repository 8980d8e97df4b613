package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"Error":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, 期望 %s", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, WARN)

	l.Info("不应输出 %d", 1)
	l.Warn("应输出 %d", 2)

	out := buf.String()
	if strings.Contains(out, "不应输出") {
		t.Errorf("INFO 日志不应在 WARN 级别输出: %s", out)
	}
	if !strings.Contains(out, "应输出 2") {
		t.Errorf("WARN 日志缺失: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, DEBUG).With("detect")
	l.Debug("contours=%d", 3)

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("日志不是合法 JSON: %v (%s)", err, buf.String())
	}
	if entry["component"] != "detect" {
		t.Errorf("component 字段错误: %v", entry["component"])
	}
	if entry["message"] != "contours=3" {
		t.Errorf("message 字段错误: %v", entry["message"])
	}
}

func TestLogEvent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, INFO)

	l.LogEvent("CARD", true, 12.5, "A_SPADES")
	l.LogEvent("CARD", false, 3, "unknown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("期望 2 行日志, 实际 %d: %s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"level":"info"`) || !strings.Contains(lines[1], `"level":"error"`) {
		t.Errorf("事件级别错误: %v", lines)
	}
}

func TestDisabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, DEBUG)
	l.SetEnabled(false)
	l.Error("hidden")
	if buf.Len() != 0 {
		t.Errorf("禁用后不应有输出: %s", buf.String())
	}
}

func TestSetFile(t *testing.T) {
	l := New()
	l.SetConsole(false)
	path := filepath.Join(t.TempDir(), "run.log")
	if err := l.SetFile(true, path); err != nil {
		t.Fatalf("SetFile 失败: %v", err)
	}
	l.Info("写入文件")
	if err := l.Close(); err != nil {
		t.Errorf("Close 失败: %v", err)
	}
}

func TestChildFollowsParentLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, INFO)
	child := parent.With("templates")

	child.Debug("隐藏")
	if buf.Len() != 0 {
		t.Fatalf("INFO 级别下不应输出 DEBUG: %s", buf.String())
	}

	parent.SetLevel(DEBUG)
	child.Debug("可见")
	if !strings.Contains(buf.String(), "可见") {
		t.Errorf("父 logger 调整级别后子 logger 应输出 DEBUG: %s", buf.String())
	}
	if child.GetLevel() != DEBUG {
		t.Errorf("子 logger 级别应为 DEBUG, 实际 %s", child.GetLevel())
	}
}

// Package runner 驱动帧来源到识别流水线的主循环
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/internal/logger"
	"github.com/zoeyai/cardvision/pkg/source"
	"github.com/zoeyai/cardvision/pkg/stats"
	"github.com/zoeyai/cardvision/pkg/vision"
	"github.com/zoeyai/cardvision/pkg/vision/cv"
)

// Processor 单帧识别，*vision.Pipeline 实现了该接口
type Processor interface {
	ProcessFrame(frame gocv.Mat) ([]vision.CardResult, error)
	ProcessLargest(frame gocv.Mat) (*vision.CardResult, error)
}

// Frame 单帧的识别输出
type Frame struct {
	Index    int                 `json:"index"`
	Results  []vision.CardResult `json:"results"`
	Smoothed string              `json:"smoothed,omitempty"`
	Elapsed  time.Duration       `json:"elapsed"`
}

// Sink 接收每帧输出，返回错误时循环终止
type Sink func(Frame) error

// Runner 帧循环
type Runner struct {
	proc      Processor
	multi     bool
	maxFrames int
	session   *stats.Session
	log       *logger.Logger
}

// Option 运行选项
type Option func(*Runner)

// WithMultiCard 多卡模式
func WithMultiCard(enabled bool) Option {
	return func(r *Runner) {
		r.multi = enabled
	}
}

// WithMaxFrames 最多处理 n 帧，0 表示不限
func WithMaxFrames(n int) Option {
	return func(r *Runner) {
		r.maxFrames = n
	}
}

// WithSession 使用外部会话统计
func WithSession(s *stats.Session) Option {
	return func(r *Runner) {
		r.session = s
	}
}

// New 创建帧循环
func New(proc Processor, opts ...Option) *Runner {
	r := &Runner{
		proc: proc,
		log:  logger.Default().With("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.session == nil {
		r.session = stats.NewSession(stats.DefaultHistorySize)
	}
	return r
}

// Session 会话统计
func (r *Runner) Session() *stats.Session {
	return r.session
}

// Run 循环读取帧并识别，直到来源结束、ctx 取消或 sink 返回错误
// 来源结束和 ctx 取消都视为正常退出，返回 nil
func (r *Runner) Run(ctx context.Context, src source.FrameSource, sink Sink) error {
	start := time.Now()
	n := 0
	defer func() {
		r.log.LogEvent("run", true, float64(time.Since(start).Milliseconds()), fmt.Sprintf("frames=%d", n))
	}()

	for {
		if ctx.Err() != nil {
			r.log.Info("已取消, 停止读取")
			return nil
		}
		if r.maxFrames > 0 && n >= r.maxFrames {
			return nil
		}

		frame, err := src.Read(ctx)
		if err != nil {
			frame.Close()
			switch {
			case errors.Is(err, source.ErrEndOfStream):
				r.log.Info("来源结束")
				return nil
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return nil
			default:
				return fmt.Errorf("读取帧失败: %w", err)
			}
		}

		out, err := r.processFrame(n, frame)
		frame.Close()
		n++
		if err != nil {
			if errors.Is(err, cv.ErrInvalidInput) {
				r.log.Warn("第 %d 帧无法处理: %v", out.Index, err)
				continue
			}
			return err
		}

		err = sink(out)
		vision.CloseResults(out.Results)
		if err != nil {
			return err
		}
	}
}

func (r *Runner) processFrame(index int, frame gocv.Mat) (Frame, error) {
	t := time.Now()
	out := Frame{Index: index}

	if r.multi {
		results, err := r.proc.ProcessFrame(frame)
		if err != nil {
			return out, err
		}
		out.Results = results
	} else {
		res, err := r.proc.ProcessLargest(frame)
		if err != nil {
			return out, err
		}
		if res != nil {
			out.Results = []vision.CardResult{*res}
		}
	}

	for _, res := range out.Results {
		r.session.Add(res.Result)
	}
	out.Smoothed, _ = r.session.Smoothed()
	out.Elapsed = time.Since(t)
	return out, nil
}

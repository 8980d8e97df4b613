package source

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/internal/logger"
)

// VideoSource 摄像头、视频文件或 RTSP 流
type VideoSource struct {
	mu     sync.Mutex
	device interface{}
	cap    *gocv.VideoCapture
	frames int
	log    *logger.Logger
}

// OpenVideo 打开视频来源，device 为摄像头编号或文件路径/URL
func OpenVideo(device interface{}) (*VideoSource, error) {
	c, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("打开视频来源 %v 失败: %w", device, err)
	}
	if !c.IsOpened() {
		c.Close()
		return nil, fmt.Errorf("视频来源 %v 未能打开", device)
	}

	log := logger.Default().With("source")
	log.Info("已打开视频来源: %v (%.0fx%.0f)", device,
		c.Get(gocv.VideoCaptureFrameWidth), c.Get(gocv.VideoCaptureFrameHeight))

	return &VideoSource{device: device, cap: c, log: log}, nil
}

// Read 读取下一帧；读取失败或流结束时返回 ErrEndOfStream
func (s *VideoSource) Read(ctx context.Context) (gocv.Mat, error) {
	if err := ctx.Err(); err != nil {
		return gocv.NewMat(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cap == nil {
		return gocv.NewMat(), ErrEndOfStream
	}

	frame := gocv.NewMat()
	if ok := s.cap.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		s.log.Info("视频来源 %v 结束, 共 %d 帧", s.device, s.frames)
		return gocv.NewMat(), ErrEndOfStream
	}
	s.frames++
	return frame, nil
}

// Frames 已读取的帧数
func (s *VideoSource) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Close 释放设备
func (s *VideoSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cap == nil {
		return nil
	}
	err := s.cap.Close()
	s.cap = nil
	return err
}

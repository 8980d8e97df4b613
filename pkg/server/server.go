// Package server 提供识别服务的 HTTP 与 WebSocket 接口
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/internal/logger"
	"github.com/zoeyai/cardvision/pkg/stats"
	"github.com/zoeyai/cardvision/pkg/vision"
)

// Recognizer 单帧识别，*vision.Pipeline 实现了该接口
type Recognizer interface {
	ProcessFrame(frame gocv.Mat) ([]vision.CardResult, error)
	ProcessLargest(frame gocv.Mat) (*vision.CardResult, error)
}

// Options 服务选项
type Options struct {
	// WebSocket 为 true 时挂载 /ws
	WebSocket bool
	// MaxUploadBytes 上传图片大小上限，0 时使用 10MB
	MaxUploadBytes int64
}

// Server 识别服务
type Server struct {
	rec     Recognizer
	session *stats.Session
	hub     *Hub
	opts    Options
	engine  *gin.Engine
	log     *logger.Logger
}

// New 创建服务，session 为 nil 时新建
func New(rec Recognizer, session *stats.Session, opts Options) *Server {
	if session == nil {
		session = stats.NewSession(stats.DefaultHistorySize)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}

	s := &Server{
		rec:     rec,
		session: session,
		hub:     NewHub(),
		opts:    opts,
		log:     logger.Default().With("server"),
	}
	s.engine = s.setupRouter()
	return s
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", s.handleHealth)
	if s.opts.WebSocket {
		r.GET("/ws", s.hub.handleWebSocket)
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/classify", s.handleClassify)
		v1.POST("/analyze", s.handleAnalyze)
		v1.GET("/stats", s.handleStats)
		v1.POST("/stats/reset", s.handleStatsReset)
	}
	return r
}

// requestLogger 用项目日志记录每个请求
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		s.log.LogEvent("http", status < http.StatusInternalServerError,
			float64(time.Since(start).Milliseconds()),
			c.Request.Method+" "+c.Request.URL.Path+" "+http.StatusText(status))
	}
}

// Handler 返回 HTTP 处理器
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Hub 返回广播中心
func (s *Server) Hub() *Hub {
	return s.hub
}

// Session 返回会话统计
func (s *Server) Session() *stats.Session {
	return s.session
}

// Publish 推送消息给所有 WebSocket 客户端
func (s *Server) Publish(v interface{}) {
	if s.opts.WebSocket {
		s.hub.Broadcast(v)
	}
}

// Start 启动广播中心
func (s *Server) Start(ctx context.Context) {
	if s.opts.WebSocket {
		go s.hub.Run(ctx)
	}
}

// Run 监听 addr 直到 ctx 取消，然后优雅关闭
func (s *Server) Run(ctx context.Context, addr string) error {
	s.Start(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("服务已启动: %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("正在关闭服务")
	return srv.Shutdown(shutdownCtx)
}

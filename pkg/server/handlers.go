package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zoeyai/cardvision/pkg/card"
	"github.com/zoeyai/cardvision/pkg/process"
	"github.com/zoeyai/cardvision/pkg/stats"
	"github.com/zoeyai/cardvision/pkg/vision"
	"github.com/zoeyai/cardvision/pkg/vision/cv"
)

// 识别模式
const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// CardPayload 单张卡片的响应
type CardPayload struct {
	vision.CardResult
	// Image 矫正后的标准图像，仅 debug 时返回
	Image string `json:"image,omitempty"`
}

// ClassifyResponse 识别接口响应
type ClassifyResponse struct {
	Mode      string        `json:"mode"`
	Cards     []CardPayload `json:"cards"`
	Smoothed  string        `json:"smoothed,omitempty"`
	ElapsedMs float64       `json:"elapsed_ms"`
}

// AnalyzeRequest 误判分析请求
type AnalyzeRequest struct {
	GroundTruth []string      `json:"ground_truth" binding:"required"`
	Predictions []card.Result `json:"predictions" binding:"required"`
}

// AnalyzeResponse 误判分析响应
type AnalyzeResponse struct {
	stats.Analysis
	Report string `json:"report"`
}

// StatsResponse 统计接口响应
type StatsResponse struct {
	Session stats.SessionSummary `json:"session"`
	Process *process.Usage       `json:"process,omitempty"`
	Clients int                  `json:"ws_clients"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": vision.Version})
}

// POST /api/v1/classify
// multipart 字段: file (图片), mode (single|multi), debug (true 时返回标准图像)
func (s *Server) handleClassify(c *gin.Context) {
	start := time.Now()

	mode := c.DefaultPostForm("mode", c.DefaultQuery("mode", ModeSingle))
	if mode != ModeSingle && mode != ModeMulti {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode 只能为 single 或 multi"})
		return
	}
	debug := c.DefaultPostForm("debug", c.Query("debug")) == "true"

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少图片文件: " + err.Error()})
		return
	}
	if fh.Size > s.opts.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "图片过大"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取上传文件失败: " + err.Error()})
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, s.opts.MaxUploadBytes))
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取上传文件失败: " + err.Error()})
		return
	}

	frame, err := cv.DecodeImage(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "图片无法解码", "details": err.Error()})
		return
	}
	defer frame.Close()

	var results []vision.CardResult
	if mode == ModeMulti {
		results, err = s.rec.ProcessFrame(frame)
	} else {
		var res *vision.CardResult
		res, err = s.rec.ProcessLargest(frame)
		if res != nil {
			results = []vision.CardResult{*res}
		}
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, cv.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		s.log.Error("识别失败: %v", err)
		c.JSON(status, gin.H{"error": "识别失败", "details": err.Error()})
		return
	}
	defer vision.CloseResults(results)

	resp := ClassifyResponse{Mode: mode, Cards: make([]CardPayload, 0, len(results))}
	for _, r := range results {
		p := CardPayload{CardResult: r}
		if debug && r.Card != nil {
			if img, err := MatToBase64(*r.Card); err == nil {
				p.Image = img
			} else {
				s.log.Warn("编码标准图像失败: %v", err)
			}
		}
		resp.Cards = append(resp.Cards, p)
		s.session.Add(r.Result)
	}
	resp.Smoothed, _ = s.session.Smoothed()
	resp.ElapsedMs = float64(time.Since(start).Microseconds()) / 1000

	s.Publish(resp)
	c.JSON(http.StatusOK, resp)
}

// POST /api/v1/analyze
func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	a, err := stats.Analyze(req.GroundTruth, req.Predictions)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, AnalyzeResponse{Analysis: a, Report: a.Format()})
}

// GET /api/v1/stats
func (s *Server) handleStats(c *gin.Context) {
	resp := StatsResponse{
		Session: s.session.Summary(),
		Clients: s.hub.Clients(),
	}
	if u, err := process.Self(); err == nil {
		resp.Process = u
	} else {
		s.log.Warn("读取进程信息失败: %v", err)
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/v1/stats/reset
func (s *Server) handleStatsReset(c *gin.Context) {
	s.session.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

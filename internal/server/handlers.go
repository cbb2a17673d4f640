package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fachebot/text-digest/internal/history"
	"github.com/fachebot/text-digest/internal/ingest"
	"github.com/fachebot/text-digest/internal/logger"
	"github.com/fachebot/text-digest/internal/style"
	"github.com/fachebot/text-digest/internal/summarizer"
	"github.com/gin-gonic/gin"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

type summarizeRequest struct {
	Text         string `json:"text"`
	Style        string `json:"style"`
	CustomPrompt string `json:"custom_prompt"`
}

type summarizeResponse struct {
	Summary     string  `json:"summary"`
	Style       string  `json:"style"`
	WordCount   int     `json:"word_count"`
	Coverage    float64 `json:"coverage"`
	LowCoverage bool    `json:"low_coverage"`
	Depth       int     `json:"depth"`
	Chunks      int     `json:"chunks"`
	Degraded    bool    `json:"degraded"`
	RunID       string  `json:"run_id"`
}

type errorResponse struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Text Digest API!"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Summarization API is running"})
}

func (s *Server) handleModelInfo(c *gin.Context) {
	cfg := s.config
	styles := make([]string, 0, len(style.All()))
	for _, st := range style.All() {
		styles = append(styles, string(st))
	}

	c.JSON(http.StatusOK, gin.H{
		"provider":            s.info.Provider,
		"summarization_model": cfg.LLM.SummaryModel,
		"style_model":         cfg.LLM.StyleModel,
		"available":           s.info.Available,
		"input_limits": gin.H{
			"text_area": gin.H{
				"min_words": cfg.Limits.TextArea.MinWords,
				"max_words": cfg.Limits.TextArea.MaxWords,
			},
			"file_upload": gin.H{
				"min_words": cfg.Limits.FileUpload.MinWords,
				"max_words": cfg.Limits.FileUpload.MaxWords,
			},
		},
		"processing": gin.H{
			"chunk_trigger_words": cfg.Chunking.TriggerWords,
			"token_chunk_size":    fmt.Sprintf("%d-%d tokens", cfg.Chunking.MinTokens, cfg.Chunking.MaxTokens),
			"target_compression":  fmt.Sprintf("%g%%-%g%%", cfg.Compression.Min*100, cfg.Compression.Max*100),
			"max_depth":           cfg.Chunking.MaxDepth,
			"overlap_sentences":   cfg.Chunking.OverlapSentences,
			"tokenizer":           s.info.TokenizerStrategy,
			"segmenter":           s.info.SegmenterStrategy,
		},
		"supported_styles": styles,
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Kind: "invalid_request", Detail: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	if s.history == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []*history.Run{}})
		return
	}

	runs, err := s.history.Recent(c.Request.Context(), limit)
	if err != nil {
		logger.Errorf("[Server] 查询运行记录失败: %v", err)
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleSummarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Kind: "invalid_request", Detail: "Invalid JSON body: " + err.Error()})
		return
	}

	s.summarize(c, summarizer.Request{
		Text:        req.Text,
		Channel:     summarizer.ChannelTextArea,
		Style:       req.Style,
		Instruction: req.CustomPrompt,
	})
}

func (s *Server) handleSummarizeFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.Server.MaxUploadBytes+1024*1024)

	header, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Kind: "invalid_request", Detail: "A file field is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		s.writeError(c, fmt.Errorf("打开上传文件失败: %w", err))
		return
	}
	defer file.Close()

	text, err := s.files.Read(header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.summarize(c, summarizer.Request{
		Text:        text,
		Channel:     summarizer.ChannelFileUpload,
		Style:       c.PostForm("style"),
		Instruction: c.PostForm("custom_prompt"),
	})
}

func (s *Server) summarize(c *gin.Context, req summarizer.Request) {
	result, err := s.service.Summarize(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, summarizeResponse{
		Summary:     result.Summary,
		Style:       string(result.Style),
		WordCount:   result.WordCount,
		Coverage:    result.Coverage,
		LowCoverage: result.LowCoverage,
		Depth:       result.Depth,
		Chunks:      result.Chunks,
		Degraded:    result.Degraded,
		RunID:       result.RunID,
	})
}

// writeError 将错误映射为状态码与 {kind, detail}
func (s *Server) writeError(c *gin.Context, err error) {
	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("[Server] %s %s 处理失败: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, body)
}

func errorStatus(err error) (int, errorResponse) {
	var (
		validationErr    *summarizer.ValidationError
		unavailableErr   *summarizer.ServiceUnavailableError
		summarizationErr *summarizer.SummarizationError
		ingestErr        *ingest.Error
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, errorResponse{Kind: string(validationErr.Kind), Detail: validationErr.Error()}
	case errors.As(err, &ingestErr):
		status := http.StatusBadRequest
		if ingestErr.Kind == ingest.KindTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		return status, errorResponse{Kind: string(ingestErr.Kind), Detail: ingestErr.Error()}
	case errors.As(err, &unavailableErr):
		return http.StatusServiceUnavailable, errorResponse{
			Kind:   "service_unavailable",
			Detail: "The summarization service is currently unavailable. Please try again later.",
		}
	case errors.As(err, &summarizationErr):
		status := http.StatusBadGateway
		if summarizationErr.Kind == summarizer.KindChunkTooLong {
			status = http.StatusBadRequest
		}
		return status, errorResponse{Kind: string(summarizationErr.Kind), Detail: summarizationErr.Error()}
	default:
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return http.StatusRequestEntityTooLarge, errorResponse{Kind: string(ingest.KindTooLarge), Detail: "Request body too large"}
		}
		return http.StatusInternalServerError, errorResponse{Kind: "internal_error", Detail: "Internal server error"}
	}
}

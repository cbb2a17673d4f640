package svc

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/fachebot/text-digest/internal/chunker"
	"github.com/fachebot/text-digest/internal/config"
	"github.com/fachebot/text-digest/internal/history"
	"github.com/fachebot/text-digest/internal/ingest"
	"github.com/fachebot/text-digest/internal/llm"
	"github.com/fachebot/text-digest/internal/logger"
	"github.com/fachebot/text-digest/internal/metrics"
	"github.com/fachebot/text-digest/internal/segment"
	"github.com/fachebot/text-digest/internal/server"
	"github.com/fachebot/text-digest/internal/style"
	"github.com/fachebot/text-digest/internal/summarizer"
	"github.com/fachebot/text-digest/internal/tokenizer"

	"golang.org/x/net/proxy"
)

type ServiceContext struct {
	Config         *config.Config
	TransportProxy *http.Transport
	Metrics        *metrics.Metrics
	Counter        tokenizer.Counter
	Segmenter      segment.Segmenter
	Model          llm.Model
	Orchestrator   *summarizer.Orchestrator
	Formatter      *style.Formatter
	Files          *ingest.Reader
	HistoryStore   *history.Store
	Janitor        *history.Janitor
	Summarizer     *summarizer.Service
}

func NewServiceContext(c *config.Config) *ServiceContext {
	// 创建SOCKS5代理
	var transportProxy *http.Transport
	if c.Sock5Proxy.Enable {
		socks5Proxy := fmt.Sprintf("%s:%d", c.Sock5Proxy.Host, c.Sock5Proxy.Port)
		dialer, err := proxy.SOCKS5("tcp", socks5Proxy, nil, proxy.Direct)
		if err != nil {
			logger.Fatalf("创建SOCKS5代理失败, %v", err)
		}

		transportProxy = &http.Transport{
			Dial:            dialer.Dial,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	m := metrics.New()

	// 分词与分句策略在启动时确定
	counter := tokenizer.New(c.LLM.Tokenizer)
	segmenter := segment.New()
	m.SetStrategy("tokenizer", counter.Strategy())
	m.SetStrategy("segmenter", segmenter.Strategy())
	logger.Infof("[Service] token 计数策略: %s, 分句策略: %s", counter.Strategy(), segmenter.Strategy())

	// 模型客户端，未配置密钥时摘要接口返回服务不可用
	var (
		model        llm.Model
		summaryModel summarizer.SummaryModel
		transformer  style.Transformer
	)
	if c.LLM.APIKey == "" {
		logger.Warnf("[Service] 未配置 LLM APIKey，摘要服务不可用")
	} else {
		var err error
		model, err = llm.New(&c.LLM, transportProxy)
		if err != nil {
			logger.Fatalf("创建模型客户端失败, %v", err)
		}
		summaryModel = model
		transformer = model
		logger.Infof("[Service] 模型服务: %s (摘要 %s, 风格 %s)", model.Name(), c.LLM.SummaryModel, c.LLM.StyleModel)
	}

	builder := chunker.NewBuilder(c.Chunking, counter, segmenter)
	orchestrator := summarizer.NewOrchestrator(summaryModel, builder, counter, c.Chunking, c.Compression, m)
	formatter := style.NewFormatter(transformer, segmenter, c.LLM.StyleMaxNewTokens, m)

	// 运行记录
	var store *history.Store
	if c.History.Enable {
		var err error
		store, err = history.Open(c.History.Path)
		if err != nil {
			logger.Fatalf("打开运行记录数据库失败, %v", err)
		}
	}

	svcCtx := &ServiceContext{
		Config:         c,
		TransportProxy: transportProxy,
		Metrics:        m,
		Counter:        counter,
		Segmenter:      segmenter,
		Model:          model,
		Orchestrator:   orchestrator,
		Formatter:      formatter,
		Files:          ingest.NewReader(c.Server.MaxUploadBytes),
		HistoryStore:   store,
		Janitor:        history.NewJanitor(store, c.History),
		Summarizer:     summarizer.NewService(c, orchestrator, formatter, store, m),
	}
	return svcCtx
}

// HistoryReader 未启用运行记录时返回 nil
func (svcCtx *ServiceContext) HistoryReader() server.HistoryReader {
	if svcCtx.HistoryStore == nil {
		return nil
	}
	return svcCtx.HistoryStore
}

// ModelInfo 当前生效的模型与策略
func (svcCtx *ServiceContext) ModelInfo() server.ModelInfo {
	info := server.ModelInfo{
		Available:         svcCtx.Orchestrator.Ready(),
		Provider:          svcCtx.Config.LLM.Provider,
		TokenizerStrategy: svcCtx.Counter.Strategy(),
		SegmenterStrategy: svcCtx.Segmenter.Strategy(),
	}
	if svcCtx.Model != nil {
		info.Provider = svcCtx.Model.Name()
	}
	return info
}

// NewServer 创建 HTTP 服务
func (svcCtx *ServiceContext) NewServer() (*server.Server, error) {
	return server.New(svcCtx.Config, svcCtx.Summarizer, svcCtx.Files, svcCtx.HistoryReader(), svcCtx.Metrics, svcCtx.ModelInfo())
}

func (svcCtx *ServiceContext) Close() {
	if svcCtx.HistoryStore == nil {
		return
	}
	if err := svcCtx.HistoryStore.Close(); err != nil {
		logger.Errorf("关闭数据库失败, %v", err)
	}
}

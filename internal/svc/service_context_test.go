package svc

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fachebot/text-digest/internal/config"
	"github.com/fachebot/text-digest/internal/summarizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceContext_WithoutAPIKey(t *testing.T) {
	c := config.Default()
	c.History.Enable = true
	c.History.Path = filepath.Join(t.TempDir(), "history.db")

	svcCtx := NewServiceContext(c)
	defer svcCtx.Close()

	assert.Nil(t, svcCtx.Model)
	assert.False(t, svcCtx.Orchestrator.Ready())
	assert.NotNil(t, svcCtx.HistoryReader())

	info := svcCtx.ModelInfo()
	assert.False(t, info.Available)
	assert.Equal(t, "huggingface", info.Provider)
	assert.NotEmpty(t, info.TokenizerStrategy)
	assert.NotEmpty(t, info.SegmenterStrategy)

	_, err := svcCtx.NewServer()
	require.NoError(t, err)

	// 未配置模型时返回服务不可用，并写入运行记录
	text := strings.TrimSpace(strings.Repeat("The committee reviewed the annual budget proposal today. ", 30))
	_, err = svcCtx.Summarizer.Summarize(context.Background(), summarizer.Request{Text: text, Channel: summarizer.ChannelTextArea})
	var unavailableErr *summarizer.ServiceUnavailableError
	require.True(t, errors.As(err, &unavailableErr))

	runs, err := svcCtx.HistoryStore.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "service_unavailable", runs[0].ErrorKind)
}

func TestNewServiceContext_HistoryDisabled(t *testing.T) {
	c := config.Default()
	c.LLM.APIKey = "test-key"

	svcCtx := NewServiceContext(c)
	defer svcCtx.Close()

	assert.Nil(t, svcCtx.HistoryStore)
	assert.Nil(t, svcCtx.HistoryReader())
	require.NotNil(t, svcCtx.Model)
	assert.Equal(t, "huggingface", svcCtx.Model.Name())
	assert.True(t, svcCtx.ModelInfo().Available)
	assert.NoError(t, svcCtx.Janitor.Start())
	svcCtx.Janitor.Stop()
}

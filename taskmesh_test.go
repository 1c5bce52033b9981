package taskmesh

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/config"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/memory"
	"github.com/hupe1980/taskmesh/model"
)

func dryRunModel() *model.MockModel {
	m := model.NewMockModel("dry-run", "mock")
	m.SetHandler(dryRunHandler)
	return m
}

func TestRun_SavesSummary(t *testing.T) {
	log := memory.NewInMemoryLog()
	tm := New(dryRunModel(), log)

	res, err := tm.Run(context.Background(), "telco wallet partnership", "")
	require.NoError(t, err)
	require.NotNil(t, res.Review)
	assert.True(t, res.Review.Approved)
	assert.Len(t, res.Memory, 3)

	recs, err := tm.Recall(context.Background(), DefaultTopic, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, DefaultTopic, recs[0].Topic)
	assert.True(t, strings.HasPrefix(recs[0].Content, "Prompt: telco wallet partnership\nResult (first 450 chars): "))
}

func TestRun_FailureSavesNothing(t *testing.T) {
	llm := model.NewMockModel("m", "mock")
	llm.SetHandler(func(context.Context, model.Request) (*model.Response, error) {
		return nil, errors.New("provider down")
	})
	tm := New(llm, nil)

	_, err := tm.Run(context.Background(), "prompt", "retail")
	require.Error(t, err)

	var taskErr *core.TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, "ideation", taskErr.TaskID)

	recs, err := tm.Recall(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRun_EmptyPrompt(t *testing.T) {
	tm := New(dryRunModel(), nil)
	_, err := tm.Run(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestRecall_NewestFirstByTopic(t *testing.T) {
	tm := New(dryRunModel(), nil)
	ctx := context.Background()

	for _, topic := range []string{"telco", "retail", "telco"} {
		_, err := tm.Run(ctx, "idea for "+topic, topic)
		require.NoError(t, err)
	}

	recs, err := tm.Recall(ctx, "telco", 5)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Greater(t, recs[0].ID, recs[1].ID)

	all, err := tm.Recall(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSummary_Truncates(t *testing.T) {
	long := strings.Repeat("é", SummaryChars+20)
	s := Summary("p", long)
	assert.Equal(t, "Prompt: p\nResult (first 450 chars): "+strings.Repeat("é", SummaryChars), s)
}

func TestNewModel(t *testing.T) {
	cfg := config.Default()

	cfg.Provider = config.ProviderMock
	m, err := NewModel(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock", m.Info().Provider)

	cfg.Provider = config.ProviderAnthropic
	cfg.Anthropic.APIKey = "k"
	m, err = NewModel(cfg)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", m.Info().Provider)

	cfg.Provider = config.ProviderOpenAI
	cfg.OpenAI.APIKey = "k"
	m, err = NewModel(cfg)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", m.Info().Name)

	cfg.Provider = "bogus"
	_, err = NewModel(cfg)
	assert.ErrorIs(t, err, config.ErrUnknownProvider)
}

func TestNewFromConfig_Mock(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Provider = config.ProviderMock
	cfg.DBPath = dir + "/db/memory.db"
	cfg.KnowledgeDir = dir + "/knowledge"

	tm, closeFn, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()

	_, err = tm.Run(context.Background(), "gig platform payouts", "gig")
	require.NoError(t, err)

	recs, err := tm.Recall(context.Background(), "gig", 5)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

// Copyright 2025 Certen Protocol

package audit

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/capio-labs/proofbundle/internal/capmetrics"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestAppendGenesisLinksToZeroHash(t *testing.T) {
	c := NewChain()
	e, err := c.Append("policy_compile", map[string]any{"policy_id": "lksg.v1"})
	require.NoError(t, err)
	require.Equal(t, GenesisHash, e.PrevHash)
	require.Equal(t, uint64(0), e.Seq)
	require.NotEqual(t, GenesisHash, e.Hash)
}

func TestAppendChainsHashes(t *testing.T) {
	c := NewChain()
	e1, err := c.Append("a", map[string]any{"n": 1})
	require.NoError(t, err)
	e2, err := c.Append("b", map[string]any{"n": 2})
	require.NoError(t, err)

	require.Equal(t, e1.Hash, e2.PrevHash)
	require.Equal(t, e2.Hash, c.TailHash())
	require.Equal(t, uint64(2), c.Len())
}

func TestVerifyChainPassesForUntamperedChain(t *testing.T) {
	c := NewChain()
	_, _ = c.Append("a", map[string]any{"n": 1})
	_, _ = c.Append("b", map[string]any{"n": 2})
	_, _ = c.Append("c", map[string]any{"n": 3})

	ok, broken, err := VerifyChain(c.Events())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, -1, broken)
}

func TestVerifyChainDetectsTamperedDetails(t *testing.T) {
	c := NewChain()
	_, _ = c.Append("a", map[string]any{"n": 1})
	_, _ = c.Append("b", map[string]any{"n": 2})
	_, _ = c.Append("c", map[string]any{"n": 3})

	events := c.Events()
	events[1].Details = []byte(`{"n":999}`)

	ok, broken, err := VerifyChain(events)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, broken)
}

func TestVerifyChainDetectsBrokenLink(t *testing.T) {
	c := NewChain()
	_, _ = c.Append("a", map[string]any{"n": 1})
	_, _ = c.Append("b", map[string]any{"n": 2})

	events := c.Events()
	events[1].PrevHash = GenesisHash

	ok, broken, err := VerifyChain(events)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, broken)
}

func TestNewDurableChainCallsSyncOnAppend(t *testing.T) {
	synced := 0
	c := NewDurableChain(func() error {
		synced++
		return nil
	})
	_, err := c.Append("a", map[string]any{"n": 1})
	require.NoError(t, err)
	require.Equal(t, 1, synced)
}

func TestEmptyChainTailIsGenesis(t *testing.T) {
	c := NewChain()
	require.Equal(t, GenesisHash, c.TailHash())
}

func TestAppendIncrementsAuditAppendsMetric(t *testing.T) {
	m := capmetrics.New(prometheus.NewRegistry())
	c := NewChain(WithMetrics(m))

	_, err := c.Append("a", map[string]any{"n": 1})
	require.NoError(t, err)
	_, err = c.Append("b", map[string]any{"n": 2})
	require.NoError(t, err)

	require.Equal(t, 2.0, counterValue(t, m.AuditAppends))
}

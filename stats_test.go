package mlnes

// stats_test.go checks the per-pair and group statistics, their
// denominators, and the no-data sentinels

import (
	"github.com/iti/evt/evtm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

func statsCtx() *ExpCtx {
	excfg := CreateExpCfg("stats")
	return CreateExpCtx(excfg, evtm.New(), nil)
}

func TestPairStatsWorkedExample(t *testing.T) {
	ctx := statsCtx()
	key := PairKey{NodeID: 1, LinkID: 0}
	recs := []DeliveryRecord{
		testRecord(1, 0, 0.010, 0.015),
		testRecord(1, 0, 0.012, 0.020),
		testRecord(1, 0, 0.025, 0.030),
	}
	recs[0].Failures = 1
	dels, err := DecomposeDelays(recs)
	require.NoError(t, err)

	ps := CreatePairStats(key, recs, dels, ctx)
	assert.Equal(t, 3, ps.Successes)
	assert.Equal(t, 4, ps.Attempts)
	assert.Equal(t, 0, ps.FinalFailed)
	assert.Equal(t, 2, ps.Samples)
	assert.InDelta(t, 0.75, ps.SuccessPr, 1e-12)
	assert.InDelta(t, 0.0015, ps.MeanQueuing, 1e-12)
	assert.InDelta(t, 0.005, ps.MeanAccess, 1e-12)
	assert.InDelta(t, 0.0065, ps.MeanE2e, 1e-12)
	assert.InDelta(t, 3.0*1500.0*8.0/20.0/1e6, ps.Throughput, 1e-12)
}

func TestAccessDelayMoments(t *testing.T) {
	ctx := statsCtx()
	key := PairKey{NodeID: 1, LinkID: 0}
	recs := []DeliveryRecord{
		testRecord(1, 0, 1.0, 2.0),
		testRecord(1, 0, 3.0, 4.0),
		testRecord(1, 0, 5.0, 6.0),
		testRecord(1, 0, 7.0, 8.0),
	}
	dels := []DecomposedDelay{{Access: 1.0}, {Access: 2.0}, {Access: 3.0}}

	ps := CreatePairStats(key, recs, dels, ctx)
	assert.InDelta(t, 2.0, ps.MeanAccess, 1e-12)
	assert.InDelta(t, 14.0/3.0, ps.AccessRawM2, 1e-12)
	assert.InDelta(t, 2.0/3.0, ps.AccessVar, 1e-12)
}

func TestNoDataSentinels(t *testing.T) {
	ctx := statsCtx()
	key := PairKey{NodeID: 9, LinkID: 0}

	ps := CreatePairStats(key, nil, nil, ctx)
	assert.Equal(t, 0, ps.Successes)
	assert.Equal(t, 0, ps.Samples)
	assert.True(t, math.IsNaN(ps.SuccessPr))
	assert.True(t, math.IsNaN(ps.MeanQueuing))
	assert.True(t, math.IsNaN(ps.MeanAccess))
	assert.True(t, math.IsNaN(ps.MeanE2e))
	assert.True(t, math.IsNaN(ps.AccessRawM2))
	assert.True(t, math.IsNaN(ps.AccessVar))
	assert.Equal(t, 0.0, ps.Throughput)

	// one delivered packet: the counts exist, the delay means do not
	ps = CreatePairStats(key, []DeliveryRecord{testRecord(9, 0, 1.0, 2.0)}, nil, ctx)
	assert.Equal(t, 1, ps.Successes)
	assert.InDelta(t, 1.0, ps.SuccessPr, 1e-12)
	assert.True(t, math.IsNaN(ps.MeanE2e))
}

func TestGroupStats(t *testing.T) {
	ctx := statsCtx()
	rs := CreateRecordStore("group")
	rs.Open()

	// node 1 delivered after one retry, node 2 delivered cleanly, node 3
	// exhausted its retries
	recA := testRecord(1, 0, 1.0, 2.0)
	recA.Failures = 1
	rs.AddRecord(recA)
	rs.AddRecord(testRecord(2, 0, 1.5, 2.5))
	recFail := testRecord(3, 0, 1.8, 2.8)
	recFail.Success = false
	recFail.Failures = 7
	rs.AddRecord(recFail)
	rs.Close()

	members := []PairKey{{NodeID: 1, LinkID: 0}, {NodeID: 2, LinkID: 0}, {NodeID: 3, LinkID: 0}}
	dels := map[PairKey][]DecomposedDelay{
		{NodeID: 1, LinkID: 0}: {{Queuing: 1.0, Access: 2.0}, {Queuing: 3.0, Access: 4.0}},
		{NodeID: 2, LinkID: 0}: {},
	}

	gs := CreateGroupStats("link-0", members, rs, dels, ctx)
	assert.Equal(t, 3, gs.Members)
	assert.Equal(t, 2, gs.Successes)
	assert.Equal(t, 3, gs.Attempts)
	assert.Equal(t, 1, gs.FinalFailed)
	assert.Equal(t, 1, gs.Retransmitted)
	assert.InDelta(t, 2.0/3.0, gs.SuccessPr, 1e-12)

	// retransmissions per delivered packet count only delivered packets
	assert.InDelta(t, 0.5, gs.MeanFailures, 1e-12)

	// the empty contributors add nothing, they do not poison the means
	assert.Equal(t, 2, gs.Samples)
	assert.InDelta(t, 2.0, gs.MeanQueuing, 1e-12)
	assert.InDelta(t, 3.0, gs.MeanAccess, 1e-12)
	assert.InDelta(t, 5.0, gs.MeanE2e, 1e-12)
}

func TestGroupDenominatorPoolsSamples(t *testing.T) {
	ctx := statsCtx()
	rs := CreateRecordStore("pool")
	rs.Open()
	rs.AddRecord(testRecord(1, 0, 1.0, 2.0))
	rs.AddRecord(testRecord(1, 0, 3.0, 4.0))
	rs.AddRecord(testRecord(1, 0, 5.0, 6.0))
	rs.AddRecord(testRecord(2, 0, 1.0, 2.0))
	rs.AddRecord(testRecord(2, 0, 3.0, 4.0))
	rs.AddRecord(testRecord(2, 0, 5.0, 6.0))
	rs.Close()

	members := []PairKey{{NodeID: 1, LinkID: 0}, {NodeID: 2, LinkID: 0}}
	dels := map[PairKey][]DecomposedDelay{
		{NodeID: 1, LinkID: 0}: {{Access: 1.0}, {Access: 2.0}},
		{NodeID: 2, LinkID: 0}: {{Access: 3.0}, {Access: 6.0}},
	}

	gs := CreateGroupStats("pooled", members, rs, dels, ctx)

	// each pair gives one fewer sample than its delivery count; the
	// group mean divides the pooled total by the pooled sample count
	assert.Equal(t, 6, gs.Successes)
	assert.Equal(t, 4, gs.Samples)
	assert.InDelta(t, 3.0, gs.MeanAccess, 1e-12)
}

func TestEmptyGroup(t *testing.T) {
	ctx := statsCtx()
	rs := CreateRecordStore("empty")
	rs.Open()
	rs.Close()

	gs := CreateGroupStats("none", []PairKey{}, rs, map[PairKey][]DecomposedDelay{}, ctx)
	assert.Equal(t, 0, gs.Successes)
	assert.True(t, math.IsNaN(gs.SuccessPr))
	assert.True(t, math.IsNaN(gs.MeanFailures))
	assert.True(t, math.IsNaN(gs.MeanQueuing))
	assert.Equal(t, 0.0, gs.Throughput)
}

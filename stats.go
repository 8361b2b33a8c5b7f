package mlnes

// stats.go holds the per-pair and per-group statistics computed from
// admitted delivery records and their decomposed delays.  A mean with no
// samples behind it is NaN, never zero, so that a plotting script cannot
// mistake an idle pair for a fast one

import (
	"gonum.org/v1/gonum/stat"
	"math"
)

// PairStats holds the measures of one (node, link) pair.  Delay figures
// are in seconds, throughput in Mb/s
type PairStats struct {
	Key         PairKey
	Successes   int
	Attempts    int // transmission attempts behind the successes
	FinalFailed int // packets that exhausted their retries
	Samples     int // decomposed-delay sample count, one less than Successes

	SuccessPr    float64
	Throughput   float64
	MeanQueuing  float64
	MeanAccess   float64
	MeanE2e      float64
	AccessRawM2  float64 // second moment of access delay about zero
	AccessVar    float64 // second moment of access delay about its mean
	QueuingTotal float64
	AccessTotal  float64
}

// CreatePairStats is a constructor.  recs are the pair's admitted
// records and dels the decomposed delays of its delivered packets
func CreatePairStats(key PairKey, recs []DeliveryRecord, dels []DecomposedDelay, ctx *ExpCtx) *PairStats {
	ps := new(PairStats)
	ps.Key = key

	for _, rec := range recs {
		if rec.Success {
			ps.Successes += 1
			ps.Attempts += 1 + rec.Failures
		} else {
			ps.FinalFailed += 1
		}
	}

	ps.SuccessPr = math.NaN()
	if ps.Attempts > 0 {
		ps.SuccessPr = float64(ps.Successes) / float64(ps.Attempts)
	}
	ps.Throughput = float64(ps.Successes) * float64(ctx.Payload) * 8.0 / ctx.SimTime / 1e6

	ps.Samples = len(dels)
	access := make([]float64, 0, len(dels))
	for _, dd := range dels {
		ps.QueuingTotal += dd.Queuing
		ps.AccessTotal += dd.Access
		access = append(access, dd.Access)
	}

	if ps.Samples == 0 {
		ps.MeanQueuing = math.NaN()
		ps.MeanAccess = math.NaN()
		ps.MeanE2e = math.NaN()
		ps.AccessRawM2 = math.NaN()
		ps.AccessVar = math.NaN()
		return ps
	}

	ps.MeanQueuing = ps.QueuingTotal / float64(ps.Samples)
	ps.MeanAccess = ps.AccessTotal / float64(ps.Samples)
	ps.MeanE2e = ps.MeanQueuing + ps.MeanAccess
	ps.AccessRawM2 = stat.MomentAbout(2, access, 0.0, nil)
	ps.AccessVar = stat.MomentAbout(2, access, ps.MeanAccess, nil)
	return ps
}

// GroupStats holds the measures of a set of (node, link) pairs reported
// as one population, e.g. all stations on one link
type GroupStats struct {
	Name          string
	Members       int
	Successes     int
	Attempts      int
	FinalFailed   int
	Retransmitted int // delivered packets that needed more than one attempt
	Samples       int

	SuccessPr    float64
	Throughput   float64
	MeanQueuing  float64
	MeanAccess   float64
	MeanE2e      float64
	AccessRawM2  float64
	AccessVar    float64
	MeanFailures float64 // retransmissions per delivered packet
}

// CreateGroupStats is a constructor.  The group's delay means pool the
// member pairs' samples and totals before dividing, so each member's
// weight is its own sample count.  A member with no samples contributes
// nothing rather than a NaN
func CreateGroupStats(name string, members []PairKey, rs *RecordStore, dels map[PairKey][]DecomposedDelay, ctx *ExpCtx) *GroupStats {
	gs := new(GroupStats)
	gs.Name = name
	gs.Members = len(members)

	var queuingTotal, accessTotal float64
	var failures int
	access := make([]float64, 0)

	for _, key := range members {
		for _, rec := range rs.PairRecords(key) {
			if rec.Success {
				gs.Successes += 1
				gs.Attempts += 1 + rec.Failures
				failures += rec.Failures
				if rec.Failures > 0 {
					gs.Retransmitted += 1
				}
			} else {
				gs.FinalFailed += 1
			}
		}
		for _, dd := range dels[key] {
			queuingTotal += dd.Queuing
			accessTotal += dd.Access
			access = append(access, dd.Access)
			gs.Samples += 1
		}
	}

	gs.SuccessPr = math.NaN()
	if gs.Attempts > 0 {
		gs.SuccessPr = float64(gs.Successes) / float64(gs.Attempts)
	}
	gs.Throughput = float64(gs.Successes) * float64(ctx.Payload) * 8.0 / ctx.SimTime / 1e6

	gs.MeanFailures = math.NaN()
	if gs.Successes > 0 {
		gs.MeanFailures = float64(failures) / float64(gs.Successes)
	}

	if gs.Samples == 0 {
		gs.MeanQueuing = math.NaN()
		gs.MeanAccess = math.NaN()
		gs.MeanE2e = math.NaN()
		gs.AccessRawM2 = math.NaN()
		gs.AccessVar = math.NaN()
		return gs
	}

	gs.MeanQueuing = queuingTotal / float64(gs.Samples)
	gs.MeanAccess = accessTotal / float64(gs.Samples)
	gs.MeanE2e = gs.MeanQueuing + gs.MeanAccess
	gs.AccessRawM2 = stat.MomentAbout(2, access, 0.0, nil)
	gs.AccessVar = stat.MomentAbout(2, access, gs.MeanAccess, nil)
	return gs
}

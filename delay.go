package mlnes

// delay.go holds the decomposition of per-packet end-to-end delays into
// queuing and access components.  The head-of-line time of a packet is
// when it reaches the front of its transmit queue, no earlier than its
// own enqueue and no earlier than its predecessor's dequeue

import (
	"fmt"
	"math"
)

// DecomposedDelay holds the delay components of one delivered packet.
// Hol is the absolute head-of-line time; Queuing and Access are
// durations, with Queuing+Access equal to the packet's end-to-end delay
type DecomposedDelay struct {
	Hol     float64
	Queuing float64
	Access  float64
}

// Total returns the end-to-end delay of the packet
func (dd *DecomposedDelay) Total() float64 {
	return dd.Queuing + dd.Access
}

// successRecords returns the records of packets that were delivered
func successRecords(recs []DeliveryRecord) []DeliveryRecord {
	succ := make([]DeliveryRecord, 0, len(recs))
	for _, rec := range recs {
		if rec.Success {
			succ = append(succ, rec)
		}
	}
	return succ
}

// DecomposeDelays turns an enqueue-ordered sequence of delivered-packet
// records into per-packet delay components.  The first record anchors
// the recursion and yields no sample, so n records give n-1 samples.
// The head-of-line time of its first packet is unknown when the window
// opens mid-stream, which is why that record is discarded rather than
// decomposed.  A sequence whose timestamps are inconsistent is reported
// through the error return
func DecomposeDelays(recs []DeliveryRecord) ([]DecomposedDelay, error) {
	for idx, rec := range recs {
		if rec.Dequeue < rec.Enqueue {
			return nil, fmt.Errorf("record %d for node %d link %d dequeued before it was enqueued",
				idx, rec.NodeID, rec.LinkID)
		}
		if idx > 0 && rec.Enqueue < recs[idx-1].Enqueue {
			return nil, fmt.Errorf("record %d for node %d link %d breaks enqueue order",
				idx, rec.NodeID, rec.LinkID)
		}
	}

	if len(recs) < 2 {
		return []DecomposedDelay{}, nil
	}

	dels := make([]DecomposedDelay, 0, len(recs)-1)
	for idx := 1; idx < len(recs); idx += 1 {
		rec := recs[idx]
		hol := math.Max(rec.Enqueue, recs[idx-1].Dequeue)
		dels = append(dels, DecomposedDelay{
			Hol:     hol,
			Queuing: hol - rec.Enqueue,
			Access:  rec.Dequeue - hol,
		})
	}
	return dels, nil
}

// DecomposeStore decomposes the delays of every (node, link) pair in a
// sealed record store.  Only delivered packets participate; records of
// packets that exhausted their retries carry no dequeue time worth
// decomposing.  Calling DecomposeStore on a store still gathering
// records is a structural error
func DecomposeStore(rs *RecordStore) (map[PairKey][]DecomposedDelay, error) {
	if !rs.Sealed() {
		panic(fmt.Errorf("delay decomposition requested on record store %s before its window closed", rs.ExpName))
	}

	dels := make(map[PairKey][]DecomposedDelay)
	for _, key := range rs.PairKeys() {
		succ := successRecords(rs.PairRecords(key))
		pairDels, err := DecomposeDelays(succ)
		if err != nil {
			return nil, err
		}
		dels[key] = pairDels
	}
	return dels, nil
}

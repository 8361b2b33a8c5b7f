package mlnes

// record.go holds structs and methods for gathering per-packet delivery
// records during an observation window.  The record store is the bridge
// between the link simulation, which reports packet completions as they
// happen, and the measurement pipeline, which runs after the simulation
// ends

import (
	"encoding/json"
	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
	"gopkg.in/yaml.v3"
	"os"
	"path"
	"sort"
)

// PairKey identifies one (source node, link) pair, the unit over which
// delays are decomposed and statistics are computed
type PairKey struct {
	NodeID int `json:"nodeid" yaml:"nodeid"`
	LinkID int `json:"linkid" yaml:"linkid"`
}

// DeliveryRecord describes the fate of one packet offered to a link.
// Enqueue and Dequeue are simulation times in seconds; Failures counts
// the transmission attempts that preceded the outcome
type DeliveryRecord struct {
	NodeID   int     `json:"nodeid" yaml:"nodeid"`
	LinkID   int     `json:"linkid" yaml:"linkid"`
	Enqueue  float64 `json:"enqueue" yaml:"enqueue"`
	Dequeue  float64 `json:"dequeue" yaml:"dequeue"`
	Failures int     `json:"failures" yaml:"failures"`
	Success  bool    `json:"success" yaml:"success"`
}

// RecordStore accumulates delivery records, keyed by (node, link) pair.
// Records are admitted only while the observation window is open; a
// record's admission is decided by when it is offered, which for the
// link simulation is the packet's completion time
type RecordStore struct {
	ExpName   string
	pairs     map[PairKey][]DeliveryRecord
	accepting bool
	sealed    bool
}

// CreateRecordStore is a constructor.  The store starts closed; records
// offered before Open are dropped
func CreateRecordStore(expName string) *RecordStore {
	rs := new(RecordStore)
	rs.ExpName = expName
	rs.pairs = make(map[PairKey][]DeliveryRecord)
	rs.accepting = false
	rs.sealed = false
	return rs
}

// Open admits records offered from now on
func (rs *RecordStore) Open() {
	if rs.sealed {
		panic("record store reopened after being sealed")
	}
	rs.accepting = true
}

// Close stops admitting records and seals the store for analysis
func (rs *RecordStore) Close() {
	rs.accepting = false
	rs.sealed = true
}

// Sealed reports whether the observation window has closed
func (rs *RecordStore) Sealed() bool {
	return rs.sealed
}

// AddRecord offers one delivery record to the store.  A record offered
// while the window is closed is silently dropped; the caller does not
// know or care whether the window is open
func (rs *RecordStore) AddRecord(rec DeliveryRecord) {
	if !rs.accepting {
		return
	}
	key := PairKey{NodeID: rec.NodeID, LinkID: rec.LinkID}
	rs.pairs[key] = append(rs.pairs[key], rec)
}

// PairRecords returns the records admitted for one (node, link) pair, in
// admission order
func (rs *RecordStore) PairRecords(key PairKey) []DeliveryRecord {
	return rs.pairs[key]
}

// PairKeys returns the pairs with at least one admitted record, ordered
// by node id and then link id
func (rs *RecordStore) PairKeys() []PairKey {
	keys := make([]PairKey, 0, len(rs.pairs))
	for key := range rs.pairs {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].NodeID != keys[j].NodeID {
			return keys[i].NodeID < keys[j].NodeID
		}
		return keys[i].LinkID < keys[j].LinkID
	})
	return keys
}

// NumRecords returns the number of admitted records across all pairs
func (rs *RecordStore) NumRecords() int {
	count := 0
	for _, recs := range rs.pairs {
		count += len(recs)
	}
	return count
}

// openObservation is the event handler that opens the observation window
func openObservation(evtMgr *evtm.EventManager, context any, data any) any {
	rs := context.(*RecordStore)
	rs.Open()
	return nil
}

// closeObservation is the event handler that closes and seals the store
func closeObservation(evtMgr *evtm.EventManager, context any, data any) any {
	rs := context.(*RecordStore)
	rs.Close()
	return nil
}

// ScheduleObservation arranges for the store to admit records during
// [warmup, warmup+duration), measured from the current simulation time.
// A record whose completion falls at or after the close is excluded even
// when its enqueue preceded it
func (rs *RecordStore) ScheduleObservation(evtMgr *evtm.EventManager, warmup, duration float64) {
	evtMgr.Schedule(rs, nil, openObservation, vrtime.SecondsToTime(warmup))
	evtMgr.Schedule(rs, nil, closeObservation, vrtime.SecondsToTime(roundFloat(warmup+duration, rdigits)))
}

// recordStoreDoc is the serialized form of a record store, with the pair
// map flattened into one record list
type recordStoreDoc struct {
	ExpName string           `json:"expname" yaml:"expname"`
	Records []DeliveryRecord `json:"records" yaml:"records"`
}

// WriteToFile stores the record store for offline analysis.  The
// argument file name's extension chooses between yaml and json
func (rs *RecordStore) WriteToFile(filename string) error {
	doc := recordStoreDoc{ExpName: rs.ExpName}
	for _, recs := range rs.pairs {
		doc.Records = append(doc.Records, recs...)
	}
	sort.Slice(doc.Records, func(i, j int) bool {
		ri, rj := doc.Records[i], doc.Records[j]
		if ri.NodeID != rj.NodeID {
			return ri.NodeID < rj.NodeID
		}
		if ri.LinkID != rj.LinkID {
			return ri.LinkID < rj.LinkID
		}
		return ri.Enqueue < rj.Enqueue
	})

	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(doc)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(doc, "", "\t")
	}

	if merr != nil {
		panic(merr)
	}

	f, cerr := os.Create(filename)
	if cerr != nil {
		panic(cerr)
	}
	defer f.Close()

	_, werr := f.WriteString(string(bytes))
	if werr != nil {
		panic(werr)
	}
	return werr
}

// ReadRecordStore deserializes a record store written by WriteToFile.
// The store comes back sealed, ready for analysis and closed to further
// records.  If the dict argument is non-empty the file is ignored and
// the bytes are deserialized directly
func ReadRecordStore(filename string, useYAML bool, dict []byte) (*RecordStore, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	doc := recordStoreDoc{}
	if useYAML {
		err = yaml.Unmarshal(dict, &doc)
	} else {
		err = json.Unmarshal(dict, &doc)
	}
	if err != nil {
		return nil, err
	}

	rs := CreateRecordStore(doc.ExpName)
	rs.accepting = true
	for _, rec := range doc.Records {
		rs.AddRecord(rec)
	}
	rs.Close()
	return rs, nil
}

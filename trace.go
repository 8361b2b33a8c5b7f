package mlnes

// trace.go holds the trace manager that gathers a record of a run, the
// trace record types reported by the traffic clients and the link
// simulation, and the functions that store them

import (
	"encoding/json"
	"github.com/iti/evt/vrtime"
	"gopkg.in/yaml.v3"
	"os"
	"path"
	"sort"
	"strconv"
)

type TraceRecordType int

const (
	ClientType TraceRecordType = iota
	TxopType
)

type TraceInst struct {
	TraceTime string
	TraceType string
	TraceStr  string
}

// NameType is an entry in a dictionary created for a trace
// that maps object id numbers to a (name,type) pair
type NameType struct {
	Name string
	Type string
}

// TraceManager gathers information about an experiment model and an
// execution of that model
type TraceManager struct {
	// experiment uses trace
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of experiment
	ExpName string `json:"expname" yaml:"expname"`

	// text name associated with each objID
	NameByID map[int]NameType `json:"namebyid" yaml:"namebyid"`

	// all trace records for this experiment, keyed by the client they
	// describe
	Traces map[int][]TraceInst `json:"traces" yaml:"traces"`

	// channel occupancies reported by the link simulation, kept apart
	// from the per-client traces because the timeline file wants them whole
	Txops []TxopTrace `json:"txops" yaml:"txops"`
}

// CreateTraceManager is a constructor.  It saves the name of the experiment
// and a flag indicating whether the trace manager is active.  By testing this
// flag we can inhibit the activity of gathering a trace when we don't want it,
// while embedding calls to its methods everywhere we need them when it is
func CreateTraceManager(ExpName string, active bool) *TraceManager {
	tm := new(TraceManager)
	tm.InUse = active
	tm.ExpName = ExpName
	tm.NameByID = make(map[int]NameType)  // dictionary of id code -> (name,type)
	tm.Traces = make(map[int][]TraceInst) // traces have per-client origins, are saved by index to these
	tm.Txops = make([]TxopTrace, 0)
	return tm
}

// Active tells the caller whether the Trace Manager is actively being used
func (tm *TraceManager) Active() bool {
	return tm.InUse
}

// AddTrace creates a record of the trace using its calling arguments, and stores it
func (tm *TraceManager) AddTrace(vrt vrtime.Time, clientID int, trace TraceInst) {

	// return if we aren't using the trace manager
	if !tm.InUse {
		return
	}

	_, present := tm.Traces[clientID]
	if !present {
		tm.Traces[clientID] = make([]TraceInst, 0)
	}
	tm.Traces[clientID] = append(tm.Traces[clientID], trace)
}

// AddName is used to add an element to the id -> (name,type) dictionary for the trace file
func (tm *TraceManager) AddName(id int, name string, objDesc string) {
	if tm.InUse {
		_, present := tm.NameByID[id]
		if present {
			panic("duplicated id in AddName")
		}
		tm.NameByID[id] = NameType{Name: name, Type: objDesc}
	}
}

// WriteToFile stores the Traces struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (tm *TraceManager) WriteToFile(filename string, globalOrder bool) bool {
	if !tm.InUse {
		return false
	}
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if !globalOrder {
		if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
			bytes, merr = yaml.Marshal(*tm)
		} else if pathExt == ".json" || pathExt == ".JSON" {
			bytes, merr = json.MarshalIndent(*tm, "", "\t")
		}

		if merr != nil {
			panic(merr)
		}
	} else {
		ntm := new(TraceManager)
		ntm.InUse = tm.InUse
		ntm.ExpName = tm.ExpName
		ntm.NameByID = make(map[int]NameType)
		for key, value := range tm.NameByID {
			ntm.NameByID[key] = value
		}
		ntm.Traces = make(map[int][]TraceInst)
		ntm.Traces[0] = make([]TraceInst, 0)
		for _, valueList := range tm.Traces {
			ntm.Traces[0] = append(ntm.Traces[0], valueList...)
		}

		sort.Slice(ntm.Traces[0], func(i, j int) bool {
			v1, _ := strconv.ParseFloat(ntm.Traces[0][i].TraceTime, 64)
			v2, _ := strconv.ParseFloat(ntm.Traces[0][j].TraceTime, 64)
			return v1 < v2
		})

		ntm.Txops = make([]TxopTrace, len(tm.Txops))
		copy(ntm.Txops, tm.Txops)
		sort.Slice(ntm.Txops, func(i, j int) bool {
			return ntm.Txops[i].Start < ntm.Txops[j].Start
		})

		if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
			bytes, merr = yaml.Marshal(*ntm)
		} else if pathExt == ".json" || pathExt == ".JSON" {
			bytes, merr = json.MarshalIndent(*ntm, "", "\t")
		}

		if merr != nil {
			panic(merr)
		}
	}

	f, cerr := os.Create(filename)
	if cerr != nil {
		panic(cerr)
	}
	_, werr := f.WriteString(string(bytes[:]))
	if werr != nil {
		panic(werr)
	}
	err := f.Close()
	if err != nil {
		panic(err)
	}
	return true
}

// ClientTrace saves information about one action of a traffic client,
// saved for post-run analysis
type ClientTrace struct {
	Time     float64 // time in float64
	Ticks    int64   // ticks variable of time
	Priority int64   // priority field of time-stamp
	ClientID int     // integer identifier of the client
	Tid      int     // TID the action concerns
	Op       string  // "start", "stop", "refused"
}

func (ct *ClientTrace) TraceType() TraceRecordType {
	return ClientType
}

func (ct *ClientTrace) Serialize() string {
	var bytes []byte
	var merr error

	bytes, merr = yaml.Marshal(*ct)

	if merr != nil {
		panic(merr)
	}
	return string(bytes[:])
}

// AddClientTrace creates a record of the trace using its calling arguments, and stores it
func AddClientTrace(tm *TraceManager, vrt vrtime.Time, clientID, tid int, op string) {
	ct := new(ClientTrace)
	ct.Time = vrt.Seconds()
	ct.Ticks = vrt.Ticks()
	ct.Priority = vrt.Pri()
	ct.ClientID = clientID
	ct.Tid = tid
	ct.Op = op

	ctStr := ct.Serialize()
	traceTime := strconv.FormatFloat(vrt.Seconds(), 'f', -1, 64)

	trcInst := TraceInst{TraceTime: traceTime, TraceType: "client", TraceStr: ctStr}
	tm.AddTrace(vrt, clientID, trcInst)
}

// TxopTrace saves one channel occupancy reported by the link simulation.
// Start and End are in seconds; Outcome is "success" or the reason the
// occupancy failed
type TxopTrace struct {
	Start   float64 `json:"start" yaml:"start"`
	End     float64 `json:"end" yaml:"end"`
	Source  string  `json:"source" yaml:"source"`
	Outcome string  `json:"outcome" yaml:"outcome"`
}

func (tt *TxopTrace) Serialize() string {
	var bytes []byte
	var merr error

	bytes, merr = yaml.Marshal(*tt)

	if merr != nil {
		panic(merr)
	}
	return string(bytes[:])
}

// AddTxopTrace appends one channel occupancy to the trace
func AddTxopTrace(tm *TraceManager, start, end float64, source, outcome string) {
	if !tm.InUse {
		return
	}
	tm.Txops = append(tm.Txops, TxopTrace{Start: start, End: end, Source: source, Outcome: outcome})
}

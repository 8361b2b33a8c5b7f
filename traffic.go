package mlnes

// traffic.go holds structs, methods, and event handlers for the traffic
// clients that offer packet arrivals to the wireless links.  A client
// owns the interarrival policy and the TID arbitration for one source;
// each emission schedules its successor, so a client's activity is a
// self-perpetuating chain on the event manager

import (
	"fmt"
	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
	"github.com/iti/rngstream"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"strconv"
)

// Transport is the hand-off point between a traffic client and the link
// simulation that carries its packets.  Send is fire-and-forget; a
// non-nil return reports only that the packet was not admitted locally
type Transport interface {
	Send(payloadBytes int, tid int, dest string) error
}

// TrafficClient generates the packet arrivals of one traffic source
type TrafficClient struct {
	ClientID      int
	Name          string
	Direction     string // "uplink" or "downlink"
	Model         string // "deterministic" or "bernoulli"
	Tid           int    // TID carried when the optional TID is not chosen
	OptionalTid   int
	OptionalTidPr float64 // probability an emission carries the optional TID
	ArrivalPr     float64 // per-slot arrival probability, bernoulli model
	Interval      float64 // interarrival time in seconds, deterministic model
	MaxPckts      int     // limit on emissions, 0 means no limit
	Dest          string
	Sent          int
	Suspended     bool

	// emissions scheduled before the latest Start carry an older
	// generation and are ignored when they fire
	generation int

	ctx         *ExpCtx
	trans       Transport
	intervalRng *rngstream.RngStream
	tidRng      *rngstream.RngStream
}

// ClientByID maps a client's id to the client itself
var ClientByID map[int]*TrafficClient = make(map[int]*TrafficClient)

func InitClientList() {
	ClientByID = make(map[int]*TrafficClient)
}

// CreateTrafficClient is a constructor.  It validates the offered
// configuration, resolves the access categories to TIDs, and registers
// the client in the ClientByID map.  An invalid configuration is
// reported through the error return and creates no client
func CreateTrafficClient(name string, tcfg *TrafficConfig, ctx *ExpCtx, trans Transport) (*TrafficClient, error) {
	err := tcfg.Validate()
	if err != nil {
		return nil, err
	}

	tc := new(TrafficClient)
	tc.ClientID = nxtID()
	tc.Name = name
	tc.Direction = tcfg.Direction
	tc.Model = canonicalModel(tcfg.Model)
	tc.ArrivalPr = tcfg.ArrivalPr
	tc.Interval = tcfg.Interval
	tc.MaxPckts = tcfg.MaxPckts
	tc.Dest = tcfg.Dest
	tc.Suspended = false
	tc.ctx = ctx
	tc.trans = trans

	// the low TID of the access category is the client's base priority.
	// splitting enables the optional TID, taken from the second access
	// category's high TID.  with splitting off the optional TID equals
	// the base TID, and the per-packet draw never happens
	tc.Tid = AcByName[tcfg.Ac].Low
	if tcfg.SplitTids && len(tcfg.OptionalAc) > 0 {
		tc.OptionalTid = AcByName[tcfg.OptionalAc].High
		tc.OptionalTidPr = tcfg.OptionalTidPr
	} else {
		tc.OptionalTid = tc.Tid
	}

	tc.intervalRng = rngstream.New(name + "-intvl-" + strconv.Itoa(ctx.RngRun))
	tc.tidRng = rngstream.New(name + "-tid-" + strconv.Itoa(ctx.RngRun))
	runAdvance(tc.intervalRng, ctx.RngRun)
	runAdvance(tc.tidRng, ctx.RngRun)

	ClientByID[tc.ClientID] = tc
	ctx.TraceMgr.AddName(tc.ClientID, name, "client")
	return tc, nil
}

// nxtInterval draws the time from one emission to its successor
func (tc *TrafficClient) nxtInterval() float64 {
	if tc.Model == "deterministic" {
		u01 := tc.intervalRng.RandU01()
		return sampleConstInterval(u01, []float64{tc.Interval})
	}
	u01 := tc.intervalRng.RandU01()
	return sampleGeoInterval(u01, []float64{tc.ArrivalPr, tc.ctx.SlotTime})
}

// pcktTid selects the TID carried by the next packet.  When the optional
// TID differs from the base TID an independent draw chooses the optional
// TID with the configured probability
func (tc *TrafficClient) pcktTid() int {
	if tc.OptionalTid == tc.Tid {
		return tc.Tid
	}
	u01 := tc.tidRng.RandU01()
	if u01 < tc.OptionalTidPr {
		return tc.OptionalTid
	}
	return tc.Tid
}

// clientEmit is the emission event handler for a traffic client.  Each
// invocation hands one packet to the transport and schedules the next
// emission, sustaining the chain until the client is suspended or its
// packet budget is exhausted.  A hand-off refusal costs only the one
// packet
func clientEmit(evtMgr *evtm.EventManager, context any, data any) any {
	clientID := context.(int)
	tc, present := ClientByID[clientID]
	if !present {
		return nil
	}
	gen := data.(int)

	// a suspended client, or a stale event from a chain superseded by a
	// later Start, does nothing
	if tc.Suspended || gen != tc.generation {
		return nil
	}

	tid := tc.pcktTid()
	err := tc.trans.Send(tc.ctx.Payload, tid, tc.Dest)
	if err != nil {
		fmt.Println("client " + tc.Name + " send refused: " + err.Error())
		AddClientTrace(tc.ctx.TraceMgr, evtMgr.CurrentTime(), tc.ClientID, tid, "refused")
	}
	tc.Sent += 1

	// schedule the successor emission
	if tc.Sent < tc.MaxPckts || tc.MaxPckts == 0 {
		evtMgr.Schedule(tc.ClientID, gen, clientEmit, vrtime.SecondsToTime(tc.nxtInterval()))
	}
	return nil
}

// Start schedules the client's first emission, no earlier than startTime.
// The first packet goes out at startTime itself; every emission after
// that follows its predecessor by a drawn interarrival time
func (tc *TrafficClient) Start(evtMgr *evtm.EventManager, startTime float64) {
	tc.Suspended = false
	tc.generation += 1

	// a zero arrival probability offers no traffic
	if tc.Model == "bernoulli" && tc.ArrivalPr == 0.0 {
		return
	}

	offset := roundFloat(startTime-evtMgr.CurrentSeconds(), rdigits)
	if offset < 0.0 {
		offset = 0.0
	}
	AddClientTrace(tc.ctx.TraceMgr, evtMgr.CurrentTime(), tc.ClientID, tc.Tid, "start")
	evtMgr.Schedule(tc.ClientID, tc.generation, clientEmit, vrtime.SecondsToTime(offset))
}

// Stop halts the client's emission chain.  A pending emission is
// abandoned when it fires.  Stop may be called repeatedly, and whether
// or not an emission is pending
func (tc *TrafficClient) Stop() {
	if tc.Suspended {
		return
	}
	tc.Suspended = true
	AddClientTrace(tc.ctx.TraceMgr, tc.ctx.EvtMgr.CurrentTime(), tc.ClientID, tc.Tid, "stop")
}

// StartClients starts every registered client, each at an independent
// uniform offset within one second after trafficStart
func StartClients(evtMgr *evtm.EventManager, ctx *ExpCtx, trafficStart float64) {
	clientIDs := maps.Keys(ClientByID)
	slices.Sort(clientIDs)

	for _, clientID := range clientIDs {
		tc := ClientByID[clientID]
		jitter := ctx.startRng.RandU01()
		tc.Start(evtMgr, roundFloat(trafficStart+jitter, rdigits))
	}
}

// StopClients suspends every registered client
func StopClients() {
	for _, tc := range ClientByID {
		tc.Stop()
	}
}

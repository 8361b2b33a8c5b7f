package mlnes

// mlnes.go has code that builds the experiment data structures shared by
// the traffic clients and the measurement pipeline

import (
	"fmt"
	"github.com/iti/evt/evtm"
	"github.com/iti/rngstream"
	"strconv"
	"strings"
)

// AcTids holds the two TIDs of one access category.  Low is the TID a
// station uses by default, High the TID it is steered to when its
// packets should ride the other link
type AcTids struct {
	Low  int
	High int
}

// AcByName maps an access category name to its TID pair
var AcByName = map[string]AcTids{
	"AC_BE": {Low: 0, High: 3},
	"AC_BK": {Low: 1, High: 2},
	"AC_VI": {Low: 4, High: 5},
	"AC_VO": {Low: 6, High: 7},
}

// acIndex maps an access category name to its conventional integer code
var acIndex = map[string]int{
	"AC_BE": 0,
	"AC_BK": 1,
	"AC_VI": 2,
	"AC_VO": 3,
}

// AcCode returns the integer code of a named access category
func AcCode(ac string) int {
	code, present := acIndex[ac]
	if !present {
		panic(fmt.Errorf("%s not the name of an access category", ac))
	}
	return code
}

// defaultTidLinkMap routes each access category's low TID to link 0 and
// its high TID to link 1
var defaultTidLinkMap string = "0,1,4,6 0; 3,2,5,7 1"

// defaultSlotTime is the channel slot duration in seconds
var defaultSlotTime float64 = 9e-6

// defaultPayloadSize is the application payload in bytes
var defaultPayloadSize int = 1500

// ParseTidLinkMap turns the textual TID-to-link map into a lookup table.
// Clauses are separated by semicolons; each clause lists TIDs, then
// whitespace, then the link those TIDs ride
func ParseTidLinkMap(mapStr string) (map[int]int, error) {
	tidLink := make(map[int]int)

	for _, clause := range strings.Split(mapStr, ";") {
		fields := strings.Fields(strings.TrimSpace(clause))
		if len(fields) != 2 {
			return nil, fmt.Errorf("TID-link map clause %s malformed", clause)
		}

		link, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("TID-link map clause %s names link %s which is not an integer",
				clause, fields[1])
		}

		for _, tidStr := range strings.Split(fields[0], ",") {
			tid, terr := strconv.Atoi(strings.TrimSpace(tidStr))
			if terr != nil {
				return nil, fmt.Errorf("TID-link map clause %s names TID %s which is not an integer",
					clause, tidStr)
			}
			if tid < 0 || tid > 7 {
				return nil, fmt.Errorf("TID %d outside the range 0 through 7", tid)
			}
			_, present := tidLink[tid]
			if present {
				return nil, fmt.Errorf("TID %d appears twice in the TID-link map", tid)
			}
			tidLink[tid] = link
		}
	}
	return tidLink, nil
}

// ExpCtx holds the shared state of one experiment run: the event
// manager, the parameters every component consults, and the stream that
// jitters the client start times
type ExpCtx struct {
	EvtMgr   *evtm.EventManager
	SlotTime float64
	Payload  int
	RngRun   int
	Warmup   float64
	SimTime  float64
	TidLink  map[int]int
	TraceMgr *TraceManager
	startRng *rngstream.RngStream
}

// CreateExpCtx is a constructor.  A nil trace manager argument gets an
// inactive one, so that trace calls are safe everywhere
func CreateExpCtx(excfg *ExpCfg, evtMgr *evtm.EventManager, traceMgr *TraceManager) *ExpCtx {
	ctx := new(ExpCtx)
	ctx.EvtMgr = evtMgr
	ctx.SlotTime = excfg.SlotTime
	ctx.Payload = excfg.Payload
	ctx.RngRun = excfg.RngRun
	ctx.Warmup = excfg.Warmup
	ctx.SimTime = excfg.SimTime

	mapStr := excfg.TidLinkMap
	if len(mapStr) == 0 {
		mapStr = defaultTidLinkMap
	}
	tidLink, err := ParseTidLinkMap(mapStr)
	if err != nil {
		panic(err)
	}
	ctx.TidLink = tidLink

	if traceMgr == nil {
		traceMgr = CreateTraceManager(excfg.Name, false)
	}
	ctx.TraceMgr = traceMgr

	ctx.startRng = rngstream.New("start-run-" + strconv.Itoa(excfg.RngRun))
	runAdvance(ctx.startRng, excfg.RngRun)
	return ctx
}

// LinkForTid returns the link that carries packets of the given TID
func (ctx *ExpCtx) LinkForTid(tid int) int {
	link, present := ctx.TidLink[tid]
	if !present {
		panic(fmt.Errorf("TID %d not carried by any link", tid))
	}
	return link
}

// WindowClose returns the time the observation window closes
func (ctx *ExpCtx) WindowClose() float64 {
	return roundFloat(ctx.Warmup+ctx.SimTime, rdigits)
}

// runAdvance shifts a stream to a position that depends on the run
// number, so that distinct runs see distinct sample paths
func runAdvance(rng *rngstream.RngStream, runNumber int) {
	for idx := 0; idx < runNumber; idx += 1 {
		rng.RandU01()
	}
}

// NumIDs counts the unique ids given out to objects that ask for one
var NumIDs int = 0

func nxtID() int {
	NumIDs += 1
	return NumIDs
}

package mlnes

// report.go holds the output side of an experiment: the one-line summary
// appended to the cumulative results file, the verbose counters printed
// after a run, and the transmission timeline emitted for debugging

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// DefaultSummaryFile accumulates one summary line per run, across runs
var DefaultSummaryFile string = "wifi-dcf.dat"

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// SummaryLine formats the group's headline measures and the experiment
// parameters that produced them as one comma-separated line.  The field
// order is fixed; downstream plotting scripts index columns by position
func SummaryLine(gs *GroupStats, excfg *ExpCfg) string {
	fields := []string{
		fmtFloat(gs.SuccessPr),
		fmtFloat(gs.Throughput),
		fmtFloat(gs.MeanQueuing),
		fmtFloat(gs.MeanAccess),
		fmtFloat(gs.MeanE2e),
		strconv.Itoa(excfg.RngRun),
		fmtFloat(excfg.SimTime),
		strconv.Itoa(excfg.Payload),
		strconv.Itoa(excfg.Mcs),
		strconv.Itoa(excfg.ChannelWidth),
		strconv.Itoa(excfg.Link1Stas),
		fmtFloat(excfg.Link1Lambda),
		strconv.Itoa(AcCode(excfg.Link1Ac)),
		strconv.Itoa(excfg.CwMin),
		strconv.Itoa(excfg.CwStage),
	}
	return strings.Join(fields, ",")
}

// AppendSummary adds one line to the cumulative summary file, creating
// the file on first use
func AppendSummary(filename string, line string) error {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(line + "\n")
	return err
}

// VerboseSummary formats the group's packet counters as the multi-line
// block printed after a run
func VerboseSummary(gs *GroupStats) string {
	return fmt.Sprintf("Summary:\n"+
		"1. Successful pkts: %d\n"+
		"2. Successful and retransmitted pkts: %d\n"+
		"3. Avg retransmissions per successful pkt: %g\n"+
		"4. Failed pkts: %d\n",
		gs.Successes, gs.Retransmitted, gs.MeanFailures, gs.FinalFailed)
}

// WriteTxTimeline stores the transmission timeline gathered by the trace
// manager, one line per channel occupancy, ordered by start time.  Times
// are reported in milliseconds
func WriteTxTimeline(tm *TraceManager, filename string) error {
	txops := make([]TxopTrace, len(tm.Txops))
	copy(txops, tm.Txops)
	sort.Slice(txops, func(i, j int) bool {
		return txops[i].Start < txops[j].Start
	})

	f, cerr := os.Create(filename)
	if cerr != nil {
		panic(cerr)
	}
	defer f.Close()

	_, werr := f.WriteString("Start Time,End Time,Source Node,DropReason\n")
	if werr != nil {
		panic(werr)
	}

	for _, txop := range txops {
		line := strconv.FormatInt(int64(math.Round(txop.Start*1e3)), 10) + "," +
			strconv.FormatInt(int64(math.Round(txop.End*1e3)), 10) + "," +
			txop.Source + "," + txop.Outcome + "\n"
		_, werr = f.WriteString(line)
		if werr != nil {
			panic(werr)
		}
	}
	return werr
}

package mlnes

// param.go holds the configuration structs for an experiment run, their
// validation, their file representations, and the expansion of the
// per-link population parameters into per-station traffic configurations

import (
	"encoding/json"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"path"
	"strconv"
)

// trafficModels maps the accepted spellings of a traffic model name to
// its canonical form
var trafficModels = map[string]string{
	"deterministic": "deterministic",
	"determ":        "deterministic",
	"constant":      "deterministic",
	"bernoulli":     "bernoulli",
	"bern":          "bernoulli",
	"geometric":     "bernoulli",
}

// canonicalModel returns the canonical name of a traffic model, the
// empty string if the model is not recognized
func canonicalModel(model string) string {
	return trafficModels[model]
}

// defaultApAddr is the transport address of the access point, the
// destination of every uplink client
var defaultApAddr string = "ap"

// TrafficConfig describes one traffic client.  ArrivalPr matters only to
// the bernoulli model and Interval only to the deterministic one
type TrafficConfig struct {
	Name          string  `json:"name" yaml:"name"`
	Direction     string  `json:"direction" yaml:"direction"`
	Model         string  `json:"model" yaml:"model"`
	Ac            string  `json:"ac" yaml:"ac"`
	OptionalAc    string  `json:"optionalac" yaml:"optionalac"`
	SplitTids     bool    `json:"splittids" yaml:"splittids"`
	OptionalTidPr float64 `json:"optionaltidpr" yaml:"optionaltidpr"`
	ArrivalPr     float64 `json:"arrivalpr" yaml:"arrivalpr"`
	Interval      float64 `json:"interval" yaml:"interval"`
	MaxPckts      int     `json:"maxpckts" yaml:"maxpckts"`
	Dest          string  `json:"dest" yaml:"dest"`
}

// Validate checks a traffic configuration for coherence before any
// client is built from it
func (tcfg *TrafficConfig) Validate() error {
	model := canonicalModel(tcfg.Model)
	if len(model) == 0 {
		return fmt.Errorf("traffic model %s for client %s not supported", tcfg.Model, tcfg.Name)
	}
	if tcfg.Direction != "uplink" && tcfg.Direction != "downlink" {
		return fmt.Errorf("direction %s for client %s not recognized", tcfg.Direction, tcfg.Name)
	}
	if len(tcfg.Dest) == 0 {
		return fmt.Errorf("client %s has no destination address", tcfg.Name)
	}
	_, present := AcByName[tcfg.Ac]
	if !present {
		return fmt.Errorf("%s not the name of an access category", tcfg.Ac)
	}
	if tcfg.SplitTids && len(tcfg.OptionalAc) > 0 {
		_, present = AcByName[tcfg.OptionalAc]
		if !present {
			return fmt.Errorf("%s not the name of an access category", tcfg.OptionalAc)
		}
	}
	if tcfg.OptionalTidPr < 0.0 || tcfg.OptionalTidPr > 1.0 {
		return fmt.Errorf("optional TID probability %f for client %s not in [0,1]",
			tcfg.OptionalTidPr, tcfg.Name)
	}
	if model == "bernoulli" && (tcfg.ArrivalPr < 0.0 || tcfg.ArrivalPr >= 1.0) {
		return fmt.Errorf("arrival probability %f for client %s not in [0,1)", tcfg.ArrivalPr, tcfg.Name)
	}
	if model == "deterministic" && tcfg.Interval <= 0.0 {
		return fmt.Errorf("interarrival time %f for client %s not positive", tcfg.Interval, tcfg.Name)
	}
	if tcfg.MaxPckts < 0 {
		return fmt.Errorf("packet budget %d for client %s negative", tcfg.MaxPckts, tcfg.Name)
	}
	return nil
}

// ExpCfg holds the parameters of one experiment run.  Link 1 and link 2
// each carry an independent population of stations; stations on link 1
// keep their access category's low TID, stations on link 2 are steered
// to its high TID
type ExpCfg struct {
	Name          string          `json:"name" yaml:"name"`
	RngRun        int             `json:"rngrun" yaml:"rngrun"`
	SimTime       float64         `json:"simtime" yaml:"simtime"`
	Warmup        float64         `json:"warmup" yaml:"warmup"`
	SlotTime      float64         `json:"slottime" yaml:"slottime"`
	Payload       int             `json:"payload" yaml:"payload"`
	Mcs           int             `json:"mcs" yaml:"mcs"`
	Mcs2          int             `json:"mcs2" yaml:"mcs2"`
	ChannelWidth  int             `json:"channelwidth" yaml:"channelwidth"`
	ChannelWidth2 int             `json:"channelwidth2" yaml:"channelwidth2"`
	TrafficModel  string          `json:"trafficmodel" yaml:"trafficmodel"`
	Link1Stas     int             `json:"link1stas" yaml:"link1stas"`
	Link1Lambda   float64         `json:"link1lambda" yaml:"link1lambda"`
	Link1Ac       string          `json:"link1ac" yaml:"link1ac"`
	Link2Stas     int             `json:"link2stas" yaml:"link2stas"`
	Link2Lambda   float64         `json:"link2lambda" yaml:"link2lambda"`
	Link2Ac       string          `json:"link2ac" yaml:"link2ac"`
	CwMin         int             `json:"cwmin" yaml:"cwmin"`
	CwStage       int             `json:"cwstage" yaml:"cwstage"`
	TidLinkMap    string          `json:"tidlinkmap" yaml:"tidlinkmap"`
	Traffic       []TrafficConfig `json:"traffic" yaml:"traffic"`
}

// CreateExpCfg is a constructor.  Every parameter gets the value a run
// uses when the experimenter says nothing
func CreateExpCfg(name string) *ExpCfg {
	excfg := new(ExpCfg)
	excfg.Name = name
	excfg.RngRun = 6
	excfg.SimTime = 20.0
	excfg.Warmup = 5.0
	excfg.SlotTime = defaultSlotTime
	excfg.Payload = defaultPayloadSize
	excfg.Mcs = 6
	excfg.Mcs2 = 6
	excfg.ChannelWidth = 20
	excfg.ChannelWidth2 = 20
	excfg.TrafficModel = "bernoulli"
	excfg.Link1Stas = 5
	excfg.Link1Lambda = 0.00001
	excfg.Link1Ac = "AC_BE"
	excfg.Link2Stas = 5
	excfg.Link2Lambda = 0.00001
	excfg.Link2Ac = "AC_BE"
	excfg.CwMin = 16
	excfg.CwStage = 6
	return excfg
}

// Validate checks the experiment parameters for coherence, including any
// explicitly listed traffic configurations
func (excfg *ExpCfg) Validate() error {
	if excfg.SimTime <= 0.0 {
		return fmt.Errorf("simulation time %f not positive", excfg.SimTime)
	}
	if excfg.Warmup < 0.0 {
		return fmt.Errorf("warmup time %f negative", excfg.Warmup)
	}
	if excfg.SlotTime <= 0.0 {
		return fmt.Errorf("slot time %f not positive", excfg.SlotTime)
	}
	if excfg.Payload <= 0 {
		return fmt.Errorf("payload size %d not positive", excfg.Payload)
	}
	if excfg.Link1Stas < 0 || excfg.Link2Stas < 0 {
		return fmt.Errorf("station counts %d, %d cannot be negative", excfg.Link1Stas, excfg.Link2Stas)
	}
	model := canonicalModel(excfg.TrafficModel)
	if len(model) == 0 {
		return fmt.Errorf("traffic model %s not supported", excfg.TrafficModel)
	}
	if model == "bernoulli" && (excfg.Link1Lambda < 0.0 || excfg.Link1Lambda >= 1.0 ||
		excfg.Link2Lambda < 0.0 || excfg.Link2Lambda >= 1.0) {
		return fmt.Errorf("per-slot arrival rates %f, %f not in [0,1)",
			excfg.Link1Lambda, excfg.Link2Lambda)
	}
	if model == "deterministic" && (excfg.Link1Lambda <= 0.0 || excfg.Link2Lambda <= 0.0) {
		return fmt.Errorf("arrival rates %f, %f must be positive for deterministic traffic",
			excfg.Link1Lambda, excfg.Link2Lambda)
	}
	_, present := AcByName[excfg.Link1Ac]
	if !present {
		return fmt.Errorf("%s not the name of an access category", excfg.Link1Ac)
	}
	_, present = AcByName[excfg.Link2Ac]
	if !present {
		return fmt.Errorf("%s not the name of an access category", excfg.Link2Ac)
	}
	if excfg.CwMin < 1 {
		return fmt.Errorf("initial contention window %d must be at least 1", excfg.CwMin)
	}
	if excfg.CwStage < 0 {
		return fmt.Errorf("contention window cutoff stage %d negative", excfg.CwStage)
	}
	if len(excfg.TidLinkMap) > 0 {
		_, err := ParseTidLinkMap(excfg.TidLinkMap)
		if err != nil {
			return err
		}
	}
	for idx := range excfg.Traffic {
		err := excfg.Traffic[idx].Validate()
		if err != nil {
			return err
		}
	}
	return nil
}

// CwParams returns the contention window bounds handed to the MAC.  The
// configured CwMin is the number of slots in the initial window, so the
// largest backoff draw is one less; the window doubles CwStage times
// before it stops growing
func (excfg *ExpCfg) CwParams() (int, int) {
	cwMax := excfg.CwMin*(1<<excfg.CwStage) - 1
	return excfg.CwMin - 1, cwMax
}

// TrafficConfigs returns the traffic configurations of the run,
// preferring an explicitly listed set over the per-link expansion
func (excfg *ExpCfg) TrafficConfigs() []TrafficConfig {
	if len(excfg.Traffic) > 0 {
		return excfg.Traffic
	}
	return BuildTrafficConfigs(excfg)
}

// BuildTrafficConfigs expands the per-link population parameters into
// one uplink configuration per station.  The access point is node 0 and
// stations are numbered from 1, link 1's population first.  A station's
// optional TID comes from its own access category; the steering
// probability of 0 or 1 pins the station's packets to the category's low
// or high TID, and through the TID-link map to its link
func BuildTrafficConfigs(excfg *ExpCfg) []TrafficConfig {
	model := canonicalModel(excfg.TrafficModel)
	nStas := excfg.Link1Stas + excfg.Link2Stas
	tcfgs := make([]TrafficConfig, 0, nStas)

	for idx := 1; idx <= nStas; idx += 1 {
		ac := excfg.Link1Ac
		lambda := excfg.Link1Lambda
		steerPr := 0.0
		if idx > excfg.Link1Stas {
			ac = excfg.Link2Ac
			lambda = excfg.Link2Lambda
			steerPr = 1.0
		}

		tcfg := TrafficConfig{
			Name:          "sta-" + strconv.Itoa(idx),
			Direction:     "uplink",
			Model:         model,
			Ac:            ac,
			OptionalAc:    ac,
			SplitTids:     true,
			OptionalTidPr: steerPr,
			Dest:          defaultApAddr,
		}
		if model == "bernoulli" {
			tcfg.ArrivalPr = lambda
		} else {
			tcfg.Interval = roundFloat(excfg.SlotTime/lambda, rdigits)
		}
		tcfgs = append(tcfgs, tcfg)
	}
	return tcfgs
}

// WriteToFile stores the ExpCfg struct form in a file whose extension
// chooses the representation, yaml or json
func (excfg *ExpCfg) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*excfg)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*excfg, "", "\t")
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

// ReadExpCfg deserializes a byte slice holding a representation of an
// ExpCfg struct.  If the argument dict is empty the byte slice is read
// from the file whose name is given
func ReadExpCfg(filename string, useYAML bool, dict []byte) (*ExpCfg, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := ExpCfg{}
	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}
	if err != nil {
		return nil, err
	}
	return &example, nil
}

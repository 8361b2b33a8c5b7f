package mlnes

// param_test.go checks configuration validation, the contention window
// derivation, and the expansion of the per-link population parameters
// into per-station traffic configurations

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
)

func validTrafficConfig() *TrafficConfig {
	return &TrafficConfig{
		Name:      "sta-1",
		Direction: "uplink",
		Model:     "bernoulli",
		Ac:        "AC_BE",
		ArrivalPr: 0.1,
		Dest:      "ap",
	}
}

func TestTrafficConfigValidation(t *testing.T) {
	assert.NoError(t, validTrafficConfig().Validate())

	// an idle source is legal
	tcfg := validTrafficConfig()
	tcfg.ArrivalPr = 0.0
	assert.NoError(t, tcfg.Validate())

	tcfg = validTrafficConfig()
	tcfg.ArrivalPr = 1.0
	assert.Error(t, tcfg.Validate())

	tcfg = validTrafficConfig()
	tcfg.ArrivalPr = -0.25
	assert.Error(t, tcfg.Validate())

	tcfg = validTrafficConfig()
	tcfg.Model = "poisson"
	assert.Error(t, tcfg.Validate())

	tcfg = validTrafficConfig()
	tcfg.Dest = ""
	assert.Error(t, tcfg.Validate())

	tcfg = validTrafficConfig()
	tcfg.Ac = "AC_XX"
	assert.Error(t, tcfg.Validate())

	tcfg = validTrafficConfig()
	tcfg.Direction = "sideways"
	assert.Error(t, tcfg.Validate())

	tcfg = validTrafficConfig()
	tcfg.SplitTids = true
	tcfg.OptionalAc = "AC_??"
	assert.Error(t, tcfg.Validate())

	tcfg = validTrafficConfig()
	tcfg.OptionalTidPr = 1.5
	assert.Error(t, tcfg.Validate())

	tcfg = validTrafficConfig()
	tcfg.Model = "determ"
	tcfg.Interval = 0.0
	assert.Error(t, tcfg.Validate())

	tcfg = validTrafficConfig()
	tcfg.MaxPckts = -1
	assert.Error(t, tcfg.Validate())
}

func TestModelCanonicalization(t *testing.T) {
	assert.Equal(t, "deterministic", canonicalModel("deterministic"))
	assert.Equal(t, "deterministic", canonicalModel("determ"))
	assert.Equal(t, "deterministic", canonicalModel("constant"))
	assert.Equal(t, "bernoulli", canonicalModel("bernoulli"))
	assert.Equal(t, "bernoulli", canonicalModel("bern"))
	assert.Equal(t, "bernoulli", canonicalModel("geometric"))
	assert.Equal(t, "", canonicalModel("poisson"))
}

func TestCwParams(t *testing.T) {
	excfg := CreateExpCfg("cw")
	cwMin, cwMax := excfg.CwParams()
	assert.Equal(t, 15, cwMin)
	assert.Equal(t, 1023, cwMax)

	excfg.CwMin = 32
	excfg.CwStage = 3
	cwMin, cwMax = excfg.CwParams()
	assert.Equal(t, 31, cwMin)
	assert.Equal(t, 255, cwMax)
}

func TestExpCfgValidate(t *testing.T) {
	assert.NoError(t, CreateExpCfg("dflt").Validate())

	excfg := CreateExpCfg("bad")
	excfg.SimTime = -1.0
	assert.Error(t, excfg.Validate())

	excfg = CreateExpCfg("bad")
	excfg.CwMin = 0
	assert.Error(t, excfg.Validate())

	excfg = CreateExpCfg("bad")
	excfg.Link1Lambda = 1.0
	assert.Error(t, excfg.Validate())

	excfg = CreateExpCfg("bad")
	excfg.TidLinkMap = "0,1 zero"
	assert.Error(t, excfg.Validate())

	excfg = CreateExpCfg("bad")
	excfg.Traffic = []TrafficConfig{
		{Name: "x", Direction: "uplink", Model: "bogus", Ac: "AC_BE", Dest: "ap"},
	}
	assert.Error(t, excfg.Validate())
}

func TestBuildTrafficConfigs(t *testing.T) {
	excfg := CreateExpCfg("build")
	excfg.Link1Stas = 2
	excfg.Link2Stas = 3
	excfg.Link1Lambda = 0.01
	excfg.Link2Lambda = 0.02
	excfg.Link1Ac = "AC_BE"
	excfg.Link2Ac = "AC_VI"

	tcfgs := BuildTrafficConfigs(excfg)
	require.Len(t, tcfgs, 5)
	assert.Equal(t, "sta-1", tcfgs[0].Name)
	assert.Equal(t, "sta-5", tcfgs[4].Name)

	for idx, tcfg := range tcfgs {
		assert.NoError(t, tcfg.Validate())
		assert.Equal(t, "uplink", tcfg.Direction)
		assert.True(t, tcfg.SplitTids)
		assert.Equal(t, tcfg.Ac, tcfg.OptionalAc)
		assert.Equal(t, defaultApAddr, tcfg.Dest)
		if idx < 2 {
			assert.Equal(t, "AC_BE", tcfg.Ac)
			assert.Equal(t, 0.0, tcfg.OptionalTidPr)
			assert.Equal(t, 0.01, tcfg.ArrivalPr)
		} else {
			assert.Equal(t, "AC_VI", tcfg.Ac)
			assert.Equal(t, 1.0, tcfg.OptionalTidPr)
			assert.Equal(t, 0.02, tcfg.ArrivalPr)
		}
	}
}

func TestDeterministicExpansionInterval(t *testing.T) {
	excfg := CreateExpCfg("det")
	excfg.TrafficModel = "constant"
	excfg.Link1Stas = 1
	excfg.Link2Stas = 0
	excfg.Link1Lambda = 0.00001

	tcfgs := BuildTrafficConfigs(excfg)
	require.Len(t, tcfgs, 1)
	assert.Equal(t, "deterministic", tcfgs[0].Model)

	// one packet every slotTime/lambda seconds
	assert.InDelta(t, 0.9, tcfgs[0].Interval, 1e-12)
}

func TestExpCfgFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	excfg := CreateExpCfg("roundtrip")
	excfg.RngRun = 11
	excfg.Link1Ac = "AC_VO"

	yamlFile := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, excfg.WriteToFile(yamlFile))
	back, err := ReadExpCfg(yamlFile, true, nil)
	require.NoError(t, err)
	assert.Equal(t, excfg.RngRun, back.RngRun)
	assert.Equal(t, excfg.Link1Ac, back.Link1Ac)
	assert.Equal(t, excfg.SimTime, back.SimTime)

	jsonFile := filepath.Join(dir, "cfg.json")
	require.NoError(t, excfg.WriteToFile(jsonFile))
	back, err = ReadExpCfg(jsonFile, false, nil)
	require.NoError(t, err)
	assert.Equal(t, excfg.CwMin, back.CwMin)
	assert.Equal(t, excfg.Name, back.Name)
}

package pattern

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DefinitionTestSuite struct {
	suite.Suite
	dir string
}

func TestDefinitionSuite(t *testing.T) {
	suite.Run(t, new(DefinitionTestSuite))
}

func (suite *DefinitionTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *DefinitionTestSuite) write(name, content string) {
	suite.Require().NoError(os.WriteFile(filepath.Join(suite.dir, name), []byte(content), 0644))
}

const yamlDefinition = `
id: breakout
name: Opening range breakout
symbols: [NIFTY]
phases:
  - id: range
    conditions:
      - "candle.range < atr"
    capture:
      range_high: high
    timeout: 5
  - id: break
    conditions:
      - "close > vars.range_high"
      - "sentiment.pcr > 1"
    timeout: 3
execution:
  side: BUY
  entry: close
  sl: "entry - atr"
  tp: "entry + risk * 2 * tp_mult"
regime_config:
  BEARISH:
    allow_entry: false
  BULLISH:
    tp_mult: 1.5
    quantity_mod: 2
`

const jsonDefinition = `{
  "id": "fade",
  "phases": [
    {"id": "spike", "conditions": ["close < open"], "timeout": 2}
  ],
  "execution": {"side": "SELL", "entry": "close", "sl": "high", "tp": "entry - risk"}
}`

func (suite *DefinitionTestSuite) TestLoadDefinitions() {
	suite.write("b.yaml", yamlDefinition)
	suite.write("a.json", jsonDefinition)
	suite.write("notes.txt", "ignored")
	suite.Require().NoError(os.Mkdir(filepath.Join(suite.dir, "nested"), 0755))

	defs, err := LoadDefinitions(suite.dir)
	suite.Require().NoError(err)
	suite.Require().Len(defs, 2)

	suite.Equal("breakout", defs[0].ID)
	suite.Equal("fade", defs[1].ID)

	breakout := defs[0]
	suite.Equal("range", breakout.FirstPhase())
	suite.Equal("candle.range < atr", breakout.Phases[0].Conditions[0].Source())
	suite.Equal("high", breakout.Phases[0].Capture["range_high"].Source())
	suite.Equal(types.SideBuy, breakout.Execution.Side)
	suite.True(breakout.AppliesTo("NIFTY"))
	suite.False(breakout.AppliesTo("BANKNIFTY"))

	suite.False(breakout.RegimeSettings(types.RegimeBearish).Allows())
	suite.True(breakout.RegimeSettings(types.RegimeSideways).Allows())
	suite.Equal(1.5, breakout.RegimeSettings(types.RegimeBullish).TakeProfitMultiplier())
	suite.Equal(2.0, breakout.RegimeSettings(types.RegimeBullish).QuantityModifier())
	suite.Equal(1.0, breakout.RegimeSettings(types.RegimeSideways).QuantityModifier())

	fade := defs[1]
	suite.Equal(types.SideSell, fade.Execution.Side)
	suite.True(fade.AppliesTo("BANKNIFTY"))

	phase, idx, ok := fade.Phase("spike")
	suite.True(ok)
	suite.Equal(0, idx)
	suite.Equal(2, phase.Timeout)

	_, _, ok = fade.Phase("missing")
	suite.False(ok)
}

func (suite *DefinitionTestSuite) TestDuplicateIDs() {
	suite.write("a.json", jsonDefinition)
	suite.write("b.yml", "id: fade\nphases: [{id: x}]\nexecution: {side: BUY, entry: close, sl: low, tp: high}\n")

	_, err := LoadDefinitions(suite.dir)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidDefinition))
}

func (suite *DefinitionTestSuite) TestInvalidDefinitions() {
	tests := []struct {
		name    string
		file    string
		content string
		code    errors.ErrorCode
	}{
		{name: "bad syntax", file: "a.json", content: `{"id": "x", "phases": [{"id": "p", "conditions": ["close >"]}]}`, code: errors.ErrCodePatternLoadFailed},
		{name: "no phases", file: "a.yaml", content: "id: x\nexecution: {side: BUY, entry: close, sl: low, tp: high}\n", code: errors.ErrCodeInvalidDefinition},
		{name: "bad side", file: "a.yaml", content: "id: x\nphases: [{id: p}]\nexecution: {side: HOLD, entry: close, sl: low, tp: high}\n", code: errors.ErrCodeInvalidDefinition},
		{name: "missing tp", file: "a.yaml", content: "id: x\nphases: [{id: p}]\nexecution: {side: BUY, entry: close, sl: low}\n", code: errors.ErrCodeInvalidDefinition},
		{name: "duplicate phase", file: "a.yaml", content: "id: x\nphases: [{id: p}, {id: p}]\nexecution: {side: BUY, entry: close, sl: low, tp: high}\n", code: errors.ErrCodeInvalidDefinition},
		{name: "engine too old", file: "a.yaml", content: "id: x\nengine_version: \">= 99\"\nphases: [{id: p}]\nexecution: {side: BUY, entry: close, sl: low, tp: high}\n", code: errors.ErrCodeInvalidDefinition},
		{name: "bad engine constraint", file: "a.yaml", content: "id: x\nengine_version: nonsense\nphases: [{id: p}]\nexecution: {side: BUY, entry: close, sl: low, tp: high}\n", code: errors.ErrCodeInvalidDefinition},
		{name: "negative timeout", file: "a.yaml", content: "id: x\nphases: [{id: p, timeout: -1}]\nexecution: {side: BUY, entry: close, sl: low, tp: high}\n", code: errors.ErrCodeInvalidDefinition},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := ParseDefinition([]byte(tt.content), tt.file)
			suite.Error(err)
			suite.True(errors.HasCode(err, tt.code), err.Error())
		})
	}
}

func (suite *DefinitionTestSuite) TestEngineVersionAccepted() {
	def, err := ParseDefinition([]byte("id: x\nengine_version: \">= 1.0\"\nphases: [{id: p}]\nexecution: {side: BUY, entry: close, sl: low, tp: high}\n"), "a.yaml")
	suite.Require().NoError(err)
	suite.Equal(">= 1.0", def.EngineVersion)
}

func (suite *DefinitionTestSuite) TestMissingDirectory() {
	_, err := LoadDefinitions(filepath.Join(suite.dir, "absent"))
	suite.True(errors.HasCode(err, errors.ErrCodePatternLoadFailed))

	_, err = LoadDefinitionFile(filepath.Join(suite.dir, "absent.yaml"))
	suite.True(errors.HasCode(err, errors.ErrCodePatternLoadFailed))
}

func (suite *DefinitionTestSuite) TestDefinitionSchema() {
	schema, err := GetDefinitionSchema()
	suite.Require().NoError(err)

	var result map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &result))
	suite.Equal("argo-options-pattern", result["title"])

	properties := result["properties"].(map[string]any)
	execution := properties["execution"].(map[string]any)["properties"].(map[string]any)
	suite.Equal("string", execution["entry"].(map[string]any)["type"])

	phases := properties["phases"].(map[string]any)["items"].(map[string]any)["properties"].(map[string]any)
	suite.Equal("string", phases["conditions"].(map[string]any)["items"].(map[string]any)["type"])
}

package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const stETHArbABIJSON = `[
	{"type":"function","name":"executeArbitrage","stateMutability":"nonpayable","inputs":[
		{"name":"flashAmount","type":"uint256"},
		{"name":"minETHOut","type":"uint256"},
		{"name":"swapPath","type":"address[]"},
		{"name":"swapData","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"calculateProfit","stateMutability":"view","inputs":[
		{"name":"flashAmount","type":"uint256"}],"outputs":[
		{"name":"expectedProfit","type":"uint256"},
		{"name":"isProfitable","type":"bool"}]}
]`

const daiPegArbABIJSON = `[
	{"type":"function","name":"executeArbitrage","stateMutability":"nonpayable","inputs":[
		{"name":"flashAmount","type":"uint256"},
		{"name":"minDaiBack","type":"uint256"},
		{"name":"swapRouter","type":"address"},
		{"name":"swapData","type":"bytes"},
		{"name":"isDaiOverPeg","type":"bool"}],"outputs":[]},
	{"type":"function","name":"calculateProfit","stateMutability":"view","inputs":[
		{"name":"flashAmount","type":"uint256"},
		{"name":"daiPrice","type":"uint256"},
		{"name":"usdcPrice","type":"uint256"}],"outputs":[
		{"name":"expectedProfit","type":"uint256"},
		{"name":"isProfitable","type":"bool"}]}
]`

const curvePoolABIJSON = `[
	{"type":"function","name":"price_oracle","stateMutability":"view","inputs":[],"outputs":[
		{"name":"","type":"uint256"}]}
]`

const aggregatorV3ABIJSON = `[
	{"type":"function","name":"latestRoundData","stateMutability":"view","inputs":[],"outputs":[
		{"name":"roundId","type":"uint80"},
		{"name":"answer","type":"int256"},
		{"name":"startedAt","type":"uint256"},
		{"name":"updatedAt","type":"uint256"},
		{"name":"answeredInRound","type":"uint80"}]}
]`

var (
	StETHArbABI     = mustParseABI(stETHArbABIJSON)
	DaiPegArbABI    = mustParseABI(daiPegArbABIJSON)
	CurvePoolABI    = mustParseABI(curvePoolABIJSON)
	AggregatorV3ABI = mustParseABI(aggregatorV3ABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

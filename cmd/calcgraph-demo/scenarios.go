package main

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vincentzz/nodeengin-sub001"
	"github.com/vincentzz/nodeengin-sub001/money"
)

// scenario bundles everything needed to drive one worked example end to
// end: the root node, the path to evaluate from, the requested resources,
// and an optional ad-hoc override.
type scenario struct {
	root      calcgraph.CalculationNode
	path      calcgraph.Path
	requested []calcgraph.ResourceIdentifier
	adhoc     *calcgraph.AdhocOverride
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// buildBaseGraph constructs the rawGroup/calGroup tree shared by S1-S3:
// Ask/Bid providers for APPLE and GOOGLE, a MidSpreadCalculator for each,
// and the hardcoded-Bid-plus-flywire wiring S2 introduces.
func buildBaseGraph() *calcgraph.NodeGroup {
	rawGroup := calcgraph.NewNodeGroup("rawGroup", []calcgraph.CalculationNode{
		money.AskProvider{NodeName: "AppleAsk", Instrument: "APPLE", Source: "Bloomberg", Value: dec("100.25")},
		money.BidProvider{NodeName: "AppleBid", Instrument: "APPLE", Source: "Bloomberg", Value: dec("99.75")},
		money.AskProvider{NodeName: "GoogleAsk", Instrument: "GOOGLE", Source: "Bloomberg", Value: dec("84")},
		money.BidProvider{NodeName: "GoogleBid", Instrument: "GOOGLE", Source: "Bloomberg", Value: dec("76")},
		money.HardcodeAttributeProvider{NodeName: "hard", Instrument: "GOOGLE", Source: "HARDCODED", Attribute: money.Bid, Value: dec("80")},
	}, nil, calcgraph.Scope{Tag: calcgraph.ScopeExclude})

	calGroup := calcgraph.NewNodeGroup("calGroup", []calcgraph.CalculationNode{
		money.MidSpreadCalculator{NodeName: "MidSpreadApple", Instrument: "APPLE", Source: "FALCON", AskSource: "Bloomberg"},
		money.MidSpreadCalculator{NodeName: "MID_GOOGLE", Instrument: "GOOGLE", Source: "FALCON", AskSource: "Bloomberg"},
	}, []calcgraph.Flywire{
		{
			Source: calcgraph.NewConnectionPoint("/root/rawGroup/hard", money.Resource{Instrument: "GOOGLE", Source: "HARDCODED", Attribute: money.Bid}),
			Target: calcgraph.NewConnectionPoint("/root/calGroup/MID_GOOGLE", money.Resource{Instrument: "GOOGLE", Source: "Bloomberg", Attribute: money.Bid}),
		},
	}, calcgraph.Scope{Tag: calcgraph.ScopeExclude})

	return calcgraph.NewNodeGroup("root", []calcgraph.CalculationNode{rawGroup, calGroup}, nil, calcgraph.Scope{Tag: calcgraph.ScopeExclude})
}

func scenarioS1() scenario {
	root := buildBaseGraph()
	return scenario{
		root: root,
		path: "/root",
		requested: []calcgraph.ResourceIdentifier{
			money.Resource{Instrument: "APPLE", Source: "FALCON", Attribute: money.MidPrice},
			money.Resource{Instrument: "APPLE", Source: "FALCON", Attribute: money.Spread},
		},
	}
}

func scenarioS2() scenario {
	root := buildBaseGraph()
	return scenario{
		root: root,
		path: "/root",
		requested: []calcgraph.ResourceIdentifier{
			money.Resource{Instrument: "GOOGLE", Source: "FALCON", Attribute: money.MidPrice},
		},
	}
}

func scenarioS3() scenario {
	root := buildBaseGraph()
	spreadCP := calcgraph.NewConnectionPoint("/root/calGroup/MID_GOOGLE", money.Resource{Instrument: "GOOGLE", Source: "FALCON", Attribute: money.Spread})
	adhoc := calcgraph.NewAdhocOverride(nil, map[calcgraph.ConnectionPoint]calcgraph.Result{
		spreadCP: calcgraph.Success(dec("1")),
	}, nil)
	return scenario{
		root: root,
		path: "/root",
		requested: []calcgraph.ResourceIdentifier{
			money.Resource{Instrument: "GOOGLE", Source: "FALCON", Attribute: money.MidPrice},
			money.Resource{Instrument: "GOOGLE", Source: "FALCON", Attribute: money.Spread},
		},
		adhoc: adhoc,
	}
}

func scenarioS4() scenario {
	root := calcgraph.NewNodeGroup("root", []calcgraph.CalculationNode{
		money.MarkToMarketCalculator{NodeName: "MtM", Instrument: "APPLE", Source: "FALCON", MidSource: "FALCON"},
	}, nil, calcgraph.Scope{Tag: calcgraph.ScopeExclude})
	return scenario{
		root: root,
		path: "/root",
		requested: []calcgraph.ResourceIdentifier{
			money.Resource{Instrument: "APPLE", Source: "FALCON", Attribute: money.MarkToMarket},
		},
	}
}

// cyclicNode is a tiny demo-only AtomicNode pair used by S5: each node
// declares the other's output as an input, so staged discovery never
// terminates without the engine's cycle check.
type cyclicNode struct {
	nodeName  string
	ownOutput money.Resource
	needs     money.Resource
}

func (c cyclicNode) Name() string { return c.nodeName }
func (c cyclicNode) Inputs() []calcgraph.ResourceIdentifier {
	return []calcgraph.ResourceIdentifier{c.needs}
}
func (c cyclicNode) Outputs() []calcgraph.ResourceIdentifier {
	return []calcgraph.ResourceIdentifier{c.ownOutput}
}
func (c cyclicNode) ResolveDependencies(calcgraph.Snapshot, map[string]calcgraph.Result) []calcgraph.ResourceIdentifier {
	return nil
}
func (c cyclicNode) Compute(_ calcgraph.Snapshot, inputs map[string]calcgraph.Result) map[string]calcgraph.Result {
	return map[string]calcgraph.Result{c.ownOutput.ResourceKey(): inputs[c.needs.ResourceKey()]}
}

func scenarioS5() scenario {
	a := money.Resource{Instrument: "APPLE", Source: "A", Attribute: money.MidPrice}
	b := money.Resource{Instrument: "APPLE", Source: "B", Attribute: money.MidPrice}
	root := calcgraph.NewNodeGroup("root", []calcgraph.CalculationNode{
		cyclicNode{nodeName: "A", ownOutput: a, needs: b},
		cyclicNode{nodeName: "B", ownOutput: b, needs: a},
	}, nil, calcgraph.Scope{Tag: calcgraph.ScopeExclude})
	return scenario{
		root:      root,
		path:      "/root",
		requested: []calcgraph.ResourceIdentifier{a, b},
	}
}

var scenarios = map[string]func() scenario{
	"s1": scenarioS1,
	"s2": scenarioS2,
	"s3": scenarioS3,
	"s4": scenarioS4,
	"s5": scenarioS5,
}

func lookupScenario(name string) (scenario, error) {
	build, ok := scenarios[name]
	if !ok {
		return scenario{}, fmt.Errorf("unknown scenario %q", name)
	}
	return build(), nil
}

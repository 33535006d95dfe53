package money

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/vincentzz/nodeengin-sub001"
)

// AskProvider is a constant-value leaf producing one instrument's Ask
// price from a given source. Modelled as a pure function returning a
// canned value, standing in for an excluded market-data I/O boundary.
type AskProvider struct {
	NodeName   string
	Instrument string
	Source     string
	Value      decimal.Decimal
}

func (p AskProvider) Name() string                           { return p.NodeName }
func (p AskProvider) Inputs() []calcgraph.ResourceIdentifier { return nil }
func (p AskProvider) Outputs() []calcgraph.ResourceIdentifier {
	return []calcgraph.ResourceIdentifier{p.askRID()}
}

func (p AskProvider) askRID() Resource {
	return Resource{Instrument: p.Instrument, Source: p.Source, Attribute: Ask}
}

func (p AskProvider) ResolveDependencies(calcgraph.Snapshot, map[string]calcgraph.Result) []calcgraph.ResourceIdentifier {
	return nil
}

func (p AskProvider) Compute(calcgraph.Snapshot, map[string]calcgraph.Result) map[string]calcgraph.Result {
	return map[string]calcgraph.Result{
		p.askRID().ResourceKey(): calcgraph.Success(p.Value),
	}
}

const askProviderTag = "money.AskProvider"

func (p AskProvider) EncodeTag() string { return askProviderTag }

func (p AskProvider) EncodeParams() (json.RawMessage, error) {
	return json.Marshal(p)
}

// DecodeAskProvider is the calcjson.NodeConstructor for AskProvider.
func DecodeAskProvider(params json.RawMessage) (calcgraph.AtomicNode, error) {
	var p AskProvider
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// BidProvider mirrors AskProvider for the Bid attribute.
type BidProvider struct {
	NodeName   string
	Instrument string
	Source     string
	Value      decimal.Decimal
}

func (p BidProvider) Name() string                           { return p.NodeName }
func (p BidProvider) Inputs() []calcgraph.ResourceIdentifier { return nil }
func (p BidProvider) Outputs() []calcgraph.ResourceIdentifier {
	return []calcgraph.ResourceIdentifier{p.bidRID()}
}

func (p BidProvider) bidRID() Resource {
	return Resource{Instrument: p.Instrument, Source: p.Source, Attribute: Bid}
}

func (p BidProvider) ResolveDependencies(calcgraph.Snapshot, map[string]calcgraph.Result) []calcgraph.ResourceIdentifier {
	return nil
}

func (p BidProvider) Compute(calcgraph.Snapshot, map[string]calcgraph.Result) map[string]calcgraph.Result {
	return map[string]calcgraph.Result{
		p.bidRID().ResourceKey(): calcgraph.Success(p.Value),
	}
}

const bidProviderTag = "money.BidProvider"

func (p BidProvider) EncodeTag() string { return bidProviderTag }

func (p BidProvider) EncodeParams() (json.RawMessage, error) {
	return json.Marshal(p)
}

// DecodeBidProvider is the calcjson.NodeConstructor for BidProvider.
func DecodeBidProvider(params json.RawMessage) (calcgraph.AtomicNode, error) {
	var p BidProvider
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// HardcodeAttributeProvider is a constant-value leaf for an arbitrary
// attribute, used where a worked example needs a value decoupled from any
// real Ask/Bid feed (e.g. S2's hardcoded Bid override).
type HardcodeAttributeProvider struct {
	NodeName   string
	Instrument string
	Source     string
	Attribute  Attribute
	Value      decimal.Decimal
}

func (p HardcodeAttributeProvider) Name() string { return p.NodeName }

func (p HardcodeAttributeProvider) rid() Resource {
	return Resource{Instrument: p.Instrument, Source: p.Source, Attribute: p.Attribute}
}

func (p HardcodeAttributeProvider) Inputs() []calcgraph.ResourceIdentifier { return nil }

func (p HardcodeAttributeProvider) Outputs() []calcgraph.ResourceIdentifier {
	return []calcgraph.ResourceIdentifier{p.rid()}
}

func (p HardcodeAttributeProvider) ResolveDependencies(calcgraph.Snapshot, map[string]calcgraph.Result) []calcgraph.ResourceIdentifier {
	return nil
}

func (p HardcodeAttributeProvider) Compute(calcgraph.Snapshot, map[string]calcgraph.Result) map[string]calcgraph.Result {
	return map[string]calcgraph.Result{
		p.rid().ResourceKey(): calcgraph.Success(p.Value),
	}
}

const hardcodeAttributeProviderTag = "money.HardcodeAttributeProvider"

func (p HardcodeAttributeProvider) EncodeTag() string { return hardcodeAttributeProviderTag }

func (p HardcodeAttributeProvider) EncodeParams() (json.RawMessage, error) {
	return json.Marshal(p)
}

// DecodeHardcodeAttributeProvider is the calcjson.NodeConstructor for
// HardcodeAttributeProvider.
func DecodeHardcodeAttributeProvider(params json.RawMessage) (calcgraph.AtomicNode, error) {
	var p HardcodeAttributeProvider
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return p, nil
}

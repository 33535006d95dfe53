// Package money is the worked domain example named throughout the
// calculation engine's design: financial pricing attributes keyed by
// instrument, data source, and attribute type, carried as
// shopspring/decimal values so the monetary path never touches float64.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/vincentzz/nodeengin-sub001"
)

// Attribute names the kind of value a Resource carries.
type Attribute string

const (
	Ask          Attribute = "Ask"
	Bid          Attribute = "Bid"
	MidPrice     Attribute = "MidPrice"
	Spread       Attribute = "Spread"
	MarkToMarket Attribute = "MarkToMarket"
)

// Resource is the (instrument, source, attribute) ResourceIdentifier used
// throughout the worked examples.
type Resource struct {
	Instrument string
	Source     string
	Attribute  Attribute
}

// ResourceKey implements calcgraph.ResourceIdentifier.
func (r Resource) ResourceKey() string {
	return fmt.Sprintf("%s|%s|%s", r.Instrument, r.Source, r.Attribute)
}

func (r Resource) String() string { return r.ResourceKey() }

const ridTag = "money.Resource"

// EncodeRIDTag implements calcjson.RIDEncoder.
func (r Resource) EncodeRIDTag() string { return ridTag }

// EncodeRIDParams implements calcjson.RIDEncoder.
func (r Resource) EncodeRIDParams() (json.RawMessage, error) {
	return json.Marshal(r)
}

// DecodeResource is the calcjson.RIDConstructor for Resource; register it
// against ridTag on every NodeTypeRegistry used to serialize a graph built
// from this package.
func DecodeResource(params json.RawMessage) (calcgraph.ResourceIdentifier, error) {
	var r Resource
	if err := json.Unmarshal(params, &r); err != nil {
		return nil, err
	}
	return r, nil
}

// RIDTag exposes ridTag for registration call sites.
func RIDTag() string { return ridTag }

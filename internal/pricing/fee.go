package pricing

import "math"

// AnchorValues are the property values shown on the public pricing table.
var AnchorValues = []float64{150000, 300000, 500000, 800000, 1000000}

// Comparison is the fee of every sale channel for one property value.
type Comparison struct {
	PropertyValue    float64 `json:"property_value"`
	PlatformFee      float64 `json:"platform_fee"`
	AgencyFee        float64 `json:"agency_fee"`
	NeoAgencyFee     float64 `json:"neo_agency_fee"`
	MandatedAgentFee float64 `json:"mandated_agent_fee"`
	PrivateSaleCost  float64 `json:"private_sale_cost"`
	Savings          float64 `json:"savings"`
	SavingsPercent   int     `json:"savings_percent"`
	FeePercent       float64 `json:"fee_percent"`
}

// PlatformFee applies the tier table. Values under the first tier resolve to
// the first tier's fee; values at or above the top bound pay the top fee plus
// the excess rate on what exceeds it.
func (s Schedule) PlatformFee(value float64) float64 {
	p := s.Platform
	if value >= p.TopBound {
		return roundCents(p.TopFee + p.ExcessRate*(value-p.TopBound))
	}
	for _, t := range p.Tiers {
		if t.contains(value) {
			return t.Fee
		}
	}
	return p.Tiers[0].Fee
}

func (s Schedule) neoAgencyFee(value float64) float64 {
	for _, t := range s.NeoAgencyTiers {
		if t.contains(value) {
			return t.Fee
		}
	}
	if value < s.NeoAgencyTiers[0].From {
		return s.NeoAgencyTiers[0].Fee
	}
	return s.NeoAgencyTiers[len(s.NeoAgencyTiers)-1].Fee
}

// Compare computes the fee of every channel for value.
func (s Schedule) Compare(value float64) Comparison {
	c := Comparison{
		PropertyValue:    value,
		PlatformFee:      s.PlatformFee(value),
		AgencyFee:        roundCents(value * s.AgencyRate),
		NeoAgencyFee:     s.neoAgencyFee(value),
		MandatedAgentFee: roundCents(value * s.MandatedAgentRate),
		PrivateSaleCost:  s.PrivateSaleCost,
	}
	c.Savings = roundCents(c.AgencyFee - c.PlatformFee)
	c.SavingsPercent = SavingsPercent(c.AgencyFee, c.PlatformFee)
	if value > 0 {
		c.FeePercent = math.Round(c.PlatformFee/value*10000) / 100
	}
	return c
}

// Anchors returns the comparison at every public anchor value.
func (s Schedule) Anchors() []Comparison {
	out := make([]Comparison, len(AnchorValues))
	for i, v := range AnchorValues {
		out[i] = s.Compare(v)
	}
	return out
}

// SavingsPercent is (agency - platform) / agency * 100 truncated toward zero.
func SavingsPercent(agencyFee, platformFee float64) int {
	if agencyFee == 0 {
		return 0
	}
	pct := (agencyFee - platformFee) / agencyFee * 100
	// absorb float noise such as 59.99999999999999
	return int(math.Trunc(pct + math.Copysign(1e-9, pct)))
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

package pricing

import (
	"errors"
	"fmt"
)

// Tier is a flat fee applied to values in [From, To). A zero To means unbounded.
type Tier struct {
	From float64 `yaml:"from" json:"from"`
	To   float64 `yaml:"to" json:"to"`
	Fee  float64 `yaml:"fee" json:"fee"`
}

func (t Tier) contains(value float64) bool {
	return value >= t.From && (t.To == 0 || value < t.To)
}

// PlatformSchedule is the step function used for the platform's own fee.
type PlatformSchedule struct {
	Tiers      []Tier  `yaml:"tiers" json:"tiers"`
	TopBound   float64 `yaml:"top_bound" json:"top_bound"`
	TopFee     float64 `yaml:"top_fee" json:"top_fee"`
	ExcessRate float64 `yaml:"excess_rate" json:"excess_rate"`
}

// Schedule holds the platform tiers and the rates of the channels it is compared to.
type Schedule struct {
	Platform          PlatformSchedule `yaml:"platform" json:"platform"`
	AgencyRate        float64          `yaml:"agency_rate" json:"agency_rate"`
	NeoAgencyTiers    []Tier           `yaml:"neo_agency_tiers" json:"neo_agency_tiers"`
	MandatedAgentRate float64          `yaml:"mandated_agent_rate" json:"mandated_agent_rate"`
	PrivateSaleCost   float64          `yaml:"private_sale_cost" json:"private_sale_cost"`
}

// DefaultSchedule returns the published fee grid.
func DefaultSchedule() Schedule {
	return Schedule{
		Platform: PlatformSchedule{
			Tiers: []Tier{
				{From: 150000, To: 300000, Fee: 2500},
				{From: 300000, To: 500000, Fee: 4000},
				{From: 500000, To: 800000, Fee: 6000},
				{From: 800000, To: 1000000, Fee: 8000},
			},
			TopBound:   1000000,
			TopFee:     10000,
			ExcessRate: 0.01,
		},
		AgencyRate: 0.03,
		NeoAgencyTiers: []Tier{
			{From: 0, To: 250000, Fee: 5900},
			{From: 250000, To: 500000, Fee: 7900},
			{From: 500000, Fee: 9900},
		},
		MandatedAgentRate: 0.025,
		PrivateSaleCost:   1500,
	}
}

var ErrInvalidSchedule = errors.New("invalid fee schedule")

// Validate checks that platform tiers are ascending, contiguous and end at the top bound.
func (s Schedule) Validate() error {
	tiers := s.Platform.Tiers
	if len(tiers) == 0 {
		return fmt.Errorf("%w: no platform tiers", ErrInvalidSchedule)
	}
	for i, t := range tiers {
		if t.To <= t.From {
			return fmt.Errorf("%w: platform tier %d has empty range", ErrInvalidSchedule, i)
		}
		if i > 0 && t.From != tiers[i-1].To {
			return fmt.Errorf("%w: platform tier %d does not start where tier %d ends", ErrInvalidSchedule, i, i-1)
		}
	}
	if last := tiers[len(tiers)-1]; last.To != s.Platform.TopBound {
		return fmt.Errorf("%w: last platform tier must end at top bound %.0f", ErrInvalidSchedule, s.Platform.TopBound)
	}
	if s.Platform.ExcessRate < 0 || s.AgencyRate < 0 || s.MandatedAgentRate < 0 {
		return fmt.Errorf("%w: rates must not be negative", ErrInvalidSchedule)
	}
	if len(s.NeoAgencyTiers) == 0 {
		return fmt.Errorf("%w: no neo-agency tiers", ErrInvalidSchedule)
	}
	return nil
}

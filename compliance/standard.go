package compliance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/compliance-engine/generic"
)

// =============================================================================
// STANDARD - The compliance option a property elected
// =============================================================================

// StandardKind names one of the closed set of compliance options.
type StandardKind string

const (
	// 20% of units at 50% AMI, 55% at 80% AMI, remainder market.
	Standard2050_5580 StandardKind = "20% at 50% AMI, 55% at 80% AMI"

	// 40% of units at 60% AMI, 35% at 80% AMI, remainder market.
	Standard4060_3580 StandardKind = "40% at 60% AMI, 35% at 80% AMI"

	// Every unit at 80% AMI.
	Standard100_80 StandardKind = "100% at 80% AMI"

	// A configured share at 80% AMI, remainder market.
	StandardCustom80 StandardKind = "Custom % at 80% AMI"
)

// Standard is a compliance option plus its parameter. CustomPercent is only
// meaningful for StandardCustom80 and is expressed in percent (e.g. 65).
type Standard struct {
	Kind          StandardKind    `json:"kind"`
	CustomPercent decimal.Decimal `json:"customPercent"`
}

var (
	tiers5080 = []Tier{Tier50, Tier80}
	tiers6080 = []Tier{Tier60, Tier80}
	tiers80   = []Tier{Tier80}
)

// Tiers returns the standard's AMI tiers, most restrictive first.
func (s Standard) Tiers() []Tier {
	switch s.Kind {
	case Standard2050_5580:
		return tiers5080
	case Standard4060_3580:
		return tiers6080
	case Standard100_80, StandardCustom80:
		return tiers80
	default:
		return nil
	}
}

// TierBuckets returns Tiers() as bucket labels.
func (s Standard) TierBuckets() []Bucket {
	tiers := s.Tiers()
	out := make([]Bucket, len(tiers))
	for i, t := range tiers {
		out[i] = t.Bucket()
	}
	return out
}

// Valid reports whether the kind is recognized.
func (s Standard) Valid() bool {
	return s.Tiers() != nil
}

func (s Standard) String() string {
	if s.Kind == StandardCustom80 {
		return fmt.Sprintf("%s%% at 80%% AMI", s.CustomPercent.String())
	}
	return string(s.Kind)
}

// =============================================================================
// PARSING
// =============================================================================

// standardAliases maps normalized spellings onto kinds. Normalization strips
// spaces, "%", "ami" and punctuation so "20/50, 55/80" and
// "20% at 50% AMI, 55% at 80% AMI" land on the same key.
var standardAliases = map[string]StandardKind{
	"20at5055at80": Standard2050_5580,
	"2050_5580":    Standard2050_5580,
	"20505580":     Standard2050_5580,
	"40at6035at80": Standard4060_3580,
	"4060_3580":    Standard4060_3580,
	"40603580":     Standard4060_3580,
	"100at80":      Standard100_80,
	"100_80":       Standard100_80,
	"10080":        Standard100_80,
	"customat80":   StandardCustom80,
	"custom":       StandardCustom80,
	"custom80":     StandardCustom80,
}

var standardNoise = strings.NewReplacer(" ", "", "%", "", "ami", "", ",", "", "/", "", "-", "", ".", "")

// ParseStandard resolves a compliance option name. customPercent is required
// for the custom variant and ignored otherwise.
func ParseStandard(name string, customPercent *decimal.Decimal) (Standard, error) {
	key := standardNoise.Replace(strings.ToLower(strings.TrimSpace(name)))
	kind, ok := standardAliases[key]
	if !ok {
		if k, found := standardAliases[strings.ReplaceAll(key, "_", "")]; found {
			kind, ok = k, true
		}
	}
	if !ok {
		return Standard{}, fmt.Errorf("%w: %q", generic.ErrUnknownStandard, name)
	}

	std := Standard{Kind: kind}
	if kind == StandardCustom80 {
		if customPercent == nil {
			return Standard{}, fmt.Errorf("%w: %q requires a percentage", generic.ErrUnknownStandard, name)
		}
		std.CustomPercent = *customPercent
	}
	return std, nil
}

// MustParseStandard panics on an unknown name. For tests and fixtures.
func MustParseStandard(name string) Standard {
	s, err := ParseStandard(name, nil)
	if err != nil {
		panic(err)
	}
	return s
}

// CustomStandard builds the custom-percentage variant.
func CustomStandard(percent decimal.Decimal) Standard {
	return Standard{Kind: StandardCustom80, CustomPercent: percent}
}

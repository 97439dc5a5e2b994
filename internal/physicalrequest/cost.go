package physicalrequest

import (
	"sort"
	"strings"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
)

type ShippingTier string

const (
	TierMetro    ShippingTier = "metro"
	TierStandard ShippingTier = "standard"
	TierRemote   ShippingTier = "remote"
)

// DefaultTierPrefixes maps postal code prefixes to shipping tiers.
// 0,1: 서울/경기, 21~23: 인천, 63: 제주, 231: 옹진 도서, 402: 울릉
var DefaultTierPrefixes = map[string]ShippingTier{
	"0":   TierMetro,
	"1":   TierMetro,
	"21":  TierMetro,
	"22":  TierMetro,
	"23":  TierMetro,
	"63":  TierRemote,
	"231": TierRemote,
	"402": TierRemote,
}

type Cost struct {
	Tier         ShippingTier
	ShippingCost int64
	LetterCost   int64
	TotalCost    int64
}

type tierPrefix struct {
	prefix string
	tier   ShippingTier
}

// CostCalculator prices a request from its normalized postal code.
// The longest matching prefix wins; unmatched codes use the standard tier.
type CostCalculator struct {
	letterCost int64
	prices     map[ShippingTier]int64
	prefixes   []tierPrefix
}

func NewCostCalculator(cfg config.PhysicalConfig) *CostCalculator {
	return NewCostCalculatorWithPrefixes(cfg, DefaultTierPrefixes)
}

func NewCostCalculatorWithPrefixes(cfg config.PhysicalConfig, table map[string]ShippingTier) *CostCalculator {
	prefixes := make([]tierPrefix, 0, len(table))
	for prefix, tier := range table {
		prefixes = append(prefixes, tierPrefix{prefix: prefix, tier: tier})
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i].prefix) != len(prefixes[j].prefix) {
			return len(prefixes[i].prefix) > len(prefixes[j].prefix)
		}
		return prefixes[i].prefix < prefixes[j].prefix
	})

	return &CostCalculator{
		letterCost: cfg.LetterCost,
		prices: map[ShippingTier]int64{
			TierMetro:    cfg.ShippingCostMetro,
			TierStandard: cfg.ShippingCostStandard,
			TierRemote:   cfg.ShippingCostRemote,
		},
		prefixes: prefixes,
	}
}

func (c *CostCalculator) Tier(postalCode string) ShippingTier {
	for _, p := range c.prefixes {
		if strings.HasPrefix(postalCode, p.prefix) {
			return p.tier
		}
	}
	return TierStandard
}

func (c *CostCalculator) Price(postalCode string) Cost {
	tier := c.Tier(postalCode)
	shipping := c.prices[tier]
	return Cost{
		Tier:         tier,
		ShippingCost: shipping,
		LetterCost:   c.letterCost,
		TotalCost:    shipping + c.letterCost,
	}
}

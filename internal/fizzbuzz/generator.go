package fizzbuzz

import "strconv"

// Generator produces sequences by applying rules in factory order.
type Generator struct {
	factory RuleFactory
}

// NewGenerator constructs a generator. A nil factory defaults to the
// standard rule set.
func NewGenerator(factory RuleFactory) *Generator {
	if factory == nil {
		factory = DefaultRuleFactory{}
	}
	return &Generator{factory: factory}
}

// Generate returns one string per integer in [Start, Limit]. The first
// matching rule wins, even when its replacement is empty; the decimal form of
// the number is the fallback only when no rule applies. An inverted range
// yields an empty sequence.
func (g *Generator) Generate(req Request) []string {
	if req.Start > req.Limit {
		return []string{}
	}

	rules := g.factory.CreateRules(req)
	result := make([]string, 0, req.Limit-req.Start+1)

	for i := req.Start; i <= req.Limit; i++ {
		matched := false
		for _, rule := range rules {
			if rule.AppliesTo(i) {
				result = append(result, rule.Replacement())
				matched = true
				break
			}
		}
		if !matched {
			result = append(result, strconv.Itoa(i))
		}
	}

	return result
}

package fizzbuzz

// RuleFactory builds the ordered rule set for a request.
type RuleFactory interface {
	CreateRules(req Request) []Rule
}

// DefaultRuleFactory produces the standard rule ordering. The combined rule
// comes first so that multiples of both divisors never also match the single
// rules; generation applies the first matching rule only.
type DefaultRuleFactory struct{}

var _ RuleFactory = DefaultRuleFactory{}

func (DefaultRuleFactory) CreateRules(req Request) []Rule {
	return []Rule{
		NewCombinedDivisorRule(req.Divisor1, req.Divisor2, req.Str1+req.Str2),
		NewDivisorRule(req.Divisor1, req.Str1),
		NewDivisorRule(req.Divisor2, req.Str2),
	}
}

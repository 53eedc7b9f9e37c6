package fizzbuzz

// Rule decides whether a number should be replaced and with what.
type Rule interface {
	AppliesTo(n int) bool
	Replacement() string
}

// DivisorRule replaces multiples of a single divisor. A divisor of zero
// matches only zero itself, which avoids a modulo-by-zero while keeping the
// rule total over all inputs.
type DivisorRule struct {
	divisor     int
	replacement string
}

// NewDivisorRule constructs a single-divisor rule.
func NewDivisorRule(divisor int, replacement string) DivisorRule {
	return DivisorRule{divisor: divisor, replacement: replacement}
}

func (r DivisorRule) AppliesTo(n int) bool {
	if r.divisor == 0 {
		return n == 0
	}
	return n%r.divisor == 0
}

func (r DivisorRule) Replacement() string { return r.replacement }

// CombinedDivisorRule replaces numbers divisible by both divisors. The zero
// policy extends: if either divisor is zero, only zero matches.
type CombinedDivisorRule struct {
	divisor1    int
	divisor2    int
	replacement string
}

// NewCombinedDivisorRule constructs a both-divisors rule.
func NewCombinedDivisorRule(divisor1, divisor2 int, replacement string) CombinedDivisorRule {
	return CombinedDivisorRule{divisor1: divisor1, divisor2: divisor2, replacement: replacement}
}

func (r CombinedDivisorRule) AppliesTo(n int) bool {
	if r.divisor1 == 0 || r.divisor2 == 0 {
		return n == 0
	}
	return n%r.divisor1 == 0 && n%r.divisor2 == 0
}

func (r CombinedDivisorRule) Replacement() string { return r.replacement }

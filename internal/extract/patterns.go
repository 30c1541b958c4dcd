package extract

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/claimsiqhq/claimfix/internal/model"
)

// DefaultPatternVersion identifies the built-in pattern table.
// Bump it whenever a pattern changes so cached extractions are invalidated.
const DefaultPatternVersion = "2024.2"

// PatternSet is an immutable, versioned table of ordered patterns per field.
// Every pattern has exactly one capture group holding the value.
type PatternSet struct {
	version  string
	patterns map[model.Field][]*regexp.Regexp
}

// NewPatternSet compiles a pattern table.
// Fields missing from the table are never extracted.
func NewPatternSet(version string, table map[model.Field][]string) (*PatternSet, error) {
	if version == "" {
		return nil, fmt.Errorf("pattern set requires a version")
	}

	compiled := make(map[model.Field][]*regexp.Regexp, len(table))
	for field, exprs := range table {
		if _, err := model.ParseField(string(field)); err != nil {
			return nil, fmt.Errorf("compile pattern set %s: %w", version, err)
		}
		for i, expr := range exprs {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %s[%d]: %w", field, i, err)
			}
			if re.NumSubexp() < 1 {
				return nil, fmt.Errorf("compile pattern %s[%d]: no capture group", field, i)
			}
			compiled[field] = append(compiled[field], re)
		}
	}

	return &PatternSet{version: version, patterns: compiled}, nil
}

// Version returns the pattern table version
func (p *PatternSet) Version() string {
	return p.version
}

// For returns the ordered patterns for a field
func (p *PatternSet) For(field model.Field) []*regexp.Regexp {
	src := p.patterns[field]
	out := make([]*regexp.Regexp, len(src))
	copy(out, src)
	return out
}

var (
	defaultPatterns     *PatternSet
	defaultPatternsOnce sync.Once
)

// DefaultPatterns returns the built-in pattern set for US property claim documents
func DefaultPatterns() *PatternSet {
	defaultPatternsOnce.Do(func() {
		ps, err := NewPatternSet(DefaultPatternVersion, defaultTable)
		if err != nil {
			panic(fmt.Sprintf("extract: built-in patterns: %v", err))
		}
		defaultPatterns = ps
	})
	return defaultPatterns
}

// Shared value shapes
const (
	identValue   = `([A-Z0-9][A-Z0-9\-]{3,})`
	nameValue    = `([A-Za-z][A-Za-z.'\-]*(?:[ \t]+[A-Za-z][A-Za-z.'\-]*){1,3})`
	phoneValue   = `(\+?[\d(][\d \t().\-]{5,}\d)`
	emailValue   = `([^\s,;:<>]+@[^\s,;:<>]*[^\s,;:<>.])`
	amountValue  = `(\$?[ \t]*\d[\d,]*(?:\.\d{1,2})?)`
	addressValue = `([^\n]{5,120})`
	dateValue    = `(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}|\d{4}-\d{2}-\d{2}|[A-Za-z]{3,9}\.?[ \t]+\d{1,2},?[ \t]+\d{4})`
)

var defaultTable = map[model.Field][]string{
	model.FieldClaimNumber: {
		`(?i:claim[ \t]*(?:number|no\b\.?|#))[ \t]*[:#]?[ \t]*` + identValue,
		`(?i:\bclaim)[ \t]*:[ \t]*` + identValue,
		`\b(CLM-\d{4}-\d+)\b`,
	},
	model.FieldPolicyNumber: {
		`(?i:policy[ \t]*(?:number|no\b\.?|#))[ \t]*[:#]?[ \t]*` + identValue,
		`(?i:\bpolicy)[ \t]*:[ \t]*` + identValue,
	},
	model.FieldInsuredName: {
		`(?i)(?:insured|policyholder)(?:[ \t]+name)?[ \t]*:[ \t]*` + nameValue,
		`(?i)named[ \t]+insured[ \t]*:?[ \t]*` + nameValue,
	},
	model.FieldAdjusterName: {
		`(?i)adjuster(?:[ \t]+name)?[ \t]*:[ \t]*` + nameValue,
		`(?i)adjusted[ \t]+by[ \t]*:?[ \t]*` + nameValue,
	},
	model.FieldDateOfLoss: {
		`(?i)(?:date[ \t]+of[ \t]+loss|loss[ \t]+date|\bDOL\b)[ \t]*:?[ \t]*` + dateValue,
	},
	model.FieldInsuredPhone: {
		`(?i)insured[ \t]+(?:phone|tel(?:ephone)?)(?:[ \t]+(?:number|no\.?))?[ \t]*:?[ \t]*` + phoneValue,
		`(?i)(?:home|cell|mobile)[ \t]+phone[ \t]*:?[ \t]*` + phoneValue,
	},
	model.FieldAdjusterPhone: {
		`(?i)adjuster[ \t]+(?:phone|tel(?:ephone)?)(?:[ \t]+(?:number|no\.?))?[ \t]*:?[ \t]*` + phoneValue,
	},
	model.FieldInsuredEmail: {
		`(?i)insured[ \t]+e-?mail(?:[ \t]+address)?[ \t]*:?[ \t]*` + emailValue,
	},
	model.FieldAdjusterEmail: {
		`(?i)adjuster[ \t]+e-?mail(?:[ \t]+address)?[ \t]*:?[ \t]*` + emailValue,
	},
	model.FieldPropertyAddress: {
		`(?i)(?:property|loss|risk)[ \t]+(?:address|location)[ \t]*:?[ \t]*` + addressValue,
		`(?im)^[ \t]*(?:mailing[ \t]+)?address[ \t]*:[ \t]*` + addressValue,
	},
	model.FieldLossAmount: {
		`(?i)(?:loss[ \t]+amount|amount[ \t]+of[ \t]+loss|total[ \t]+loss|claimed[ \t]+amount)[ \t]*:?[ \t]*` + amountValue,
	},
	model.FieldPaymentAmount: {
		`(?i)(?:payment[ \t]+amount|amount[ \t]+paid|net[ \t]+payment)[ \t]*:?[ \t]*` + amountValue,
	},
	model.FieldDeductible: {
		`(?i)deductible(?:[ \t]+amount)?[ \t]*:?[ \t]*` + amountValue,
	},
}

package rule

import (
	"strconv"
	"strings"

	"github.com/sigmaquant/ruleback/internal/indicator"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

// Parse parses rule text into a rule tree. The grammar is case-sensitive and
// whitespace-insensitive; all keywords are uppercase function-call forms,
// e.g.
//
//	CROSS_ABOVE(SMA(20), SMA(50))
//	AND(ABOVE(RSI(14), 50), BETWEEN(CLOSE, 10, 200))
//	CONSECUTIVE(BELOW(CLOSE, BOLLINGER(20,2).LOWER), 3)
//
// On failure it returns a *errors.ParseError carrying the byte offset of the
// offending input. Trailing input after a complete rule is an error.
func Parse(input string) (Rule, error) {
	p := &parser{input: input}

	rule, err := p.parseRule()
	if err != nil {
		return nil, err
	}

	p.skipSpace()

	if p.pos < len(p.input) {
		return nil, errors.NewParseError(input, p.pos, "unexpected trailing input")
	}

	return rule, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) parseRule() (Rule, error) {
	p.skipSpace()
	start := p.pos

	keyword, err := p.scanIdent("expected a rule keyword")
	if err != nil {
		return nil, err
	}

	switch keyword {
	case "CROSS_ABOVE", "CROSS_BELOW", "ABOVE", "BELOW", "EQUALS":
		return p.parseComparison(CompareOp(keyword))
	case "BETWEEN":
		return p.parseBetween()
	case "AND", "OR":
		return p.parseBoolean(keyword)
	case "NOT":
		return p.parseNot()
	case "CONSECUTIVE", "ANY_OF":
		return p.parseTemporal(keyword)
	default:
		return nil, errors.NewParseErrorf(p.input, start, "unknown rule keyword %q", keyword)
	}
}

func (p *parser) parseComparison(op CompareOp) (Rule, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if err := p.expect(','); err != nil {
		return nil, err
	}

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return &Comparison{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseBetween() (Rule, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}

	operand, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if err := p.expect(','); err != nil {
		return nil, err
	}

	lower, err := p.scanNumber()
	if err != nil {
		return nil, err
	}

	if err := p.expect(','); err != nil {
		return nil, err
	}

	upper, err := p.scanNumber()
	if err != nil {
		return nil, err
	}

	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return &Between{Operand: operand, Lower: lower, Upper: upper}, nil
}

func (p *parser) parseBoolean(keyword string) (Rule, error) {
	start := p.pos

	if err := p.expect('('); err != nil {
		return nil, err
	}

	var children []Rule

	for {
		child, err := p.parseRule()
		if err != nil {
			return nil, err
		}

		children = append(children, child)

		p.skipSpace()

		if p.peek() == ',' {
			p.pos++
			continue
		}

		break
	}

	if err := p.expect(')'); err != nil {
		return nil, err
	}

	if len(children) < 2 {
		return nil, errors.NewParseErrorf(p.input, start, "%s requires at least two children", keyword)
	}

	if keyword == "AND" {
		return &And{Children: children}, nil
	}

	return &Or{Children: children}, nil
}

func (p *parser) parseNot() (Rule, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}

	child, err := p.parseRule()
	if err != nil {
		return nil, err
	}

	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return &Not{Child: child}, nil
}

func (p *parser) parseTemporal(keyword string) (Rule, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}

	child, err := p.parseRule()
	if err != nil {
		return nil, err
	}

	if err := p.expect(','); err != nil {
		return nil, err
	}

	p.skipSpace()
	nStart := p.pos

	n, err := p.scanInt()
	if err != nil {
		return nil, err
	}

	if n < 1 {
		return nil, errors.NewParseErrorf(p.input, nStart, "%s window must be at least 1, got %d", keyword, n)
	}

	if err := p.expect(')'); err != nil {
		return nil, err
	}

	if keyword == "CONSECUTIVE" {
		return &Consecutive{Child: child, N: n}, nil
	}

	return &AnyOf{Child: child, N: n}, nil
}

func (p *parser) parseOperand() (Operand, error) {
	p.skipSpace()
	start := p.pos

	if c := p.peek(); c == '-' || c == '+' || isDigit(c) {
		value, err := p.scanNumber()
		if err != nil {
			return Operand{}, err
		}

		return Const(value), nil
	}

	name, err := p.scanIdent("expected an operand")
	if err != nil {
		return Operand{}, err
	}

	switch name {
	case "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME":
		return Price(OperandKind(name)), nil
	}

	desc, err := p.parseDescriptor(name, start)
	if err != nil {
		return Operand{}, err
	}

	p.skipSpace()

	if p.peek() != '.' {
		return Indicator(desc), nil
	}

	p.pos++
	fieldStart := p.pos

	field, err := p.scanIdent("expected an indicator field name")
	if err != nil {
		return Operand{}, err
	}

	fieldName := strings.ToLower(field)
	if !desc.HasField(fieldName) {
		return Operand{}, errors.NewParseErrorf(p.input, fieldStart, "%s has no field %q", desc, field)
	}

	return IndicatorField(desc, fieldName), nil
}

// parseDescriptor parses the parenthesized parameter list for the indicator
// kind named by name, whose text began at start.
func (p *parser) parseDescriptor(name string, start int) (indicator.Descriptor, error) {
	var desc indicator.Descriptor

	switch indicator.IndicatorType(name) {
	case indicator.IndicatorTypeOBV, indicator.IndicatorTypeVWAP, indicator.IndicatorTypePivot:
		if err := p.expect('('); err != nil {
			return desc, err
		}

		if err := p.expect(')'); err != nil {
			return desc, err
		}

		desc = indicator.Descriptor{Kind: indicator.IndicatorType(name)}
	case indicator.IndicatorTypeMACD:
		params, err := p.scanIntParams(3)
		if err != nil {
			return desc, err
		}

		desc = indicator.MACD(params[0], params[1], params[2])
	case indicator.IndicatorTypeStochastic:
		params, err := p.scanIntParams(2)
		if err != nil {
			return desc, err
		}

		desc = indicator.Stochastic(params[0], params[1])
	case indicator.IndicatorTypeBollinger:
		if err := p.expect('('); err != nil {
			return desc, err
		}

		period, err := p.scanInt()
		if err != nil {
			return desc, err
		}

		if err := p.expect(','); err != nil {
			return desc, err
		}

		multiplier, err := p.scanNumber()
		if err != nil {
			return desc, err
		}

		if err := p.expect(')'); err != nil {
			return desc, err
		}

		desc = indicator.Bollinger(period, multiplier)
	case indicator.IndicatorTypeSMA, indicator.IndicatorTypeEMA, indicator.IndicatorTypeWMA,
		indicator.IndicatorTypeRSI, indicator.IndicatorTypeROC, indicator.IndicatorTypeATR,
		indicator.IndicatorTypeStdDev:
		params, err := p.scanIntParams(1)
		if err != nil {
			return desc, err
		}

		desc = indicator.Descriptor{Kind: indicator.IndicatorType(name), Period: params[0]}
	default:
		return desc, errors.NewParseErrorf(p.input, start, "unknown operand %q", name)
	}

	if err := desc.Validate(); err != nil {
		return desc, errors.NewParseErrorf(p.input, start, "invalid indicator parameters: %v", err)
	}

	return desc, nil
}

func (p *parser) scanIntParams(count int) ([]int, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}

	params := make([]int, count)

	for i := 0; i < count; i++ {
		if i > 0 {
			if err := p.expect(','); err != nil {
				return nil, err
			}
		}

		value, err := p.scanInt()
		if err != nil {
			return nil, err
		}

		params[i] = value
	}

	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return params, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// peek returns the next byte without consuming it, or 0 at end of input.
func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}

	return p.input[p.pos]
}

func (p *parser) expect(c byte) error {
	p.skipSpace()

	if p.peek() != c {
		return errors.NewParseErrorf(p.input, p.pos, "expected %q", string(c))
	}

	p.pos++

	return nil
}

// scanIdent scans an uppercase identifier ([A-Z][A-Z0-9_]*). Lowercase input
// fails here, which is what makes the grammar case-sensitive.
func (p *parser) scanIdent(expectation string) (string, error) {
	p.skipSpace()
	start := p.pos

	if c := p.peek(); c < 'A' || c > 'Z' {
		return "", errors.NewParseError(p.input, p.pos, expectation)
	}

	p.pos++

	for {
		c := p.peek()
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			p.pos++
			continue
		}

		break
	}

	return p.input[start:p.pos], nil
}

func (p *parser) scanInt() (int, error) {
	p.skipSpace()
	start := p.pos

	for isDigit(p.peek()) {
		p.pos++
	}

	if start == p.pos {
		return 0, errors.NewParseError(p.input, start, "expected an integer")
	}

	value, err := strconv.Atoi(p.input[start:p.pos])
	if err != nil {
		return 0, errors.NewParseErrorf(p.input, start, "invalid integer %q", p.input[start:p.pos])
	}

	return value, nil
}

func (p *parser) scanNumber() (float64, error) {
	p.skipSpace()
	start := p.pos

	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}

	for isDigit(p.peek()) {
		p.pos++
	}

	if p.peek() == '.' {
		p.pos++
		for isDigit(p.peek()) {
			p.pos++
		}
	}

	if c := p.peek(); c == 'e' || c == 'E' {
		p.pos++

		if c := p.peek(); c == '-' || c == '+' {
			p.pos++
		}

		for isDigit(p.peek()) {
			p.pos++
		}
	}

	text := p.input[start:p.pos]

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, errors.NewParseError(p.input, start, "expected a number")
	}

	return value, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

package rule

import (
	"fmt"
	"strconv"
	"strings"
)

// The String methods render the canonical serialization of the grammar:
// uppercase function-call forms with ", " between arguments. Parse
// round-trips this form exactly.

func (o Operand) String() string {
	switch o.Kind {
	case OperandConst:
		return formatNumber(o.Value)
	case OperandIndicator:
		if o.Field != "" && o.Field != o.Indicator.DefaultField() {
			return fmt.Sprintf("%s.%s", o.Indicator, strings.ToUpper(o.Field))
		}

		return o.Indicator.String()
	default:
		return string(o.Kind)
	}
}

func (r *Comparison) String() string {
	return fmt.Sprintf("%s(%s, %s)", r.Op, r.Left, r.Right)
}

func (r *Between) String() string {
	return fmt.Sprintf("BETWEEN(%s, %s, %s)", r.Operand, formatNumber(r.Lower), formatNumber(r.Upper))
}

func (r *And) String() string {
	return fmt.Sprintf("AND(%s)", joinRules(r.Children))
}

func (r *Or) String() string {
	return fmt.Sprintf("OR(%s)", joinRules(r.Children))
}

func (r *Not) String() string {
	return fmt.Sprintf("NOT(%s)", r.Child)
}

func (r *Consecutive) String() string {
	return fmt.Sprintf("CONSECUTIVE(%s, %d)", r.Child, r.N)
}

func (r *AnyOf) String() string {
	return fmt.Sprintf("ANY_OF(%s, %d)", r.Child, r.N)
}

func joinRules(children []Rule) string {
	parts := make([]string, len(children))
	for i, child := range children {
		parts[i] = child.String()
	}

	return strings.Join(parts, ", ")
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}

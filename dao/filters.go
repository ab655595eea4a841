package dao

import "github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"

// Filter helpers shared by the entity DAOs. Each returns a condition
// suitable for QueryOptions.Filter; AndAll composes several of them.

// ContainsAny matches items whose list attribute contains at least one
// of the given values. It panics on an empty slice, so callers guard
// with their own presence checks.
func ContainsAny(attr string, values []string) expression.ConditionBuilder {
	cond := expression.Contains(expression.Name(attr), values[0])
	for _, v := range values[1:] {
		cond = cond.Or(expression.Contains(expression.Name(attr), v))
	}
	return cond
}

// InSet matches items whose scalar attribute equals one of the given
// values. It panics on an empty slice, so callers guard with their own
// presence checks.
func InSet(attr string, values []string) expression.ConditionBuilder {
	operands := make([]expression.OperandBuilder, len(values)-1)
	for i, v := range values[1:] {
		operands[i] = expression.Value(v)
	}
	return expression.Name(attr).In(expression.Value(values[0]), operands...)
}

// Equals matches items whose attribute equals the given value.
func Equals(attr string, value any) expression.ConditionBuilder {
	return expression.Name(attr).Equal(expression.Value(value))
}

// AndAll composes conditions with AND. It panics on an empty input, so
// callers guard with their own presence checks.
func AndAll(conds ...expression.ConditionBuilder) expression.ConditionBuilder {
	cond := conds[0]
	for _, c := range conds[1:] {
		cond = cond.And(c)
	}
	return cond
}

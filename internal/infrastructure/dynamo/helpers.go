package dynamo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// updateExpr is a ready-to-send UpdateItem expression.
type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts set/remove field lists into one
// "SET ... REMOVE ..." expression. Keys are sorted so the output is stable.
// A field listed in both is only set.
func buildUpdateExpr(set map[string]interface{}, remove []string) (updateExpr, error) {
	ue := updateExpr{
		Names:  make(map[string]string),
		Values: make(map[string]types.AttributeValue),
	}

	setKeys := make([]string, 0, len(set))
	for k := range set {
		setKeys = append(setKeys, k)
	}
	sort.Strings(setKeys)

	removeKeys := make([]string, 0, len(remove))
	for _, k := range remove {
		if _, alsoSet := set[k]; !alsoSet {
			removeKeys = append(removeKeys, k)
		}
	}
	sort.Strings(removeKeys)

	if len(setKeys) == 0 && len(removeKeys) == 0 {
		return updateExpr{}, fmt.Errorf("no fields to update")
	}

	i := 0
	var setParts, removeParts []string
	for _, k := range setKeys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(set[k])
		if err != nil {
			return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Names[nameKey] = k
		ue.Values[valueKey] = av
		setParts = append(setParts, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}
	for _, k := range removeKeys {
		nameKey := fmt.Sprintf("#f%d", i)
		ue.Names[nameKey] = k
		removeParts = append(removeParts, nameKey)
		i++
	}

	var b strings.Builder
	if len(setParts) > 0 {
		b.WriteString("SET ")
		b.WriteString(strings.Join(setParts, ", "))
	}
	if len(removeParts) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("REMOVE ")
		b.WriteString(strings.Join(removeParts, ", "))
	}
	ue.Expr = b.String()
	if len(ue.Values) == 0 {
		ue.Values = nil
	}
	return ue, nil
}

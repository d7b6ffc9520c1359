package schema

import (
	"github.com/ettle/strcase"
)

// NormalizeField converts a GraphQL field name to the snake case key used in
// records, "blockNumber" becomes "block_number" and "token0Price" becomes
// "token0_price". Digits stay attached to the word they follow.
func NormalizeField(in string) string {
	return fieldCaser.ToSnake(in)
}

var fieldCaser = strcase.NewCaser(false, nil, strcase.NewSplitFn(
	[]rune{'-', '_', '.'},
	strcase.SplitCase,
	strcase.SplitAcronym,
))

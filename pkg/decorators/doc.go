/*
Package decorators provides computed-field helpers for state trees.

Expression turns an expression string into a computed field evaluated with
github.com/expr-lang/expr against the state tree ("state"), the properties of the bound scope
and optional locals. Only the paths the expression references are read, so a field may refer
to other computed fields without evaluating the whole tree.

	tree := domain.Tree{
		"first": "Ada",
		"last":  "Lovelace",
		"full":  decorators.MustExpression(`state.first + " " + state.last`, nil),
	}

Substate nests a separately built descriptor inside a parent state; it is initialised the
first time the field is read.
*/
package decorators

// Package stdlib holds the F prelude, the library of list and numeric
// helpers written in F itself.
package stdlib

import _ "embed"

//go:embed prelude.fl
var Prelude string

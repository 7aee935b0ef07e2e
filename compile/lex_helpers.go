package compile

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/chayleaf/marwood/vm"
)

// stringCellFromLiteral unquotes a Go-syntax string token (text/scanner's
// ScanStrings mode accepts Go's escape rules, a superset of the \n \t \\
// \" escapes R7RS strings use) into a string VCell.
func stringCellFromLiteral(tok string) vm.VCell {
	s, err := strconv.Unquote(tok)
	if err != nil {
		// malformed escape: fall back to the raw text between quotes
		// rather than failing the whole read.
		s = strings.Trim(tok, `"`)
	}
	return vm.StringCell(vm.NewString(s))
}

func vectorCellOf(elems []vm.VCell) vm.VCell {
	return vm.VectorCell(vm.NewVector(elems))
}

// parseNumberToken parses an identifier- or digit-shaped token as a
// number. Unlike vm.parseNumber (used by string->number at runtime),
// this never accepts a bare "+"/"-"/"." as numeric, since those are the
// addition/subtraction procedure names and dotted-pair separator.
func parseNumberToken(tok string) (vm.Number, bool) {
	switch tok {
	case "+", "-", ".", "...":
		return vm.Number{}, false
	}
	if i, ok := new(big.Int).SetString(tok, 10); ok {
		return vm.NumberFromBigInt(i), true
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return vm.NumberFromFloat(f), true
	}
	return vm.Number{}, false
}

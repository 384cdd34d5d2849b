package parser

import "strconv"

// parseInt and parseFloat convert already-validated lexer literals (the
// lexer only ever hands INT/FLOAT tokens cleaned of `_` separators) to
// their numeric value; a conversion error here would be a lexer defect,
// not a user error, so the zero value is an acceptable fallback.
func parseInt(lexeme string) int64 {
	v, _ := strconv.ParseInt(lexeme, 10, 64)
	return v
}

func parseFloat(lexeme string) float64 {
	v, _ := strconv.ParseFloat(lexeme, 64)
	return v
}

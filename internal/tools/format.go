package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// FormatNumber renders a numeric result with exactly two fractional digits,
// rounding exact halves away from zero as JavaScript's toFixed(2) does.
func FormatNumber(v interface{}) (string, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	default:
		return "", fmt.Errorf("expected a number, got %T", v)
	}

	switch {
	case math.IsInf(f, 1):
		return "Infinity", nil
	case math.IsInf(f, -1):
		return "-Infinity", nil
	case math.IsNaN(f):
		return "NaN", nil
	case math.Abs(f) >= 1e21:
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	return toFixed2(f), nil
}

// toFixed2 rounds the exact binary value of f, so 1.005 (stored as
// 1.00499...) gives "1.00" while 0.125 gives "0.13".
func toFixed2(f float64) string {
	r := new(big.Rat).SetFloat64(math.Abs(f))
	r.Mul(r, big.NewRat(100, 1))
	r.Add(r, big.NewRat(1, 2))
	cents := new(big.Int).Quo(r.Num(), r.Denom()).String()

	for len(cents) < 3 {
		cents = "0" + cents
	}
	text := cents[:len(cents)-2] + "." + cents[len(cents)-2:]
	if f < 0 {
		text = "-" + text
	}
	return text
}

// FormatJSON renders a structured result as JSON indented by two spaces.
func FormatJSON(v interface{}) (string, error) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice && rv.IsNil() {
		v = []struct{}{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

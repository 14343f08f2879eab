package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Field validation messages shared by the request mappers.
const (
	msgRequired      = "This field is required."
	msgNull          = "This field may not be null."
	msgBlank         = "This field may not be blank."
	msgInvalidString = "Not a valid string."
	msgInvalidNumber = "A valid number is required."
	msgInvalidInt    = "A valid integer is required."
)

// decodeObject splits a JSON object body into its raw members.
func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, ErrInvalidJSON
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeString(raw json.RawMessage) (string, string) {
	if isNull(raw) {
		return "", msgNull
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", msgInvalidString
	}
	return s, ""
}

// decodeDecimal accepts both JSON numbers and numeric strings.
func decodeDecimal(raw json.RawMessage) (decimal.Decimal, string) {
	if isNull(raw) {
		return decimal.Zero, msgNull
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(bytes.TrimSpace(raw)); err != nil {
		return decimal.Zero, msgInvalidNumber
	}
	return d, ""
}

// decodeInt accepts JSON integers and integral numeric strings.
func decodeInt(raw json.RawMessage) (int64, string) {
	if isNull(raw) {
		return 0, msgNull
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, msgInvalidInt
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0, msgInvalidInt
	}
	return v, ""
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

package contracts

import "strings"

// UnknownName is the display name used when an instrument code has no
// entry in the name table.
const UnknownName = "未知名称"

// Identity pairs an instrument code with its display name.
type Identity struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// NormalizeCode left-pads a numeric instrument code to six digits.
// Codes already six or more characters long are returned unchanged.
// Name tables and bar filenames both lose leading zeros when edited in
// spreadsheet tools, so every join goes through this first.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) >= 6 {
		return code
	}
	return strings.Repeat("0", 6-len(code)) + code
}

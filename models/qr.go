package models

import "strings"

// VoucherQRPrefix marks a QR payload carrying a voucher code.
const VoucherQRPrefix = "VOUCHER:"

// MatchQRExact is the authoritative server-side comparison.
func MatchQRExact(expected, scanned string) bool {
	return expected != "" && expected == scanned
}

// MatchQRLenient mirrors the client's comparison: trimmed, case-insensitive.
func MatchQRLenient(expected, scanned string) bool {
	expected = strings.TrimSpace(expected)
	return expected != "" && strings.EqualFold(expected, strings.TrimSpace(scanned))
}

// VoucherQRPayload encodes a voucher code for its QR image.
func VoucherQRPayload(code string) string {
	return VoucherQRPrefix + code
}

// ParseVoucherRef accepts a raw voucher code or a scanned VOUCHER: payload and
// returns the normalized code.
func ParseVoucherRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if len(ref) >= len(VoucherQRPrefix) && strings.EqualFold(ref[:len(VoucherQRPrefix)], VoucherQRPrefix) {
		ref = ref[len(VoucherQRPrefix):]
	}
	return strings.ToUpper(strings.TrimSpace(ref))
}

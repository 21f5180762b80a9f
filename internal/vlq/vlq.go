package vlq

import "strings"

// Source maps encode integers as base64 VLQs: each base64 digit carries
// five payload bits plus a continuation bit (bit 5), and the assembled
// value stores its sign in bit 0.
const (
	baseShift    = 5
	base         = 1 << baseShift
	baseMask     = base - 1
	continuation = base
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// reverse maps a byte to its base64 value, or -1 for bytes outside the
// alphabet. Built once at init; read-only afterwards.
var reverse = func() [256]int8 {
	var table [256]int8
	for i := range table {
		table[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		table[alphabet[i]] = int8(i)
	}
	return table
}()

// Decode converts a VLQ segment into the integers it encodes, in input
// order.
//
// The decoder is deliberately lenient: bytes outside the base64 alphabet
// are skipped, and a segment ending with the continuation bit still set
// drops the incomplete value. Real-world encoders produce both, and a
// resolver is more useful tolerating them than rejecting the whole map.
func Decode(segment string) []int {
	var result []int
	shift := 0
	value := 0

	for i := 0; i < len(segment); i++ {
		digit := int(reverse[segment[i]])
		if digit < 0 {
			continue
		}

		value |= (digit & baseMask) << shift
		if digit&continuation != 0 {
			shift += baseShift
			continue
		}

		// Terminating digit: undo the sign-in-LSB packing and flush.
		negative := value&1 != 0
		value >>= 1
		if negative {
			value = -value
		}
		result = append(result, value)
		value = 0
		shift = 0
	}

	return result
}

// Encode is the inverse of Decode: each value becomes one run of base64
// digits with the sign folded into the low bit.
func Encode(values ...int) string {
	var sb strings.Builder

	for _, value := range values {
		vlq := value << 1
		if value < 0 {
			vlq = ((-value) << 1) | 1
		}

		for {
			digit := vlq & baseMask
			vlq >>= baseShift
			if vlq != 0 {
				digit |= continuation
			}
			sb.WriteByte(alphabet[digit])
			if vlq == 0 {
				break
			}
		}
	}

	return sb.String()
}

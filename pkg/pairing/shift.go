package pairing

// ShiftDistance is the rotation the paired device applies before transmitting.
const ShiftDistance = 3

// Shift rotates every lowercase ASCII letter of word forward by n, wrapping
// within a-z. Negative n shifts back. Other bytes are copied unchanged.
func Shift(word string, n int) string {
	n %= 26
	if n < 0 {
		n += 26
	}
	out := []byte(word)
	for i, c := range out {
		if c >= 'a' && c <= 'z' {
			out[i] = 'a' + (c-'a'+byte(n))%26
		}
	}
	return string(out)
}

// Unshift undoes the device obfuscation: "d" becomes "a", "a" becomes "x".
func Unshift(word string) string {
	return Shift(word, -ShiftDistance)
}

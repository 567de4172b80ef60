// Package conv appends decimal text to byte slices without fmt or strconv,
// so the telemetry path stays allocation-free on the MCU once dst has room.
package conv

// AppendUint appends the base-10 representation of n to dst.
func AppendUint(dst []byte, n uint64) []byte {
	var buf [20]byte
	i := len(buf)
	if n == 0 {
		i--
		buf[i] = '0'
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + (n % 10))
		n /= 10
	}
	return append(dst, buf[i:]...)
}

// AppendInt appends the base-10 representation of n to dst.
func AppendInt(dst []byte, n int64) []byte {
	if n < 0 {
		dst = append(dst, '-')
		return AppendUint(dst, uint64(-n))
	}
	return AppendUint(dst, uint64(n))
}

// AppendCenti appends v as a fixed-point decimal with two fractional digits,
// rounded to the nearest hundredth ("123.45", "-0.50").
func AppendCenti(dst []byte, v float32) []byte {
	c := int64(v*100 + 0.5)
	if v < 0 {
		c = int64(v*100 - 0.5)
	}
	if c < 0 {
		dst = append(dst, '-')
		c = -c
	}
	dst = AppendUint(dst, uint64(c/100))
	dst = append(dst, '.')
	frac := c % 100
	if frac < 10 {
		dst = append(dst, '0')
	}
	return AppendUint(dst, uint64(frac))
}

// Package telemetry turns published range readings into one text line each
// and writes them to the board's telemetry port.
//
//	RNG <sensor> <ms> <distance cm, 2 dp> <confidence> <flags>
//
// flags is two characters: 'P' or '-' for predicted, 'V' or '-' for
// verified. Encoding avoids fmt so it can run on the MCU.
package telemetry

import (
	"errors"
	"strconv"
	"strings"

	"rangecode-go/types"
	"rangecode-go/x/conv"
)

const linePrefix = "RNG"

var (
	ErrNotTelemetry = errors.New("telemetry: not a range line")
	ErrMalformed    = errors.New("telemetry: malformed range line")
)

// Encode appends the line for r, newline included, to dst.
func Encode(dst []byte, r types.RangeReading) []byte {
	dst = append(dst, linePrefix...)
	dst = append(dst, ' ')
	dst = append(dst, r.Sensor...)
	dst = append(dst, ' ')
	dst = conv.AppendInt(dst, r.TS)
	dst = append(dst, ' ')
	dst = conv.AppendCenti(dst, r.Distance)
	dst = append(dst, ' ')
	dst = conv.AppendUint(dst, uint64(r.Confidence))
	dst = append(dst, ' ', flag(r.Predicted, 'P'), flag(r.Verified, 'V'), '\n')
	return dst
}

func flag(set bool, c byte) byte {
	if set {
		return c
	}
	return '-'
}

// Decode parses one line produced by Encode. Lines that do not start with
// the RNG prefix return ErrNotTelemetry so callers can skip boot chatter.
func Decode(line string) (types.RangeReading, error) {
	f := strings.Fields(line)
	if len(f) == 0 || f[0] != linePrefix {
		return types.RangeReading{}, ErrNotTelemetry
	}
	if len(f) != 6 || len(f[5]) != 2 {
		return types.RangeReading{}, ErrMalformed
	}
	ts, err := strconv.ParseInt(f[2], 10, 64)
	if err != nil {
		return types.RangeReading{}, ErrMalformed
	}
	dist, err := strconv.ParseFloat(f[3], 32)
	if err != nil {
		return types.RangeReading{}, ErrMalformed
	}
	conf, err := strconv.ParseUint(f[4], 10, 8)
	if err != nil {
		return types.RangeReading{}, ErrMalformed
	}
	p, v := f[5][0], f[5][1]
	if (p != 'P' && p != '-') || (v != 'V' && v != '-') {
		return types.RangeReading{}, ErrMalformed
	}
	return types.RangeReading{
		Sensor:     f[1],
		Distance:   float32(dist),
		Confidence: uint8(conf),
		Predicted:  p == 'P',
		Verified:   v == 'V',
		TS:         ts,
	}, nil
}

package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"rangecode-go/services/telemetry"
	"rangecode-go/types"
)

// consume decodes telemetry lines from r until EOF, printing each reading
// to out and adding it to sum. Non-telemetry lines (boot messages, the
// heartbeat) are logged at debug level.
func consume(r io.Reader, out io.Writer, sum *Summary, lowConfidence uint8) error {
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		rd, err := telemetry.Decode(line)
		switch {
		case errors.Is(err, telemetry.ErrNotTelemetry):
			logrus.WithField("line", n).Debug(line)
			continue
		case err != nil:
			logrus.WithFields(logrus.Fields{"line": n, "text": line}).Warn(err)
			sum.Malformed++
			continue
		}
		sum.Add(rd)
		fmt.Fprintln(out, formatReading(rd, lowConfidence))
	}
	return sc.Err()
}

func formatReading(r types.RangeReading, lowConfidence uint8) string {
	s := fmt.Sprintf("%8dms %-8s %7.2f cm %3d%%", r.TS, r.Sensor, r.Distance, r.Confidence)
	if r.Verified {
		s += " verified"
	}
	switch {
	case r.Predicted && r.Confidence < lowConfidence:
		return color.RedString("%s predicted", s)
	case r.Predicted:
		return color.YellowString("%s predicted", s)
	default:
		return color.GreenString("%s", s)
	}
}

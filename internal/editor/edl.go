package editor

import (
	"fmt"
	"math"
	"path"
	"strings"

	"timeline-editor/internal/timeline"
)

// DefaultFrameRate is used when no usable frame rate is supplied.
const DefaultFrameRate = 30.0

const edlContentType = "text/plain; charset=utf-8"

// BuildEDL renders keep-segments as a CMX3600-style edit decision list.
// Source timecodes are original-media positions; record timecodes run contiguously from zero.
// 29.97 and 59.94 are written as drop-frame timecode.
func BuildEDL(title, locator string, segments []timeline.KeepSegment, frameRate float64) string {
	tc := newTimecoder(frameRate)

	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", title)
	if tc.drop > 0 {
		b.WriteString("FCM: DROP FRAME\n")
	} else {
		b.WriteString("FCM: NON-DROP FRAME\n")
	}
	b.WriteString("\n")

	clip := clipName(locator)
	record := 0.0
	for i, seg := range segments {
		fmt.Fprintf(&b, "%03d  %-8s %-5s C        %s %s %s %s\n",
			i+1, "AX", "V",
			tc.format(seg.Start),
			tc.format(seg.End),
			tc.format(record),
			tc.format(record+seg.Len()))
		fmt.Fprintf(&b, "* FROM CLIP NAME:  %s\n", clip)
		fmt.Fprintf(&b, "* MEDIA PATH:  %s\n", locator)
		record += seg.Len()
	}
	return b.String()
}

// timecoder converts seconds to SMPTE timecode at one frame rate.
type timecoder struct {
	rate    float64 // frames per real second
	nominal int     // frames per timecode second
	drop    int     // frame numbers skipped each minute except every tenth; 0 for non-drop
}

func newTimecoder(frameRate float64) timecoder {
	nominal := int(math.Round(frameRate))
	if nominal <= 0 {
		nominal = int(DefaultFrameRate)
	}
	tc := timecoder{rate: float64(nominal), nominal: nominal}
	switch {
	case math.Abs(frameRate-29.97) < 0.01:
		tc.drop = 2
	case math.Abs(frameRate-59.94) < 0.01:
		tc.drop = 4
	}
	if tc.drop > 0 {
		tc.rate = float64(nominal) * 1000 / 1001
	}
	return tc
}

func (tc timecoder) format(sec float64) string {
	n := int(math.Round(sec * tc.rate))
	sep := ":"
	if tc.drop > 0 {
		n = tc.dropFrameNumber(n)
		sep = ";"
	}
	frames := n % tc.nominal
	totalSeconds := n / tc.nominal
	return fmt.Sprintf("%02d:%02d:%02d%s%02d",
		totalSeconds/3600, totalSeconds/60%60, totalSeconds%60, sep, frames)
}

// dropFrameNumber maps a frame count to the frame number shown in drop-frame timecode,
// which skips the first tc.drop numbers of every minute not divisible by ten.
func (tc timecoder) dropFrameNumber(n int) int {
	perMinute := tc.nominal*60 - tc.drop
	perTenMinutes := tc.nominal*600 - tc.drop*9

	tens, rem := n/perTenMinutes, n%perTenMinutes
	n += 9 * tc.drop * tens
	if rem > tc.drop {
		n += tc.drop * ((rem - tc.drop) / perMinute)
	}
	return n
}

// clipName is the last path element of locator with any query or fragment removed.
func clipName(locator string) string {
	if i := strings.IndexAny(locator, "?#"); i >= 0 {
		locator = locator[:i]
	}
	name := path.Base(strings.TrimRight(locator, "/"))
	if name == "." || name == "/" {
		return locator
	}
	return name
}

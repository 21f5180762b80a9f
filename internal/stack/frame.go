package stack

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

// Frame is one line of a stack trace. Unparsed lines (messages, frames
// without positions) keep Parsed false and pass through untouched.
type Frame struct {
	Raw      string
	Function string // empty for anonymous frames
	File     string // URL or path of the generated bundle
	Line     int    // 1-based, as JS engines print it
	Column   int
	Parsed   bool
}

// Frames are JS-engine formats, so they are matched with the JS-flavored
// regexp engine. V8 prints "at fn (url:line:col)" or "at url:line:col";
// Firefox and Safari print "fn@url:line:col".
var (
	v8Frame    = regexp2.MustCompile(`^\s*at\s+(?:(?<fn>.*?)\s+\()?(?<loc>[^\s()]+):(?<line>\d+):(?<col>\d+)\)?\s*$`, regexp2.None)
	geckoFrame = regexp2.MustCompile(`^\s*(?:(?<fn>[^@\s]*)@)?(?<loc>[^\s@]+):(?<line>\d+):(?<col>\d+)\s*$`, regexp2.None)
)

// ParseTrace splits a pasted stack trace into frames, one per line.
func ParseTrace(text string) []Frame {
	var frames []Frame
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		frames = append(frames, parseFrame(line))
	}
	return frames
}

func parseFrame(line string) Frame {
	frame := Frame{Raw: line}

	for _, re := range []*regexp2.Regexp{v8Frame, geckoFrame} {
		m, err := re.FindStringMatch(line)
		if err != nil || m == nil {
			continue
		}

		frame.Function = groupString(m, "fn")
		frame.File = groupString(m, "loc")
		frame.Line, _ = strconv.Atoi(groupString(m, "line"))
		frame.Column, _ = strconv.Atoi(groupString(m, "col"))
		frame.Parsed = true
		break
	}

	return frame
}

func groupString(m *regexp2.Match, name string) string {
	g := m.GroupByName(name)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return g.String()
}

// Package parser decodes the battery-history checkin dump and the logcat
// dump produced by an Android device, and resolves battery event codes into
// named timeline markers.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Decoder defines the interface shared by the dump decoders.
type Decoder interface {
	// Name returns the unique name of the decoder.
	Name() string
	// CanDecode returns true if the text looks like this decoder's format.
	CanDecode(text string) bool
}

// ErrUnresolvedString is returned when a history code references a
// string-table index that the dump never defined.
var ErrUnresolvedString = errors.New("unresolved string table reference")

// maxScannerBuffer bounds the length of a single dump line.
const maxScannerBuffer = 1024 * 1024

// sniffLines is how many non-empty lines CanDecode inspects.
const sniffLines = 10

func newLineScanner(text string) *bufio.Scanner {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), maxScannerBuffer)
	return scanner
}

// sniff returns the ratio of the first non-empty lines of text accepted by match.
func sniff(text string, match func(line string) bool) float64 {
	scanner := newLineScanner(text)
	checked := 0
	matched := 0
	for scanner.Scan() && checked < sniffLines {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		checked++
		if match(line) {
			matched++
		}
	}
	if checked == 0 {
		return 0
	}
	return float64(matched) / float64(checked)
}

// leadingInt parses the integer prefix of s, ignoring leading whitespace and
// any trailing non-digit characters ("0:TIME:1" yields 0).
func leadingInt(s string) (int64, error) {
	t := strings.TrimLeft(s, " \t")
	i := 0
	if i < len(t) && (t[i] == '+' || t[i] == '-') {
		i++
	}
	start := i
	for i < len(t) && t[i] >= '0' && t[i] <= '9' {
		i++
	}
	if i == start {
		return 0, fmt.Errorf("no integer in %q", s)
	}
	return strconv.ParseInt(t[:i], 10, 64)
}

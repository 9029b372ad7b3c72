package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/adb-markers/backend/internal/models"
)

// sectionMarker precedes the name of each logcat buffer in the dump.
const sectionMarker = "--------- beginning of "

// LogcatDecoder handles `logcat --format=epoch,UTC,usec,printable,long` output.
// Format: buffer sections introduced by "--------- beginning of <name>", each
// holding blank-line separated records of the form
//
//	[ 1700000000.123456  1234: 5678 I/Tag ]
//	message
type LogcatDecoder struct {
	recordRegex *regexp.Regexp
	headerRegex *regexp.Regexp
}

func NewLogcatDecoder() *LogcatDecoder {
	return &LogcatDecoder{
		recordRegex: regexp.MustCompile(`\[\s+([0-9.]+)\s+([0-9]+):\s*([0-9]+) ([A-Z])/(.*[^ ]) +\]\n(.*)`),
		headerRegex: regexp.MustCompile(`^\[\s+[0-9.]+\s+[0-9]+:\s*[0-9]+ [A-Z]/`),
	}
}

func (d *LogcatDecoder) Name() string {
	return "logcat"
}

func (d *LogcatDecoder) CanDecode(text string) bool {
	return sniff(text, func(line string) bool {
		return strings.HasPrefix(line, sectionMarker) || d.headerRegex.MatchString(line)
	}) >= 0.4
}

// Decode returns the records of every section in stream order. Records whose
// header does not match are returned as parse errors; a section without any
// parseable record simply contributes no events.
func (d *LogcatDecoder) Decode(text string) ([]models.LogcatEvent, []*models.ParseError) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	events := make([]models.LogcatEvent, 0)
	errors := make([]*models.ParseError, 0)

	intern := NewStringIntern()
	lines := lineCounter{text: text}
	offset := 0
	for i, section := range strings.Split(text, sectionMarker) {
		if i > 0 {
			offset += len(sectionMarker)
		}
		sectionStart := offset
		offset += len(section)

		nl := strings.IndexByte(section, '\n')
		if nl == -1 {
			continue
		}
		name := intern.Intern(section[:nl])

		recordStart := sectionStart + nl + 1
		for _, record := range strings.Split(section[nl+1:], "\n\n") {
			if record != "" {
				lead := len(record) - len(strings.TrimLeft(record, "\n"))
				event, parseErr := d.parseRecord(name, record, lines.at(recordStart+lead), intern)
				if parseErr != nil {
					errors = append(errors, parseErr)
				} else {
					events = append(events, *event)
				}
			}
			recordStart += len(record) + 2
		}
	}

	return events, errors
}

func (d *LogcatDecoder) parseRecord(section, record string, lineNum int, intern *StringIntern) (*models.LogcatEvent, *models.ParseError) {
	m := d.recordRegex.FindStringSubmatch(record)
	if m == nil {
		return nil, &models.ParseError{Source: d.Name(), Line: lineNum, Content: record, Reason: "record header does not match logcat long format"}
	}

	t, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, &models.ParseError{Source: d.Name(), Line: lineNum, Content: record, Reason: "invalid timestamp"}
	}
	tid, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, &models.ParseError{Source: d.Name(), Line: lineNum, Content: record, Reason: "invalid thread id"}
	}

	return &models.LogcatEvent{
		Section: section,
		Time:    t,
		PID:     intern.Intern(m[2]),
		TID:     tid,
		Level:   m[4],
		Tag:     intern.Intern(m[5]),
		Message: m[6],
		Raw:     record,
	}, nil
}

// lineCounter maps byte offsets of text to 1-based line numbers. Offsets
// must be requested in increasing order.
type lineCounter struct {
	text    string
	counted int
	line    int
}

func (c *lineCounter) at(offset int) int {
	if offset > len(c.text) {
		offset = len(c.text)
	}
	if offset > c.counted {
		c.line += strings.Count(c.text[c.counted:offset], "\n")
		c.counted = offset
	}
	return c.line + 1
}

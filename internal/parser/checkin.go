package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/adb-markers/backend/internal/models"
)

// Checkin record prefixes.
const (
	stringTablePrefix = "9,hsp,"
	historyPrefix     = "9,h,"
	resetPrefix       = "0:RESET:TIME:"
)

// CheckinDecoder handles `dumpsys batterystats -c --history` output.
// Format: "9,hsp,<index>,<uid>,<quoted string>" string-table records and
// "9,h,<deltaMs>[,<code>]*" history records, with "9,h,0:RESET:TIME:<ms>"
// establishing the absolute clock.
type CheckinDecoder struct {
	recordRegex *regexp.Regexp
}

func NewCheckinDecoder() *CheckinDecoder {
	return &CheckinDecoder{
		recordRegex: regexp.MustCompile(`^\d+,`),
	}
}

func (d *CheckinDecoder) Name() string {
	return "checkin"
}

func (d *CheckinDecoder) CanDecode(text string) bool {
	return sniff(text, d.recordRegex.MatchString) >= 0.6
}

// Decode makes a single pass over the dump. Lines of other record types are
// counted in SkippedLines; malformed string-table and history records are
// returned as parse errors and do not stop the decode.
func (d *CheckinDecoder) Decode(text string) (*models.CheckinDump, []*models.ParseError, error) {
	dump := models.NewCheckinDump()
	errors := make([]*models.ParseError, 0)

	var cursor int64
	scanner := newLineScanner(text)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case strings.HasPrefix(line, stringTablePrefix):
			entry, parseErr := d.parseStringTableLine(line, lineNum)
			if parseErr != nil {
				errors = append(errors, parseErr)
				continue
			}
			dump.StringTable[entry.Index] = entry

		case strings.HasPrefix(line, historyPrefix):
			record := line[len(historyPrefix):]
			if strings.HasPrefix(record, resetPrefix) {
				t, err := leadingInt(record[len(resetPrefix):])
				if err != nil {
					errors = append(errors, d.parseError(lineNum, line, "invalid reset time"))
					continue
				}
				dump.ResetTime = t
				cursor = t
				continue
			}
			if parseErr := d.parseHistoryLine(record, line, lineNum, &cursor, dump); parseErr != nil {
				errors = append(errors, parseErr)
			}

		default:
			dump.SkippedLines++
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading checkin dump: %w", err)
	}

	return dump, errors, nil
}

func (d *CheckinDecoder) parseStringTableLine(line string, lineNum int) (models.StringTableEntry, *models.ParseError) {
	// The string itself may contain commas.
	fields := strings.SplitN(line[len(stringTablePrefix):], ",", 3)
	if len(fields) < 3 {
		return models.StringTableEntry{}, d.parseError(lineNum, line, "string table record needs index, uid and string")
	}
	index, err := strconv.Atoi(fields[0])
	if err != nil || index < 0 {
		return models.StringTableEntry{}, d.parseError(lineNum, line, "invalid string table index")
	}
	return models.StringTableEntry{
		Index:   index,
		OwnerID: fields[1],
		Text:    fields[2],
	}, nil
}

// parseHistoryLine applies one delta record. Codes are stamped at
// cursor+delta, but only a positive delta advances the cursor so that
// several codes may share one timestamp. A bare delta always moves the cursor.
func (d *CheckinDecoder) parseHistoryLine(record, line string, lineNum int, cursor *int64, dump *models.CheckinDump) *models.ParseError {
	if !strings.Contains(record, ",") {
		delta, err := leadingInt(record)
		if err != nil {
			return d.parseError(lineNum, line, "invalid history delta")
		}
		*cursor += delta
		return nil
	}

	parts := strings.Split(record, ",")
	delta, err := leadingInt(parts[0])
	if err != nil {
		return d.parseError(lineNum, line, "invalid history delta")
	}
	for _, code := range parts[1:] {
		if code == "" {
			continue
		}
		dump.Events = append(dump.Events, models.BatteryEvent{
			Time: *cursor + delta,
			Code: code,
		})
	}
	if delta > 0 {
		*cursor += delta
	}
	return nil
}

func (d *CheckinDecoder) parseError(lineNum int, line, reason string) *models.ParseError {
	return &models.ParseError{Source: d.Name(), Line: lineNum, Content: line, Reason: reason}
}

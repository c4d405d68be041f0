package domain

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotParsed means the text did not contain a recognizable date expression.
	ErrNotParsed = errors.New("date expression not recognized")
	// ErrInvalidDate means the expression was recognized but names no real calendar date.
	ErrInvalidDate = errors.New("no such calendar date")
)

// ParsedDate is a normalized (day, month, optional year) triple.
type ParsedDate struct {
	Day   int
	Month int
	Year  *int
}

// monthNames maps Russian month names (genitive, abbreviated and nominative
// forms) to month numbers.
var monthNames = map[string]int{
	"января": 1, "янв": 1, "январь": 1,
	"февраля": 2, "фев": 2, "февраль": 2,
	"марта": 3, "мар": 3, "март": 3,
	"апреля": 4, "апр": 4, "апрель": 4,
	"мая": 5, "май": 5,
	"июня": 6, "июнь": 6,
	"июля": 7, "июль": 7,
	"августа": 8, "авг": 8, "август": 8,
	"сентября": 9, "сен": 9, "сентябрь": 9,
	"октября": 10, "окт": 10, "октябрь": 10,
	"ноября": 11, "ноя": 11, "ноябрь": 11,
	"декабря": 12, "дек": 12, "декабрь": 12,
}

// Trigger phrases stripped from the start of a birthday message.
// Order matters: the longer phrases must be tried before the bare "др".
var triggerRes = []*regexp.Regexp{
	regexp.MustCompile(`^мой\s*день\s*рождения\s*`),
	regexp.MustCompile(`^мой\s*др\s*`),
	regexp.MustCompile(`^др\s*`),
}

// The three birthday grammars, matched against the full remaining text.
var (
	bdNumericRe = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})(?:[./](\d{2,4}))?$`)
	bdDayNameRe = regexp.MustCompile(`^(\d{1,2})\s+([а-яё]+)(?:\s+(\d{2,4}))?$`)
	bdNameDayRe = regexp.MustCompile(`^([а-яё]+)\s+(\d{1,2})(?:\s+(\d{2,4}))?$`)
)

// expandYear turns a 2-digit year into a 4-digit one: values up to 50 land in
// the 2000s, the rest in the 1900s.
func expandYear(y int) int {
	if y >= 100 {
		return y
	}
	if y <= 50 {
		return 2000 + y
	}
	return 1900 + y
}

// ParseBirthdayExpression parses free text like "мой др 28.06.1998",
// "др 10 июня" or "мая 5" into a normalized date. A year equal to the current
// one, in the future, or more than 120 years back is treated as unspecified.
func ParseBirthdayExpression(text string, now time.Time) (ParsedDate, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	for _, re := range triggerRes {
		s = re.ReplaceAllString(s, "")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ParsedDate{}, ErrNotParsed
	}

	var (
		day, month int
		year       *int
	)

	if m := bdNumericRe.FindStringSubmatch(s); m != nil {
		day, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		year = optYear(m[3])
	}
	if day == 0 || month == 0 {
		if m := bdDayNameRe.FindStringSubmatch(s); m != nil {
			if mm, ok := monthNames[m[2]]; ok {
				day, _ = strconv.Atoi(m[1])
				month = mm
				year = optYear(m[3])
			}
		}
	}
	if day == 0 || month == 0 {
		if m := bdNameDayRe.FindStringSubmatch(s); m != nil {
			if mm, ok := monthNames[m[1]]; ok {
				month = mm
				day, _ = strconv.Atoi(m[2])
				year = optYear(m[3])
			}
		}
	}
	if day == 0 || month == 0 {
		return ParsedDate{}, ErrNotParsed
	}

	if !IsValidDate(day, month, year) {
		return ParsedDate{}, ErrInvalidDate
	}

	if year != nil {
		cur := now.Year()
		if *year == cur || *year > cur || *year < cur-120 {
			year = nil
		}
	}
	return ParsedDate{Day: day, Month: month, Year: year}, nil
}

func optYear(group string) *int {
	if group == "" {
		return nil
	}
	y, _ := strconv.Atoi(group)
	y = expandYear(y)
	return &y
}

// Event command grammars: anchored at the start of the first line but allowed
// to be followed by the event name.
var (
	eventCmdRe    = regexp.MustCompile(`(?i)^/add_event(?:@\w+)?\s*`)
	evNumericRe   = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})(?:[./](\d{4}))?`)
	evDayNameRe   = regexp.MustCompile(`^(\d{1,2})\s+([а-яё]+)(?:\s+(\d{4}))?`)
	evNameDayRe   = regexp.MustCompile(`^([а-яё]+)\s+(\d{1,2})(?:\s+(\d{4}))?`)
	eventGrammars = []*regexp.Regexp{evNumericRe, evDayNameRe, evNameDayRe}
)

// ParseEventCommand parses a multi-line /add_event message. The first line
// carries the date and the event name, the second line the congratulation
// text; further lines are ignored. Letter casing of the name and message is
// preserved even though the date is matched case-insensitively. A year equal
// to the current one is dropped; unlike birthdays, historical and future
// years are kept.
func ParseEventCommand(raw string, now time.Time) (EventDraft, error) {
	lines := strings.SplitN(strings.TrimSpace(raw), "\n", 3)
	if len(lines) < 2 {
		return EventDraft{}, ErrNotParsed
	}

	first := eventCmdRe.ReplaceAllString(strings.TrimSpace(lines[0]), "")
	lower := strings.ToLower(first)

	var (
		day, month int
		year       *int
		end        int
	)
	for i, re := range eventGrammars {
		m := re.FindStringSubmatchIndex(lower)
		if m == nil {
			continue
		}
		g := func(n int) string {
			if m[2*n] < 0 {
				return ""
			}
			return lower[m[2*n]:m[2*n+1]]
		}
		switch i {
		case 0:
			day, _ = strconv.Atoi(g(1))
			month, _ = strconv.Atoi(g(2))
		case 1:
			mm, ok := monthNames[g(2)]
			if !ok {
				continue
			}
			day, _ = strconv.Atoi(g(1))
			month = mm
		case 2:
			mm, ok := monthNames[g(1)]
			if !ok {
				continue
			}
			month = mm
			day, _ = strconv.Atoi(g(2))
		}
		year = optYear(g(3))
		end = m[1]
		break
	}
	if day == 0 || month == 0 {
		return EventDraft{}, ErrNotParsed
	}

	// ToLower keeps byte offsets stable for Cyrillic and ASCII, so the match
	// end in the lowered line maps onto the original-cased one.
	name := strings.TrimSpace(first[end:])
	if name == "" {
		return EventDraft{}, ErrNotParsed
	}
	message := strings.TrimSpace(lines[1])
	if message == "" {
		return EventDraft{}, ErrNotParsed
	}

	if !IsValidDate(day, month, year) {
		return EventDraft{}, ErrInvalidDate
	}
	if year != nil && *year == now.Year() {
		year = nil
	}
	return EventDraft{Day: day, Month: month, Year: year, Name: name, Message: message}, nil
}

// QueryKind states how a user lookup argument should be interpreted.
type QueryKind int

const (
	QueryByID QueryKind = iota
	QueryByUsername
	QueryByName
)

// UserQuery is a parsed user lookup argument: numeric id, @username or a
// display name.
type UserQuery struct {
	Kind  QueryKind
	Value string
}

var userCmdRe = regexp.MustCompile(`(?i)^/(?:dr|delete|add|force_congratulate)(?:@\w+)?\s*`)

// ParseUserQuery extracts a user identifier from a command argument.
// Usernames are lowercased; display names keep their casing.
func ParseUserQuery(text string) (UserQuery, error) {
	s := strings.TrimSpace(userCmdRe.ReplaceAllString(strings.TrimSpace(text), ""))
	if s == "" {
		return UserQuery{}, ErrNotParsed
	}
	if isAllDigits(s) {
		return UserQuery{Kind: QueryByID, Value: s}, nil
	}
	if strings.HasPrefix(s, "@") {
		return UserQuery{Kind: QueryByUsername, Value: strings.ToLower(s[1:])}, nil
	}
	return UserQuery{Kind: QueryByName, Value: s}, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

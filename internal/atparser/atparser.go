// Package atparser decodes the HFP AT unsolicited responses the engine
// must interpret: +CLCC (current call list), +COPS (current operator), and
// +CLIP (calling line identification). Every function here is pure and
// side-effect free: a malformed line is reported as ok=false, never as an
// error and never as a panic.
package atparser

import "strings"

// CallDirection mirrors the "d" field of a +CLCC line.
type CallDirection int

const (
	DirectionOutgoing CallDirection = iota
	DirectionIncoming
)

// CallStatus mirrors the "s" field of a +CLCC line.
type CallStatus int

const (
	StatusActive CallStatus = iota
	StatusHeld
	StatusDialing
	StatusAlerting
	StatusIncoming
	StatusWaiting
	StatusIdle
)

// CallInfo is the decoded form of one +CLCC line.
type CallInfo struct {
	Index     int
	Direction CallDirection
	Status    CallStatus
	Number    string
	HasNumber bool
}

// ParseCLCC decodes a "+CLCC: i,d,s,m,p[,\"num\",t]" line. Leading/trailing
// whitespace and a trailing CR/LF are ignored. Returns ok=false for any
// line that is not a well-formed +CLCC response.
func ParseCLCC(line string) (CallInfo, bool) {
	fields, ok := splitPrefixed(line, "+CLCC:")
	if !ok || len(fields) < 5 {
		return CallInfo{}, false
	}

	idx, ok := atoi(fields[0])
	if !ok {
		return CallInfo{}, false
	}
	dirRaw, ok := atoi(fields[1])
	if !ok {
		return CallInfo{}, false
	}
	statRaw, ok := atoi(fields[2])
	if !ok {
		return CallInfo{}, false
	}
	if _, ok := atoi(fields[3]); !ok {
		return CallInfo{}, false
	}
	if _, ok := atoi(fields[4]); !ok {
		return CallInfo{}, false
	}

	info := CallInfo{
		Index:     idx,
		Direction: directionFromField(dirRaw),
		Status:    statusFromField(statRaw),
	}

	if len(fields) >= 6 {
		num := unquote(strings.TrimSpace(fields[5]))
		if num != "" {
			info.Number = num
			info.HasNumber = true
		}
	}

	return info, true
}

func directionFromField(d int) CallDirection {
	if d == 1 {
		return DirectionIncoming
	}
	return DirectionOutgoing
}

func statusFromField(s int) CallStatus {
	switch s {
	case 0:
		return StatusActive
	case 1:
		return StatusHeld
	case 2:
		return StatusDialing
	case 3:
		return StatusAlerting
	case 4:
		return StatusIncoming
	case 5:
		return StatusWaiting
	default:
		return StatusIdle
	}
}

// ParseCOPS decodes a "+COPS: mode,fmt,\"name\"" line, returning the
// operator name. Requires at least 3 comma-separated fields.
func ParseCOPS(line string) (string, bool) {
	fields, ok := splitPrefixed(line, "+COPS:")
	if !ok || len(fields) < 3 {
		return "", false
	}
	name := unquote(strings.TrimSpace(fields[2]))
	return name, true
}

// ParseCLIP decodes a "+CLIP: \"num\",type[,,,\"alpha\"]" line, returning
// the caller number and, when present, the caller name (5th field).
func ParseCLIP(line string) (number string, name string, hasName bool, ok bool) {
	fields, ok := splitPrefixed(line, "+CLIP:")
	if !ok || len(fields) < 2 {
		return "", "", false, false
	}
	number = unquote(strings.TrimSpace(fields[0]))
	if len(fields) >= 5 {
		alpha := unquote(strings.TrimSpace(fields[4]))
		if alpha != "" {
			name = alpha
			hasName = true
		}
	}
	return number, name, hasName, true
}

// splitPrefixed trims whitespace/CRLF, checks the line begins with prefix,
// and splits the remainder on top-level commas (commas inside double
// quotes are not treated as separators).
func splitPrefixed(line, prefix string) ([]string, bool) {
	trimmed := strings.TrimRight(strings.TrimSpace(line), "\r\n")
	trimmed = strings.TrimSpace(trimmed)
	if !strings.HasPrefix(trimmed, prefix) {
		return nil, false
	}
	rest := strings.TrimSpace(trimmed[len(prefix):])
	return splitTopLevelCommas(rest), true
}

func splitTopLevelCommas(s string) []string {
	var fields []string
	inQuotes := false
	start := 0
	for i, r := range s {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				fields = append(fields, s[start:i])
				start = i + 1
			}
		}
	}
	fields = append(fields, s[start:])
	return fields
}

func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\"") {
		return s[1 : len(s)-1]
	}
	return s
}

func atoi(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	i := 0
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		i = 1
	}
	if i >= len(s) {
		return 0, false
	}
	n := 0
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}

// Package sizeutil converts the textual sizes torrent sites render into
// byte counts.
package sizeutil

import (
	"regexp"
	"strconv"
	"strings"
)

// Unknown is returned when a size string cannot be parsed. It is a sentinel,
// never an error condition.
const Unknown int64 = -1

// Unit tables, smallest first, 1024 base. French trackers label sizes in
// octets (O/KO/MO/GO).
var (
	UnitsMetric = []string{"B", "KB", "MB", "GB", "TB", "PB"}
	UnitsFrench = []string{"O", "KO", "MO", "GO", "TO", "PO"}
)

var sizePattern = regexp.MustCompile(`^([0-9][0-9,]*(?:\.[0-9]+)?)\s*([A-Za-z]*)$`)

// Convert parses a textual size like "1.5 GB" into bytes using the given
// unit table. A nil table defaults to UnitsMetric. A bare number is taken as
// bytes. Returns Unknown for anything unparseable.
func Convert(value string, units []string) int64 {
	if units == nil {
		units = UnitsMetric
	}

	value = strings.TrimSpace(value)
	match := sizePattern.FindStringSubmatch(value)
	if match == nil {
		return Unknown
	}

	number, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return Unknown
	}

	unit := strings.ToUpper(match[2])
	if unit == "" {
		return int64(number)
	}

	for i, label := range units {
		if unit == strings.ToUpper(label) {
			for ; i > 0; i-- {
				number *= 1024
			}
			return int64(number)
		}
	}

	return Unknown
}

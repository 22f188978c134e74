package importer

import (
	"time"

	"github.com/araddon/dateparse"
)

// DateParser turns a statement date cell into a time.
type DateParser interface {
	ParseDate(s string) (time.Time, error)
}

// LiberalDateParser accepts most human date layouts, e.g.
// "2021-06-01 12:00:00" or "2021/6/1 12:00".
type LiberalDateParser struct {
	// Location is used for dates without a zone; UTC when nil.
	Location *time.Location
}

// ParseDate implements DateParser.
func (p LiberalDateParser) ParseDate(s string) (time.Time, error) {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	return dateparse.ParseIn(s, loc)
}

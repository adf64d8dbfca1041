package graph

import (
	"path/filepath"
	"strings"
	"time"
)

// ParseDumpDate extracts the date from a Wikipedia dump file name such as
// "enwiki-20250123-pages-articles-multistream.xml.bz2". Directory components
// and extensions are ignored.
func ParseDumpDate(name string) (time.Time, bool) {
	base := filepath.Base(name)
	rest, ok := strings.CutPrefix(base, "enwiki-")
	if !ok {
		return time.Time{}, false
	}
	date, _, _ := strings.Cut(rest, "-")
	date, _, _ = strings.Cut(date, ".")
	if len(date) != 8 {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

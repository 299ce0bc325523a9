package get

import (
	"fmt"
	"strconv"
)

// PathSegments are the vol/part directories of a basket storage path.
type PathSegments struct {
	Vol  string
	Part string
}

// DerivePath maps an nm id onto its basket directories. Ids up to 8 digits
// use 3/5-digit prefixes, longer ids use 4/6. The rule is reverse-engineered
// from observed card URLs rather than documented by Wildberries.
func DerivePath(nmID int) PathSegments {
	s := strconv.Itoa(nmID)
	volLen, partLen := 3, 5
	if len(s) > 8 {
		volLen, partLen = 4, 6
	}
	return PathSegments{
		Vol:  "vol" + prefix(s, volLen),
		Part: "part" + prefix(s, partLen),
	}
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// CardPath is the card.json location relative to a basket host.
func CardPath(nmID int) string {
	seg := DerivePath(nmID)
	return fmt.Sprintf("/%s/%s/%d/info/ru/card.json", seg.Vol, seg.Part, nmID)
}

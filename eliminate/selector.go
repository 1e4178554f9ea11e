package eliminate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lnorton/eliminate/vectorio"
)

// sqlBackedDrivers names the vectorio drivers whose native attribute
// filter is SQL, and which therefore need the OGR_GEOM_AREA token
// rewritten to ST_Area(<geom-col>) rather than passed through verbatim.
var sqlBackedDrivers = map[string]bool{
	"SQLite": true,
	"GPKG":   true,
}

const areaToken = "OGR_GEOM_AREA"

// rewriteAreaToken replaces every exact occurrence of the OGR_GEOM_AREA
// token in predicate with ST_Area(geomCol). It is a plain token
// substitution, not a general expression rewrite: it never touches
// substrings of a longer identifier.
func rewriteAreaToken(predicate, geomCol string) string {
	if !strings.Contains(predicate, areaToken) {
		return predicate
	}
	replacement := fmt.Sprintf("ST_Area(%s)", geomCol)
	var b strings.Builder
	rest := predicate
	for {
		i := strings.Index(rest, areaToken)
		if i < 0 {
			b.WriteString(rest)
			break
		}
		before := rest[:i]
		after := rest[i+len(areaToken):]
		if isIdentByte(lastByte(before)) || isIdentByte(firstByte(after)) {
			// Part of a longer identifier; leave it untouched.
			b.WriteString(before)
			b.WriteString(areaToken)
			rest = after
			continue
		}
		b.WriteString(before)
		b.WriteString(replacement)
		rest = after
	}
	return b.String()
}

func lastByte(s string) byte {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

func firstByte(s string) byte {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// SelectByPredicate installs predicate as layer's attribute filter,
// collects the FIDs of every matching feature in iteration order, and
// clears the filter before returning. For SQL-backed drivers, the
// OGR_GEOM_AREA token is rewritten to ST_Area(<geom-col>) first.
func SelectByPredicate(layer vectorio.Layer, predicate string) ([]int64, error) {
	if strings.TrimSpace(predicate) == "" {
		return nil, newConfigError(ErrNoVictimsSpecified)
	}

	filter := predicate
	if sqlBackedDrivers[layer.Driver()] {
		filter = rewriteAreaToken(predicate, layer.GeometryColumnName())
	}

	if err := layer.SetAttributeFilter(filter); err != nil {
		return nil, newSourceError(fmt.Errorf("%w: %v", ErrSelectorFilterInvalid, err))
	}
	defer layer.ClearAttributeFilter()

	it := layer.Iterate()
	defer it.Close()

	var fids []int64
	for it.Next() {
		fids = append(fids, it.Feature().FID)
	}
	if err := it.Err(); err != nil {
		return nil, newSourceError(fmt.Errorf("%w: %v", ErrSelectorFilterInvalid, err))
	}
	return fids, nil
}

// SelectByIDList parses each string in ids with strict decimal-integer
// semantics. An empty string, trailing garbage, a negative value, or an
// overflow yields NullFID for that entry rather than aborting the whole
// list. The result de-duplicates while preserving first-seen order; every
// NullFID entry is dropped (it was never a real selection).
func SelectByIDList(ids []string) ([]int64, error) {
	if len(ids) == 0 {
		return nil, newConfigError(ErrNoVictimsSpecified)
	}
	seen := make(map[int64]bool, len(ids))
	var fids []int64
	for _, s := range ids {
		fid := parseFID(s)
		if fid == NullFID {
			continue
		}
		if seen[fid] {
			continue
		}
		seen[fid] = true
		fids = append(fids, fid)
	}
	if len(fids) == 0 {
		return nil, newConfigError(ErrNoVictimsSpecified)
	}
	return fids, nil
}

// parseFID applies strict decimal-integer parsing: no leading/trailing
// whitespace, no sign other than an implicit positive, no empty string.
// Anything that fails, including a negative value or an overflow, returns
// NullFID.
func parseFID(s string) int64 {
	if s == "" {
		return NullFID
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return NullFID
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return NullFID
	}
	return n
}

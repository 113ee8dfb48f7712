package plan

import (
	"sort"
	"strconv"
	"strings"
)

// CompareIDs orders dotted subexpression ids numerically level by level,
// so "1.10" sorts after "1.9". A prefix sorts before its extensions.
func CompareIDs(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		x, errX := strconv.Atoi(as[i])
		y, errY := strconv.Atoi(bs[i])
		if errX != nil || errY != nil {
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
			continue
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

// SortIDs sorts ids in place using CompareIDs.
func SortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool { return CompareIDs(ids[i], ids[j]) < 0 })
}

// Depth returns the number of dotted levels of id.
func Depth(id string) int {
	if id == "" {
		return 0
	}
	return strings.Count(id, ".") + 1
}

// GroupOf returns the level-1 numeral of id.
func GroupOf(id string) int {
	head, _, _ := strings.Cut(id, ".")
	n, _ := strconv.Atoi(head)
	return n
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

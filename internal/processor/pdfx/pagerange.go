package pdfx

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsePageRange expands a page range expression such as "1,3-5,10" into a
// sorted list of unique 1-based page numbers. An empty expression selects
// every page; a supplied expression with no page tokens (only commas or
// whitespace) selects none. Malformed tokens and pages outside [1, maxPages]
// are rejected. A maxPages of zero disables the bounds check, which lets the
// syntax be validated before the document's page count is known.
func ParsePageRange(expr string, maxPages int) ([]int, error) {
	if expr == "" {
		pages := make([]int, 0, maxPages)
		for p := 1; p <= maxPages; p++ {
			pages = append(pages, p)
		}
		return pages, nil
	}

	selected := make(map[int]struct{})
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			start, err1 := strconv.Atoi(strings.TrimSpace(bounds[0]))
			end, err2 := strconv.Atoi(strings.TrimSpace(bounds[1]))
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("invalid page range %q: use numbers or start-end", part)
			}
			if start > end || start < 1 {
				return nil, fmt.Errorf("invalid page range %q: start must be >= 1 and <= end", part)
			}
			if maxPages > 0 && end > maxPages {
				return nil, fmt.Errorf("invalid page range %q: document has %d pages", part, maxPages)
			}
			for p := start; p <= end; p++ {
				selected[p] = struct{}{}
			}
			continue
		}

		page, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page number %q", part)
		}
		if page < 1 || (maxPages > 0 && page > maxPages) {
			return nil, fmt.Errorf("page %d out of range: document has %d pages", page, maxPages)
		}
		selected[page] = struct{}{}
	}

	pages := make([]int, 0, len(selected))
	for p := range selected {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

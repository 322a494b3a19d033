// Package pdf reads the text layer of born-digital PDFs as positioned tokens.
package pdf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageCount returns the number of pages in a PDF file.
func PageCount(filename string) (int, error) {
	n, err := api.PageCountFile(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages of %q: %w", filename, err)
	}
	return n, nil
}

// ResolvePages expands a page range against the page count of a document.
// An empty range selects every page. Pages outside 1..total are an error.
func ResolvePages(pageRange string, total int) ([]int, error) {
	pages, err := ParsePageRange(pageRange)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		pages = make([]int, 0, total)
		for i := 1; i <= total; i++ {
			pages = append(pages, i)
		}
		return pages, nil
	}
	for _, p := range pages {
		if p < 1 || p > total {
			return nil, fmt.Errorf("page %d out of range (document has %d pages)", p, total)
		}
	}
	return pages, nil
}

// ParsePageRange parses a page range string like "1-5" or "1,3,5".
// Duplicates are dropped while the order of first appearance is kept.
func ParsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil // Empty means all pages
	}

	var pages []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		for _, p := range tokenPages {
			if !seen[p] {
				seen[p] = true
				pages = append(pages, p)
			}
		}
	}
	return pages, nil
}

// parseRangeToken parses either a single page token (e.g., "3") or a range token (e.g., "1-5").
func parseRangeToken(part string) ([]int, error) {
	if from, to, ok := strings.Cut(part, "-"); ok {
		start, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", from)
		}
		end, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", to)
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	return []int{page}, nil
}

package search

import "strconv"

const (
	// edgePages is the number of pages always shown at each end.
	edgePages = 1
	// neighbourPages is the number of pages shown either side of the current one.
	neighbourPages = 2
)

// Link is one entry of the pagination bar. Gap entries have no page.
type Link struct {
	Label   string `json:"label"`
	Page    int    `json:"page,omitempty"`
	Current bool   `json:"current,omitempty"`
	Gap     bool   `json:"gap,omitempty"`
}

// Links builds the pagination bar for the current page. It returns nil when
// there is at most one page.
func Links(current, total int) []Link {
	if total <= 1 {
		return nil
	}
	if current < 1 {
		current = 1
	}

	var links []Link
	if current > 1 {
		links = append(links, Link{Label: "«", Page: current - 1})
	}

	gapped := false
	for n := 1; n <= total; n++ {
		near := n >= current-neighbourPages && n <= current+neighbourPages
		edge := n <= edgePages || n > total-edgePages
		if !near && !edge {
			if !gapped {
				links = append(links, Link{Label: "…", Gap: true})
				gapped = true
			}
			continue
		}
		gapped = false
		links = append(links, Link{Label: strconv.Itoa(n), Page: n, Current: n == current})
	}

	if current < total {
		links = append(links, Link{Label: "»", Page: current + 1})
	}
	return links
}

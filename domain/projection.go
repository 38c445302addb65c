package domain

import (
	"strconv"
	"strings"
)

// Bucket is one kanban column in the projected board.
type Bucket struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Clients  []Client `json:"clients"`
	Count    int      `json:"count"`
}

// Stats aggregates over the full, unfiltered client list.
type Stats struct {
	Total       int    `json:"total"`
	InProgress  int    `json:"inProgress"`
	ClosureRate string `json:"closureRate"`
}

// Board is the view model pushed to the presentation layer.
type Board struct {
	Term    string   `json:"term,omitempty"`
	Buckets []Bucket `json:"buckets"`
	Stats   Stats    `json:"stats"`
}

// Matches reports whether the client matches a lowercased search term.
// The term matches on name or email substring; phone is not searched.
func (c Client) Matches(term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), term) ||
		strings.Contains(strings.ToLower(c.Email), term)
}

// Project partitions the filtered clients into stage buckets, preserving the
// source list order, and computes aggregate stats over the unfiltered list.
// Project is pure: it performs no I/O and does not mutate its inputs.
func Project(clients []Client, term string) Board {
	term = strings.ToLower(strings.TrimSpace(term))

	buckets := make([]Bucket, len(Categories))
	index := make(map[Category]int, len(Categories))
	for i, cat := range Categories {
		buckets[i] = Bucket{Category: cat, Label: cat.DisplayLabel(), Clients: []Client{}}
		index[cat] = i
	}

	closed := 0
	inProgress := 0
	for _, c := range clients {
		switch c.Category {
		case CategoryClosed:
			closed++
		case CategoryInProgress:
			inProgress++
		}
		if !c.Matches(term) {
			continue
		}
		// Out-of-range persisted categories still render: they get their own
		// trailing bucket labeled with the raw value (fallback display).
		i, ok := index[c.Category]
		if !ok {
			i = len(buckets)
			index[c.Category] = i
			buckets = append(buckets, Bucket{Category: c.Category, Label: c.Category.DisplayLabel(), Clients: []Client{}})
		}
		buckets[i].Clients = append(buckets[i].Clients, c)
		buckets[i].Count++
	}

	return Board{
		Term:    term,
		Buckets: buckets,
		Stats: Stats{
			Total:       len(clients),
			InProgress:  inProgress,
			ClosureRate: closureRate(closed, len(clients)),
		},
	}
}

// closureRate formats closed/total as a percentage rounded to one decimal.
// Zero totals yield "0%" rather than a division error.
func closureRate(closed, total int) string {
	if total == 0 {
		return "0%"
	}
	rate := float64(closed) / float64(total) * 100
	return strconv.FormatFloat(rate, 'f', 1, 64) + "%"
}

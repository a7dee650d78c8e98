package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/algoviz/internal/race"
)

type HistoryExport struct {
	Races int            `json:"races"`
	Wins  map[string]int `json:"wins"`
	Items []race.Record  `json:"items"`
}

// ExportHistory writes records as indented JSON together with a win count
// per algorithm.
func ExportHistory(w io.Writer, records []race.Record) error {
	data := HistoryExport{
		Races: len(records),
		Wins:  make(map[string]int),
		Items: records,
	}
	for _, rec := range records {
		if winner, ok := rec.Winner(); ok {
			data.Wins[string(winner.AlgorithmID)]++
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

package model

import "time"

// Info summarizes a model for display.
type Info struct {
	ID           string                  `json:"id"`
	CreatedAt    time.Time               `json:"createdAt"`
	Charts       int                     `json:"charts"`
	LinearSource bool                    `json:"linearSource"`
	Tables       map[string]int          `json:"tables"`
	Difficulty   map[int]DifficultyStats `json:"difficulty"`
}

// Info counts the entries of every table.
func (m *TrainedModel) Info() Info {
	s := m.Snapshot()
	info := Info{
		ID:           m.ID,
		CreatedAt:    m.CreatedAt,
		Charts:       m.Charts,
		LinearSource: m.LinearSource,
		Tables:       make(map[string]int, len(s.Tables)+1),
		Difficulty:   m.Difficulty,
	}
	for name, table := range s.Tables {
		info.Tables[name] = len(table)
	}
	info.Tables["timing"] = len(s.Timing)
	return info
}

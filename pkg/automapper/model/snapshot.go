package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

const SnapshotVersion = 1

const (
	TableBigrams     = "bigrams"
	TableTrigrams    = "trigrams"
	TablePatterns    = "patterns"
	TableContexts    = "contexts"
	TableTransitions = "transitions"
	TableEnergyZones = "energyZones"
	TableBuildups    = "buildups"
	TableBreakdowns  = "breakdowns"
	TableProximity   = "proximity"
	TableSymmetry    = "symmetry"
	TableRhythms     = "rhythms"
)

var ErrCorruptSnapshot = errors.New("corrupt model snapshot")

// Snapshot is the flat, serializable form of a TrainedModel: every table is
// a plain key -> number mapping.
type Snapshot struct {
	Version      int                           `json:"version"`
	ID           string                        `json:"id"`
	CreatedAt    time.Time                     `json:"createdAt"`
	Charts       int                           `json:"charts"`
	LinearSource bool                          `json:"linearSource"`
	Tables       map[string]map[string]float64 `json:"tables"`
	Timing       map[string]TimingStat         `json:"timing"`
	Difficulty   map[string]DifficultyStats    `json:"difficulty"`
}

// Snapshot flattens the model.
func (m *TrainedModel) Snapshot() Snapshot {
	s := Snapshot{
		Version:      SnapshotVersion,
		ID:           m.ID,
		CreatedAt:    m.CreatedAt,
		Charts:       m.Charts,
		LinearSource: m.LinearSource,
		Tables:       make(map[string]map[string]float64),
		Timing:       make(map[string]TimingStat, len(m.BigramTiming)),
		Difficulty:   make(map[string]DifficultyStats, len(m.Difficulty)),
	}

	bigrams := make(map[string]float64)
	for a, next := range m.Bigrams {
		for b, n := range next {
			bigrams[PatternKey([]int{a, b})] = n
		}
	}
	s.Tables[TableBigrams] = bigrams

	trigrams := make(map[string]float64)
	for prefix, next := range m.Trigrams {
		for c, n := range next {
			trigrams[prefix+","+strconv.Itoa(c)] = n
		}
	}
	s.Tables[TableTrigrams] = trigrams

	contexts := make(map[string]float64)
	for ctx, next := range m.Contexts {
		for z, n := range next {
			contexts[ctx+">"+strconv.Itoa(z)] = n
		}
	}
	s.Tables[TableContexts] = contexts

	transitions := make(map[string]float64)
	for from, next := range m.Transitions {
		for to, n := range next {
			transitions[from+">"+to] = n
		}
	}
	s.Tables[TableTransitions] = transitions

	energy := make(map[string]float64)
	for bucket, zones := range m.EnergyZones {
		for z, n := range zones {
			energy[strconv.Itoa(bucket)+":"+strconv.Itoa(z)] = n
		}
	}
	s.Tables[TableEnergyZones] = energy

	s.Tables[TablePatterns] = copyTable(m.Patterns)
	s.Tables[TableBuildups] = copyTable(m.Buildups)
	s.Tables[TableBreakdowns] = copyTable(m.Breakdowns)
	s.Tables[TableSymmetry] = copyTable(m.Symmetry)
	s.Tables[TableProximity] = intKeyed(m.Proximity)
	s.Tables[TableRhythms] = intKeyed(m.Rhythms)

	for k, v := range m.BigramTiming {
		s.Timing[k] = v
	}
	for d, v := range m.Difficulty {
		s.Difficulty[strconv.Itoa(d)] = v
	}
	return s
}

// FromSnapshot rebuilds a model from its flat form.
func FromSnapshot(s Snapshot) (*TrainedModel, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, s.Version)
	}

	m := newModel()
	m.ID = s.ID
	m.CreatedAt = s.CreatedAt
	m.Charts = s.Charts
	m.LinearSource = s.LinearSource

	for key, n := range s.Tables[TableBigrams] {
		p, err := ParsePattern(key)
		if err != nil || len(p) != 2 {
			return nil, corrupt(TableBigrams, key)
		}
		setNested(m.Bigrams, p[0], p[1], n)
	}

	for key, n := range s.Tables[TableTrigrams] {
		p, err := ParsePattern(key)
		if err != nil || len(p) != 3 {
			return nil, corrupt(TableTrigrams, key)
		}
		setNested(m.Trigrams, PatternKey(p[:2]), p[2], n)
	}

	for key, n := range s.Tables[TableContexts] {
		ctx, next, err := splitPair(key, ">")
		if err != nil {
			return nil, corrupt(TableContexts, key)
		}
		z, err := atoiZone(next)
		if err != nil {
			return nil, corrupt(TableContexts, key)
		}
		setNested(m.Contexts, ctx, z, n)
	}

	for key, n := range s.Tables[TableTransitions] {
		from, to, err := splitPair(key, ">")
		if err != nil {
			return nil, corrupt(TableTransitions, key)
		}
		setNested(m.Transitions, from, to, n)
	}

	for key, n := range s.Tables[TableEnergyZones] {
		b, z, err := splitPair(key, ":")
		if err != nil {
			return nil, corrupt(TableEnergyZones, key)
		}
		bucket, err := strconv.Atoi(b)
		if err != nil {
			return nil, corrupt(TableEnergyZones, key)
		}
		zone, err := atoiZone(z)
		if err != nil {
			return nil, corrupt(TableEnergyZones, key)
		}
		setNested(m.EnergyZones, bucket, zone, n)
	}

	fill(m.Patterns, s.Tables[TablePatterns])
	fill(m.Buildups, s.Tables[TableBuildups])
	fill(m.Breakdowns, s.Tables[TableBreakdowns])
	fill(m.Symmetry, s.Tables[TableSymmetry])
	if err := fillInt(m.Proximity, s.Tables[TableProximity]); err != nil {
		return nil, err
	}
	if err := fillInt(m.Rhythms, s.Tables[TableRhythms]); err != nil {
		return nil, err
	}

	for k, v := range s.Timing {
		m.BigramTiming[k] = v
	}
	for key, v := range s.Difficulty {
		d, err := strconv.Atoi(key)
		if err != nil {
			return nil, corrupt("difficulty", key)
		}
		m.Difficulty[d] = v
	}

	return m, nil
}

// Marshal encodes the model as indented JSON.
func Marshal(m *TrainedModel) ([]byte, error) {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model: %w", err)
	}
	return data, nil
}

// Unmarshal decodes JSON produced by Marshal.
func Unmarshal(data []byte) (*TrainedModel, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return FromSnapshot(s)
}

// WriteJSON streams the model to w.
func WriteJSON(w io.Writer, m *TrainedModel) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadJSON reads a model written by WriteJSON.
func ReadJSON(r io.Reader) (*TrainedModel, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	return Unmarshal(data)
}

func corrupt(table, key string) error {
	return fmt.Errorf("%w: table %s: bad key %q", ErrCorruptSnapshot, table, key)
}

func copyTable(src map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func intKeyed(src map[int]float64) map[string]float64 {
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[strconv.Itoa(k)] = v
	}
	return out
}

func fill(dst, src map[string]float64) {
	for k, v := range src {
		dst[k] = v
	}
}

func fillInt(dst map[int]float64, src map[string]float64) error {
	for k, v := range src {
		i, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("%w: bad integer key %q", ErrCorruptSnapshot, k)
		}
		dst[i] = v
	}
	return nil
}

package tuning

// Tuning collects every probability and ratio the heuristics depend on.
type Tuning struct {
	// Zone assignment, trained and expert paths
	EnergyBucketChance float64
	PatternChance      float64
	ExpertBigramChance float64
	SpectralBiasChance float64

	// maimai-style path; symmetry and flow break are scaled by 2*intensity
	MaimaiFlowContinue float64
	MaimaiSymmetry     float64
	MaimaiStep         float64

	// Candidate filter
	DenseContrastRatio  float64
	SparseContrastRatio float64
	DenseIntervalFactor float64
	SparseIntervalScale float64
	EnergyBoost         float64
	WeightBoost         float64
	MaxAcceptChance     float64
	HighDifficultyPass  float64
	MeaningfulEnergy    float64
	SpamRateMultiplier  float64
	DensityFloorRatio   float64

	// Chord injector
	ChordClearanceMs    float64
	ChordIsolationMs    float64
	ChordPhraseEndBoost float64
	ChordStrongBoost    float64
	ChordMediumBoost    float64
	ChordIsolationBoost float64
	ChordAdjacentChance float64
	ChordMaxChance      float64

	// Style enhancer
	BurstDensityMs     float64
	BurstGapMs         float64
	SymmetryNoteChance float64
	SymmetryGapMs      float64
	ZigzagSmoothChance float64
	ClimaxOverlay      float64
}

// Default returns the shipped tuning.
func Default() Tuning {
	return Tuning{
		EnergyBucketChance: 0.4,
		PatternChance:      0.5,
		ExpertBigramChance: 0.7,
		SpectralBiasChance: 0.35,

		MaimaiFlowContinue: 0.85,
		MaimaiSymmetry:     0.3,
		MaimaiStep:         0.4,

		DenseContrastRatio:  1.3,
		SparseContrastRatio: 0.7,
		DenseIntervalFactor: 0.75,
		SparseIntervalScale: 1.25,
		EnergyBoost:         0.3,
		WeightBoost:         0.2,
		MaxAcceptChance:     0.99,
		HighDifficultyPass:  0.95,
		MeaningfulEnergy:    0.1,
		SpamRateMultiplier:  1.5,
		DensityFloorRatio:   0.99,

		ChordClearanceMs:    300,
		ChordIsolationMs:    600,
		ChordPhraseEndBoost: 0.4,
		ChordStrongBoost:    0.3,
		ChordMediumBoost:    0.15,
		ChordIsolationBoost: 0.2,
		ChordAdjacentChance: 0.35,
		ChordMaxChance:      0.9,

		BurstDensityMs:     200,
		BurstGapMs:         400,
		SymmetryNoteChance: 0.1,
		SymmetryGapMs:      300,
		ZigzagSmoothChance: 0.4,
		ClimaxOverlay:      0.6,
	}
}

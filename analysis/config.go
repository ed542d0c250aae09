package analysis

// AnalyzerConfig holds the framing and windowing parameters of the
// analysis pipeline
type AnalyzerConfig struct {
	// Spectral framing
	WindowSize int `json:"window_size"` // Samples per analysis frame
	HopSize    int `json:"hop_size"`    // Samples between frames

	// Beat grid
	SnapTolerance float64 `json:"snap_tolerance"` // Fraction of a beat interval
	GapFactor     float64 `json:"gap_factor"`     // Gap > factor*interval gets filled
	BeatsPerBar   int     `json:"beats_per_bar"`

	// Structure
	PhraseWindowBeats    int     `json:"phrase_window_beats"`
	TempoCurveBeats      int     `json:"tempo_curve_beats"`
	TempoCurveStepBeats  int     `json:"tempo_curve_step_beats"`
	EnergyCurveStep      float64 `json:"energy_curve_step"` // Seconds
	EdgeWindow           float64 `json:"edge_window"`       // Intro/outro position window, seconds
	ChorusEnergy         float64 `json:"chorus_energy"`
	PreChorusEnergy      float64 `json:"pre_chorus_energy"`
	VerseEnergy          float64 `json:"verse_energy"`
	MinBeatsForStructure int     `json:"min_beats_for_structure"`
}

// DefaultAnalyzerConfig returns the standard pipeline parameters
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		WindowSize:           2048,
		HopSize:              512,
		SnapTolerance:        0.15,
		GapFactor:            1.5,
		BeatsPerBar:          4,
		PhraseWindowBeats:    16,
		TempoCurveBeats:      8,
		TempoCurveStepBeats:  4,
		EnergyCurveStep:      0.1,
		EdgeWindow:           20.0,
		ChorusEnergy:         0.75,
		PreChorusEnergy:      0.6,
		VerseEnergy:          0.45,
		MinBeatsForStructure: 8,
	}
}

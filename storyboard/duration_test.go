package storyboard

import (
	"math"
	"strings"
	"testing"

	"github.com/soundsketch/beatgrid/analysis"
	"github.com/soundsketch/beatgrid/logging"
)

func newTestOptimizer() *DurationOptimizer {
	return NewDurationOptimizer(&logging.NoOpLogger{})
}

// flatEnergySong builds an analysis whose energy curve is constant, with
// no beats, phrases, or measures
func flatEnergySong(duration, energy float64) *analysis.SongAnalysis {
	return &analysis.SongAnalysis{
		Duration: duration,
		BPM:      120,
		EnergyCurve: []analysis.CurvePoint{
			{Time: 0, Value: energy},
			{Time: duration, Value: energy},
		},
	}
}

func beatsEvery(spacing, until float64) []analysis.Beat {
	var beats []analysis.Beat
	for t := 0.0; t <= until; t += spacing {
		beats = append(beats, analysis.Beat{Time: t, Energy: 0.5, Confidence: 0.9, Type: analysis.BeatKick})
	}
	return beats
}

func TestOptimalDurationIdentity(t *testing.T) {
	o := newTestOptimizer()

	// No alignment flags, no flexibility, neutral energy: duration is
	// returned unchanged
	shot := &Shot{ID: "s1", Start: 2.0, End: 5.0}
	song := &analysis.SongAnalysis{Duration: 60, BPM: 120}

	if got := o.OptimalDuration(shot, song, nil, ""); got != 3.0 {
		t.Errorf("OptimalDuration = %v, want 3.0 (identity)", got)
	}
}

func TestOptimalDurationPreferred(t *testing.T) {
	o := newTestOptimizer()

	shot := &Shot{
		ID: "s1", Start: 2.0, End: 5.0,
		DurationFlexibility: &DurationFlexibility{MinDuration: 1, MaxDuration: 10, PreferredDuration: 4.5},
	}
	song := flatEnergySong(60, 0.5)

	if got := o.OptimalDuration(shot, song, nil, ""); got != 4.5 {
		t.Errorf("OptimalDuration = %v, want preferred 4.5", got)
	}
}

func TestOptimalDurationEnergyPacing(t *testing.T) {
	o := newTestOptimizer()

	tests := []struct {
		name   string
		energy float64
		want   float64
	}{
		{"high energy cuts faster", 0.9, 5.6},
		{"low energy lingers", 0.2, 8.4},
		{"mid energy unchanged", 0.55, 7.0},
	}
	for _, tt := range tests {
		shot := &Shot{ID: "s1", Start: 10.0, End: 17.0}
		got := o.OptimalDuration(shot, flatEnergySong(60, tt.energy), nil, "")
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: OptimalDuration = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOptimalDurationAlignEndToBeat(t *testing.T) {
	o := newTestOptimizer()

	song := &analysis.SongAnalysis{Duration: 60, BPM: 120, Beats: beatsEvery(0.5, 60)}
	shot := &Shot{
		ID: "s1", Start: 10.0, End: 16.8,
		MusicAlignment: &MusicAlignment{AlignEndToBeat: true},
	}

	// 16.8 snaps to the beat at 17.0 with neutral (absent) energy curve
	if got := o.OptimalDuration(shot, song, nil, ""); math.Abs(got-7.0) > 1e-9 {
		t.Errorf("OptimalDuration = %v, want 7.0 (end snapped to 17.0)", got)
	}
}

func TestOptimalDurationExtendToPhrase(t *testing.T) {
	o := newTestOptimizer()

	song := &analysis.SongAnalysis{
		Duration: 60,
		BPM:      120,
		Phrases:  []analysis.MusicalPhrase{{Start: 8, End: 16, Type: analysis.PhraseChorus}},
	}
	shot := &Shot{
		ID: "s1", Start: 10.0, End: 13.0,
		MusicAlignment: &MusicAlignment{ExtendToCompletePhrase: true},
	}

	if got := o.OptimalDuration(shot, song, nil, ""); math.Abs(got-6.0) > 1e-9 {
		t.Errorf("OptimalDuration = %v, want 6.0 (run out to phrase end 16.0)", got)
	}
}

func TestOptimalDurationZeroBeatsLeavesDurationAlone(t *testing.T) {
	o := newTestOptimizer()

	shot := &Shot{
		ID: "s1", Start: 1.0, End: 4.0,
		MusicAlignment: &MusicAlignment{AlignStartToBeat: true, AlignEndToBeat: true},
	}
	song := &analysis.SongAnalysis{Duration: 60, BPM: 120}

	if got := o.OptimalDuration(shot, song, nil, ""); got != 3.0 {
		t.Errorf("OptimalDuration with no beats = %v, want 3.0 unchanged", got)
	}
}

func TestAlignmentScorePerfect(t *testing.T) {
	o := newTestOptimizer()

	song := &analysis.SongAnalysis{
		Duration: 60,
		BPM:      120,
		Beats: []analysis.Beat{
			{Time: 10.0, Energy: 0.5, Confidence: 0.9},
			{Time: 16.0, Energy: 0.5, Confidence: 0.9},
		},
		Phrases: []analysis.MusicalPhrase{{Start: 10, End: 16, Type: analysis.PhraseChorus}},
	}
	shot := &Shot{ID: "s1", Start: 10.0, End: 16.0}

	if got := o.AlignmentScore(shot, song); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("AlignmentScore = %v, want 1.0", got)
	}
}

func TestAlignmentScoreSparseData(t *testing.T) {
	o := newTestOptimizer()

	// Weights are fixed: with no beats or phrases the score is simply 0,
	// not renormalized over the available signals
	shot := &Shot{ID: "s1", Start: 10.0, End: 16.0}
	if got := o.AlignmentScore(shot, &analysis.SongAnalysis{Duration: 60}); got != 0 {
		t.Errorf("AlignmentScore with no data = %v, want 0", got)
	}
}

func TestAlignmentScoreHalfCredit(t *testing.T) {
	o := newTestOptimizer()

	song := &analysis.SongAnalysis{
		Duration: 60,
		BPM:      120,
		Beats:    []analysis.Beat{{Time: 10.07}, {Time: 16.07}},
	}
	shot := &Shot{ID: "s1", Start: 10.0, End: 16.0}

	// Both boundaries 70ms off: half credit each, no phrase credit
	if got := o.AlignmentScore(shot, song); math.Abs(got-0.4) > 1e-9 {
		t.Errorf("AlignmentScore = %v, want 0.4", got)
	}
}

func TestValidateDurationConstraints(t *testing.T) {
	o := newTestOptimizer()

	tests := []struct {
		name string
		shot *Shot
		want string
	}{
		{
			"too short",
			&Shot{ID: "s1", Start: 0, End: 0.05},
			"too short",
		},
		{
			"unusually long",
			&Shot{ID: "s2", Start: 0, End: 45},
			"unusually long",
		},
		{
			"below minimum",
			&Shot{ID: "s3", Start: 0, End: 2, DurationFlexibility: &DurationFlexibility{MinDuration: 3, MaxDuration: 8}},
			"below minimum",
		},
		{
			"exceeds maximum",
			&Shot{ID: "s4", Start: 0, End: 9, DurationFlexibility: &DurationFlexibility{MinDuration: 3, MaxDuration: 8}},
			"exceeds maximum",
		},
		{
			"min greater than max",
			&Shot{ID: "s5", Start: 0, End: 5, DurationFlexibility: &DurationFlexibility{MinDuration: 8, MaxDuration: 3}},
			"greater than maximum",
		},
		{
			"preferred deviation",
			&Shot{ID: "s6", Start: 0, End: 10, DurationFlexibility: &DurationFlexibility{MinDuration: 1, MaxDuration: 20, PreferredDuration: 5}},
			"deviates",
		},
	}
	for _, tt := range tests {
		warnings := o.ValidateDurationConstraints(tt.shot)
		found := false
		for _, w := range warnings {
			if strings.Contains(w, tt.want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s: warnings %v do not mention %q", tt.name, warnings, tt.want)
		}
	}
}

func TestValidateCleanShotHasNoWarnings(t *testing.T) {
	o := newTestOptimizer()

	shot := &Shot{
		ID: "s1", Start: 0, End: 7,
		DurationFlexibility: &DurationFlexibility{MinDuration: 6, MaxDuration: 8, PreferredDuration: 7},
	}
	if warnings := o.ValidateDurationConstraints(shot); len(warnings) != 0 {
		t.Errorf("clean shot produced warnings: %v", warnings)
	}
}

func TestAdjustStoryboardReport(t *testing.T) {
	o := newTestOptimizer()

	song := &analysis.SongAnalysis{Duration: 60, BPM: 120, Beats: beatsEvery(0.5, 60)}
	sb := &Storyboard{
		Scenes: []*Scene{{
			SectionName: "verse",
			Start:       0,
			End:         20,
			Shots: []*Shot{
				{ID: "a", Start: 0, End: 6.8, MusicAlignment: &MusicAlignment{AlignEndToBeat: true}},
				{ID: "b", Start: 7.5, End: 14.5},
			},
		}},
	}

	report := o.AdjustStoryboard(sb, song, nil, "")
	if report.TotalShotsAdjusted != 1 {
		t.Errorf("TotalShotsAdjusted = %d, want 1 (only the aligned shot moves)", report.TotalShotsAdjusted)
	}
	if report.AverageAlignmentScore < 0 || report.AverageAlignmentScore > 1 {
		t.Errorf("AverageAlignmentScore = %v, want within [0, 1]", report.AverageAlignmentScore)
	}
	if len(report.TimingImprovements) != 1 {
		t.Errorf("TimingImprovements = %v, want one entry", report.TimingImprovements)
	}
	if len(sb.Scenes[0].Transitions) != 1 {
		t.Errorf("transitions = %d, want len(shots)-1 = 1", len(sb.Scenes[0].Transitions))
	}
}

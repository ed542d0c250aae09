package storyboard

import (
	"fmt"
	"math"

	"github.com/soundsketch/beatgrid/algorithms/common"
	"github.com/soundsketch/beatgrid/analysis"
	"github.com/soundsketch/beatgrid/logging"
)

// Default duration clamp when a shot carries no flexibility
const (
	defaultMinDuration = 0.5
	defaultMaxDuration = 10.0
)

// Alignment score weights. Deliberately fixed: a shot analyzed without
// beats or phrases cannot reach full credit, but its score stays
// comparable with shots that had the full grid available.
const (
	beatWeight       = 0.4
	beatHalfWeight   = 0.2
	phraseWeight     = 0.2
	tightTolerance   = 0.05 // Full credit inside 50ms
	looseTolerance   = 0.1  // Half credit inside 100ms
	measurePullAhead = 0.5  // Extend to a bar line this close past the end
)

// DurationOptimizer adjusts one shot's timing against a SongAnalysis.
// Stateless; safe to share across runs.
type DurationOptimizer struct {
	logger logging.Logger
}

// NewDurationOptimizer creates a duration optimizer. A nil logger falls
// back to the global logger.
func NewDurationOptimizer(logger logging.Logger) *DurationOptimizer {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &DurationOptimizer{
		logger: logger.WithFields(logging.Fields{"component": "duration_optimizer"}),
	}
}

// OptimalDuration computes the adjusted duration for a shot. With no
// alignment directives and no duration flexibility, the shot's own
// duration comes back unchanged. Always best-effort: a degenerate
// analysis (no beats, no curves) leaves the duration alone.
func (o *DurationOptimizer) OptimalDuration(shot *Shot, song *analysis.SongAnalysis, sections []analysis.Section, lyrics string) float64 {
	_, duration := o.placement(shot, song, sections, lyrics)
	return duration
}

// AdjustShot applies the optimal placement to the shot in place
func (o *DurationOptimizer) AdjustShot(shot *Shot, song *analysis.SongAnalysis, sections []analysis.Section, lyrics string) {
	start, duration := o.placement(shot, song, sections, lyrics)
	shot.Start = start
	shot.End = start + duration
}

// placement runs the adjustment pipeline and returns the shot's new start
// and duration. The steps apply in a fixed order; each consumes the
// output of the previous one.
func (o *DurationOptimizer) placement(shot *Shot, song *analysis.SongAnalysis, sections []analysis.Section, lyrics string) (float64, float64) {
	start := shot.Start
	duration := shot.End - shot.Start

	flex := shot.DurationFlexibility
	if flex != nil && flex.PreferredDuration > 0 {
		duration = flex.PreferredDuration
	}

	var align MusicAlignment
	if shot.MusicAlignment != nil {
		align = *shot.MusicAlignment
	}

	// Phrase completion: run the shot out to the end of the phrase its
	// end falls inside
	if align.ExtendToCompletePhrase {
		if phrase, ok := song.PhraseAt(start + duration); ok {
			duration = phrase.End - start
		}
	}

	// With lyric context, a phrase-completing shot covers its whole
	// structural section so the sung line is not cut mid-thought
	if lyrics != "" && align.ExtendToCompletePhrase {
		candidate := duration + 6.0
		for _, sec := range sections {
			if start+duration >= sec.Start && start+duration < sec.End {
				candidate = sec.End - start
				break
			}
		}
		if candidate > duration {
			duration = candidate
		}
	}

	if align.AlignEndToBeat {
		if beat, ok := song.NearestBeat(start + duration); ok && beat.Time > start {
			duration = beat.Time - start
		}
	}

	// Snapping the start keeps the already-computed absolute end fixed
	if align.AlignStartToBeat {
		end := start + duration
		if beat, ok := song.NearestBeat(start); ok && beat.Time < end {
			start = beat.Time
			duration = end - start
		}
	}

	// A bar line just past the end pulls the shot out to it, never in
	end := start + duration
	for _, m := range song.Measures {
		if m.Time > end+measurePullAhead {
			break
		}
		if m.Time > end {
			duration = m.Time - start
			break
		}
	}

	// Energy pacing: high energy cuts faster, low energy lingers
	energy := song.EnergyAt(start)
	if energy > 0.7 {
		duration *= 0.8
	} else if energy < 0.4 {
		duration *= 1.2
	}

	lo, hi := defaultMinDuration, defaultMaxDuration
	if flex != nil {
		if flex.MinDuration > 0 {
			lo = flex.MinDuration
		}
		if flex.MaxDuration > 0 {
			hi = flex.MaxDuration
		}
	}
	duration = common.Clamp(duration, lo, hi)

	return start, duration
}

// AlignmentScore rates how well a shot's boundaries fit the beat and
// phrase grid: start-beat proximity 40%, end-beat proximity 40%,
// phrase-end proximity 20%.
func (o *DurationOptimizer) AlignmentScore(shot *Shot, song *analysis.SongAnalysis) float64 {
	score := 0.0

	score += beatProximityScore(shot.Start, song)
	score += beatProximityScore(shot.End, song)

	for _, phrase := range song.Phrases {
		if math.Abs(shot.End-phrase.End) < looseTolerance {
			score += phraseWeight
			break
		}
	}

	return score
}

func beatProximityScore(t float64, song *analysis.SongAnalysis) float64 {
	beat, ok := song.NearestBeat(t)
	if !ok {
		return 0.0
	}

	dist := math.Abs(beat.Time - t)
	switch {
	case dist < tightTolerance:
		return beatWeight
	case dist < looseTolerance:
		return beatHalfWeight
	default:
		return 0.0
	}
}

// ValidateDurationConstraints checks a shot against its flexibility and
// against absolute sanity bounds. Returns warnings only; nothing here
// blocks an adjustment.
func (o *DurationOptimizer) ValidateDurationConstraints(shot *Shot) []string {
	var warnings []string
	duration := shot.Duration()

	if flex := shot.DurationFlexibility; flex != nil {
		if flex.MinDuration > 0 && duration < flex.MinDuration {
			warnings = append(warnings, fmt.Sprintf("shot %s: duration %.2fs below minimum %.2fs", shot.ID, duration, flex.MinDuration))
		}
		if flex.MaxDuration > 0 && duration > flex.MaxDuration {
			warnings = append(warnings, fmt.Sprintf("shot %s: duration %.2fs exceeds maximum %.2fs", shot.ID, duration, flex.MaxDuration))
		}
		if flex.MaxDuration > 0 && flex.MinDuration > flex.MaxDuration {
			warnings = append(warnings, fmt.Sprintf("shot %s: invalid flexibility, minimum %.2fs greater than maximum %.2fs", shot.ID, flex.MinDuration, flex.MaxDuration))
		}
		if flex.PreferredDuration > 0 {
			deviation := math.Abs(duration-flex.PreferredDuration) / flex.PreferredDuration
			if deviation > 0.3 {
				warnings = append(warnings, fmt.Sprintf("shot %s: duration %.2fs deviates %.0f%% from preferred %.2fs", shot.ID, duration, deviation*100, flex.PreferredDuration))
			}
		}
	}

	if duration < 0.1 {
		warnings = append(warnings, fmt.Sprintf("shot %s: duration %.2fs is too short", shot.ID, duration))
	}
	if duration > 30 {
		warnings = append(warnings, fmt.Sprintf("shot %s: duration %.2fs is unusually long", shot.ID, duration))
	}

	return warnings
}

// AdjustStoryboard applies the optimizer to every shot in the storyboard
// and produces the run's adjustment report. Shots are mutated in place;
// the report is purely descriptive.
func (o *DurationOptimizer) AdjustStoryboard(sb *Storyboard, song *analysis.SongAnalysis, sections []analysis.Section, lyrics string) *AdjustmentReport {
	report := &AdjustmentReport{
		ConstraintViolations: []string{},
		TimingImprovements:   []string{},
	}
	if sb == nil || song == nil {
		return report
	}

	scoreSum := 0.0
	scored := 0

	for _, scene := range sb.Scenes {
		for _, shot := range scene.Shots {
			oldStart, oldEnd := shot.Start, shot.End
			o.AdjustShot(shot, song, sections, lyrics)

			if math.Abs(shot.Start-oldStart) > 1e-3 || math.Abs(shot.End-oldEnd) > 1e-3 {
				report.TotalShotsAdjusted++
				report.TimingImprovements = append(report.TimingImprovements,
					fmt.Sprintf("shot %s: [%.2f, %.2f] -> [%.2f, %.2f]", shot.ID, oldStart, oldEnd, shot.Start, shot.End))
			}

			report.ConstraintViolations = append(report.ConstraintViolations, o.ValidateDurationConstraints(shot)...)
			scoreSum += o.AlignmentScore(shot, song)
			scored++
		}
		scene.Normalize()
	}

	if scored > 0 {
		report.AverageAlignmentScore = scoreSum / float64(scored)
	}

	o.logger.Debug("storyboard adjusted", logging.Fields{
		"shots_adjusted": report.TotalShotsAdjusted,
		"avg_score":      report.AverageAlignmentScore,
		"violations":     len(report.ConstraintViolations),
	})

	return report
}

package storyboard

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/soundsketch/beatgrid/algorithms/common"
	"github.com/soundsketch/beatgrid/analysis"
	"github.com/soundsketch/beatgrid/logging"
)

// SchedulerConfig holds the coverage contract parameters
type SchedulerConfig struct {
	MinShotDuration     float64 `json:"min_shot_duration"`     // Seconds
	MaxShotDuration     float64 `json:"max_shot_duration"`     // Seconds
	TargetShotDuration  float64 `json:"target_shot_duration"`  // Cursor step, seconds
	MinRemainder        float64 `json:"min_remainder"`         // Leave spans shorter than this uncovered
	SceneReuseTolerance float64 `json:"scene_reuse_tolerance"` // Seconds
}

// DefaultSchedulerConfig returns the standard coverage contract:
// 6-8s shots targeting 7s, sections exhausted down to a 5.5s remainder.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MinShotDuration:     6.0,
		MaxShotDuration:     8.0,
		TargetShotDuration:  7.0,
		MinRemainder:        5.5,
		SceneReuseTolerance: 1.5,
	}
}

// CoverageScheduler walks a song's structural sections and synthesizes
// beat-aligned shots until every section is covered. The pass is an
// optional enhancement: any internal fault is logged and answered with
// the unmodified input storyboard.
type CoverageScheduler struct {
	cfg    SchedulerConfig
	logger logging.Logger
}

// NewCoverageScheduler creates a scheduler. A nil logger falls back to
// the global logger.
func NewCoverageScheduler(cfg SchedulerConfig, logger logging.Logger) *CoverageScheduler {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &CoverageScheduler{
		cfg:    cfg,
		logger: logger.WithFields(logging.Fields{"component": "coverage_scheduler"}),
	}
}

// EnsureCoverage returns a storyboard in which every structural section is
// covered by beat-aligned, duration-bounded shots. The input storyboard is
// never mutated; on any internal fault the input comes back unchanged.
// External serialization is required if callers share a storyboard.
func (cs *CoverageScheduler) EnsureCoverage(sb *Storyboard, song *analysis.SongAnalysis, sections []analysis.Section, vocals []analysis.VocalSegment, defaults ShotDefaults) *Storyboard {
	out, err := cs.ensure(sb, song, sections, vocals, defaults)
	if err != nil {
		cs.logger.Error(err, "coverage pass failed, storyboard unchanged")
		return sb
	}
	return out
}

func (cs *CoverageScheduler) ensure(sb *Storyboard, song *analysis.SongAnalysis, sections []analysis.Section, vocals []analysis.VocalSegment, defaults ShotDefaults) (out *Storyboard, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("coverage scheduler panic: %v", r)
		}
	}()

	if song == nil {
		return nil, fmt.Errorf("nil song analysis")
	}

	out = sb.Clone()
	if len(sections) == 0 {
		sections = analysis.FallbackSections(song.Duration)
	}

	for _, section := range sections {
		scene := cs.sceneFor(out, section)
		cs.fillScene(scene, section, cs.sectionTarget(section), song, vocals, defaults)
	}

	// Top up the longest sections first if the whole-track target is
	// still unmet
	if globalTarget := cs.globalTarget(song); out.TotalShots() < globalTarget {
		ordered := append([]analysis.Section(nil), sections...)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].End-ordered[i].Start > ordered[j].End-ordered[j].Start
		})

		deficit := globalTarget - out.TotalShots()
		for _, section := range ordered {
			if deficit <= 0 {
				break
			}
			scene := cs.sceneFor(out, section)
			deficit -= cs.fillScene(scene, section, len(scene.Shots)+deficit, song, vocals, defaults)
		}
	}

	sort.SliceStable(out.Scenes, func(i, j int) bool {
		return out.Scenes[i].Start < out.Scenes[j].Start
	})
	for _, scene := range out.Scenes {
		scene.Normalize()
	}

	cs.logger.Debug("coverage pass complete", logging.Fields{
		"sections": len(sections),
		"scenes":   len(out.Scenes),
		"shots":    out.TotalShots(),
	})

	return out, nil
}

func (cs *CoverageScheduler) sectionTarget(section analysis.Section) int {
	return int(math.Ceil((section.End - section.Start) / cs.cfg.TargetShotDuration))
}

func (cs *CoverageScheduler) globalTarget(song *analysis.SongAnalysis) int {
	return int(math.Ceil(song.Duration / cs.cfg.TargetShotDuration))
}

// sceneFor reuses the scene already covering this section, matching on
// name and start within the reuse tolerance, or appends a fresh one.
func (cs *CoverageScheduler) sceneFor(sb *Storyboard, section analysis.Section) *Scene {
	for _, scene := range sb.Scenes {
		if scene.SectionName == section.Name && math.Abs(scene.Start-section.Start) < cs.cfg.SceneReuseTolerance {
			return scene
		}
	}

	scene := &Scene{
		SectionName: section.Name,
		Start:       section.Start,
		End:         section.End,
	}
	sb.Scenes = append(sb.Scenes, scene)
	return scene
}

// fillScene advances a cursor from the end of the existing shots,
// synthesizing beat-snapped shots with one beat of gap between them,
// until the target count is met or the section runs out. Returns the
// number of shots added.
func (cs *CoverageScheduler) fillScene(scene *Scene, section analysis.Section, target int, song *analysis.SongAnalysis, vocals []analysis.VocalSegment, defaults ShotDefaults) int {
	interval := song.BeatInterval()

	cursor := section.Start
	for _, shot := range scene.Shots {
		if shot.End > cursor {
			cursor = shot.End
		}
	}

	added := 0
	for len(scene.Shots) < target {
		if section.End-cursor < cs.cfg.MinRemainder {
			break
		}

		start := cs.snapToBeat(cursor, song, interval)
		if start < section.Start {
			start = section.Start
		}

		duration := common.Clamp(cs.cfg.TargetShotDuration-interval, cs.cfg.MinShotDuration, cs.cfg.MaxShotDuration)
		end := cs.snapToBeat(start+duration, song, interval)
		if end > section.End {
			end = section.End
		}
		if end-start <= interval {
			break
		}

		scene.Shots = append(scene.Shots, cs.synthesizeShot(start, end, vocals, defaults))
		added++
		cursor = end + interval
	}

	return added
}

// snapToBeat moves t to the nearest beat, as long as the beat is within
// one beat interval so snapping never jumps the cursor across the grid
func (cs *CoverageScheduler) snapToBeat(t float64, song *analysis.SongAnalysis, interval float64) float64 {
	if beat, ok := song.NearestBeat(t); ok && math.Abs(beat.Time-t) <= interval {
		return beat.Time
	}
	return t
}

// synthesizeShot builds a default-content shot, tagged for lip-sync when
// its interval overlaps any vocalist's singing segments
func (cs *CoverageScheduler) synthesizeShot(start, end float64, vocals []analysis.VocalSegment, defaults ShotDefaults) *Shot {
	shot := &Shot{
		ID:      uuid.NewString(),
		Start:   start,
		End:     end,
		Content: defaults.Content,
	}
	if defaults.Flexibility != nil {
		flex := *defaults.Flexibility
		shot.DurationFlexibility = &flex
	}
	if defaults.Alignment != nil {
		align := *defaults.Alignment
		shot.MusicAlignment = &align
	}

	for _, vocal := range vocals {
		for _, iv := range vocal.Intervals {
			if iv.Overlaps(start, end) {
				shot.LipSyncHint = true
				shot.PerformerRefs = append(shot.PerformerRefs, vocal.VocalistID)
				break
			}
		}
	}

	return shot
}

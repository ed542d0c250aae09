package storyboard

import (
	"sort"
)

// DurationFlexibility bounds how far a shot's duration may be adjusted.
// min <= preferred <= max is expected; violations are reported by
// validation, never rejected.
type DurationFlexibility struct {
	MinDuration       float64 `json:"min_duration"`
	MaxDuration       float64 `json:"max_duration"`
	PreferredDuration float64 `json:"preferred_duration"`
}

// MusicAlignment holds independent, combinable alignment directives
type MusicAlignment struct {
	AlignStartToBeat       bool `json:"align_start_to_beat"`
	AlignEndToBeat         bool `json:"align_end_to_beat"`
	ExtendToCompletePhrase bool `json:"extend_to_complete_phrase"`
}

// Shot is a time-bounded visual segment. Start < End is invariant.
// What the shot depicts is opaque to this package; only its timing is
// adjusted here.
type Shot struct {
	ID                  string               `json:"id"`
	Start               float64              `json:"start"`
	End                 float64              `json:"end"`
	Content             string               `json:"content,omitempty"`
	DurationFlexibility *DurationFlexibility `json:"duration_flexibility,omitempty"`
	MusicAlignment      *MusicAlignment      `json:"music_alignment,omitempty"`
	PerformerRefs       []string             `json:"performer_refs,omitempty"`
	LipSyncHint         bool                 `json:"lip_sync_hint,omitempty"`
}

// Duration returns the shot length in seconds
func (s *Shot) Duration() float64 {
	return s.End - s.Start
}

// Transition joins two adjacent shots in a scene
type Transition struct {
	Type     string  `json:"type"`
	Duration float64 `json:"duration"`
}

// Scene groups the shots covering one structural section. Shots are
// sorted by start and ideally contiguous; a one-beat gap between shots
// is allowed.
type Scene struct {
	SectionName string       `json:"section_name"`
	Start       float64      `json:"start"`
	End         float64      `json:"end"`
	Shots       []*Shot      `json:"shots"`
	Transitions []Transition `json:"transitions"`
}

// Normalize sorts shots by start and resizes transitions so that
// len(transitions) == max(0, len(shots)-1)
func (sc *Scene) Normalize() {
	sort.SliceStable(sc.Shots, func(i, j int) bool {
		return sc.Shots[i].Start < sc.Shots[j].Start
	})

	want := len(sc.Shots) - 1
	if want < 0 {
		want = 0
	}
	for len(sc.Transitions) < want {
		sc.Transitions = append(sc.Transitions, Transition{Type: "cut"})
	}
	if len(sc.Transitions) > want {
		sc.Transitions = sc.Transitions[:want]
	}
}

// Storyboard is the full set of scenes for a track
type Storyboard struct {
	Scenes []*Scene `json:"scenes"`
}

// Clone deep-copies the storyboard so a scheduling pass can fail without
// touching the caller's snapshot
func (sb *Storyboard) Clone() *Storyboard {
	if sb == nil {
		return &Storyboard{}
	}

	out := &Storyboard{Scenes: make([]*Scene, 0, len(sb.Scenes))}
	for _, scene := range sb.Scenes {
		sceneCopy := &Scene{
			SectionName: scene.SectionName,
			Start:       scene.Start,
			End:         scene.End,
			Shots:       make([]*Shot, 0, len(scene.Shots)),
			Transitions: append([]Transition(nil), scene.Transitions...),
		}
		for _, shot := range scene.Shots {
			shotCopy := *shot
			if shot.DurationFlexibility != nil {
				flex := *shot.DurationFlexibility
				shotCopy.DurationFlexibility = &flex
			}
			if shot.MusicAlignment != nil {
				align := *shot.MusicAlignment
				shotCopy.MusicAlignment = &align
			}
			shotCopy.PerformerRefs = append([]string(nil), shot.PerformerRefs...)
			sceneCopy.Shots = append(sceneCopy.Shots, &shotCopy)
		}
		out.Scenes = append(out.Scenes, sceneCopy)
	}

	return out
}

// TotalShots counts shots across all scenes
func (sb *Storyboard) TotalShots() int {
	total := 0
	for _, scene := range sb.Scenes {
		total += len(scene.Shots)
	}
	return total
}

// AdjustmentReport describes one scheduling run. Purely informational;
// it never blocks a result.
type AdjustmentReport struct {
	TotalShotsAdjusted    int      `json:"total_shots_adjusted"`
	AverageAlignmentScore float64  `json:"average_alignment_score"`
	ConstraintViolations  []string `json:"constraint_violations"`
	TimingImprovements    []string `json:"timing_improvements"`
}

// ShotDefaults describes the content and constraints applied to shots
// synthesized by the coverage scheduler
type ShotDefaults struct {
	Content     string               `json:"content"`
	Flexibility *DurationFlexibility `json:"flexibility,omitempty"`
	Alignment   *MusicAlignment      `json:"alignment,omitempty"`
}

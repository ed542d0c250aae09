package analysis

import (
	"math"
	"testing"
)

// gridBeats builds a uniform beat sequence for structure tests
func gridBeats(count int, start, spacing, energy float64) []Beat {
	beats := make([]Beat, count)
	for i := 0; i < count; i++ {
		beats[i] = Beat{
			Time:       start + float64(i)*spacing,
			Energy:     energy,
			Confidence: 0.9,
			Type:       BeatKick,
		}
	}
	return beats
}

func TestDetectPhrasesNeedsEnoughBeats(t *testing.T) {
	a := newTestAnalyzer()

	if got := a.detectPhrases(gridBeats(7, 0, 0.5, 0.5), 100); len(got) != 0 {
		t.Errorf("detectPhrases(7 beats) = %d phrases, want 0", len(got))
	}
}

func TestDetectPhrasesClassification(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		name   string
		energy float64
		want   PhraseType
	}{
		{"chorus", 0.8, PhraseChorus},
		{"pre-chorus", 0.65, PhrasePreChorus},
		{"verse", 0.5, PhraseVerse},
		{"bridge", 0.3, PhraseBridge},
	}
	for _, tt := range tests {
		// Window starts at 30s, well clear of both track edges
		phrases := a.detectPhrases(gridBeats(16, 30, 0.5, tt.energy), 100)
		if len(phrases) != 1 {
			t.Fatalf("%s: got %d phrases, want 1", tt.name, len(phrases))
		}
		if phrases[0].Type != tt.want {
			t.Errorf("%s: type = %q, want %q", tt.name, phrases[0].Type, tt.want)
		}
	}
}

func TestDetectPhrasesPositionWinsOverEnergy(t *testing.T) {
	a := newTestAnalyzer()

	// Loud beats at the head of the track still read as intro
	phrases := a.detectPhrases(gridBeats(16, 0, 0.5, 0.9), 100)
	if len(phrases) != 1 || phrases[0].Type != PhraseIntro {
		t.Fatalf("head window = %+v, want a single intro", phrases)
	}

	// Beats ending inside the last 20s read as outro
	phrases = a.detectPhrases(gridBeats(16, 90, 0.5, 0.9), 100)
	if len(phrases) != 1 || phrases[0].Type != PhraseOutro {
		t.Fatalf("tail window = %+v, want a single outro", phrases)
	}
}

func TestDetectPhrasesOrderedNonOverlapping(t *testing.T) {
	a := newTestAnalyzer()

	phrases := a.detectPhrases(gridBeats(48, 30, 0.5, 0.5), 100)
	if len(phrases) != 3 {
		t.Fatalf("48 beats = %d phrases, want 3 windows of 16", len(phrases))
	}
	for i, p := range phrases {
		if p.End <= p.Start {
			t.Errorf("phrase %d: end %v <= start %v", i, p.End, p.Start)
		}
		if i > 0 && p.Start < phrases[i-1].End {
			t.Errorf("phrase %d overlaps previous", i)
		}
	}
}

func TestDetectMeasures(t *testing.T) {
	a := newTestAnalyzer()

	beats := gridBeats(10, 0, 0.5, 0.5)
	measures := a.detectMeasures(beats)

	// 10 beats make 2 complete bars of 4
	if len(measures) != 2 {
		t.Fatalf("got %d measures, want 2", len(measures))
	}
	if measures[0].BarNumber != 1 || measures[1].BarNumber != 2 {
		t.Errorf("bar numbers = %d, %d, want 1, 2", measures[0].BarNumber, measures[1].BarNumber)
	}
	if measures[0].Time != beats[0].Time || measures[1].Time != beats[4].Time {
		t.Errorf("measure times = %v, %v, want %v, %v", measures[0].Time, measures[1].Time, beats[0].Time, beats[4].Time)
	}
}

func TestComputeTempoCurve(t *testing.T) {
	a := newTestAnalyzer()

	if got := a.computeTempoCurve(gridBeats(7, 0, 0.5, 0.5)); len(got) != 0 {
		t.Errorf("tempo curve with 7 beats = %d points, want 0", len(got))
	}

	curve := a.computeTempoCurve(gridBeats(12, 0, 0.5, 0.5))
	if len(curve) != 2 {
		t.Fatalf("12 beats = %d tempo points, want 2 (8-beat window, step 4)", len(curve))
	}
	for i, p := range curve {
		if math.Abs(p.Value-120) > 1e-9 {
			t.Errorf("tempo point %d = %v BPM, want 120", i, p.Value)
		}
	}
}

func TestEnergyAtInterpolates(t *testing.T) {
	song := &SongAnalysis{
		EnergyCurve: []CurvePoint{{Time: 0, Value: 0}, {Time: 1, Value: 1}},
	}

	tests := []struct {
		t    float64
		want float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 0.25},
		{0.5, 0.5},
		{1, 1},
		{2, 1},
	}
	for _, tt := range tests {
		if got := song.EnergyAt(tt.t); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("EnergyAt(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}

	empty := &SongAnalysis{}
	if got := empty.EnergyAt(5); got != 0.5 {
		t.Errorf("EnergyAt with no curve = %v, want neutral 0.5", got)
	}
}

func TestNearestBeat(t *testing.T) {
	song := &SongAnalysis{Beats: gridBeats(4, 0, 1.0, 0.5)}

	if b, ok := song.NearestBeat(1.4); !ok || b.Time != 1.0 {
		t.Errorf("NearestBeat(1.4) = %v, %v, want beat at 1.0", b.Time, ok)
	}
	if b, ok := song.NearestBeat(1.6); !ok || b.Time != 2.0 {
		t.Errorf("NearestBeat(1.6) = %v, %v, want beat at 2.0", b.Time, ok)
	}

	empty := &SongAnalysis{}
	if _, ok := empty.NearestBeat(1.0); ok {
		t.Error("NearestBeat on empty analysis should report no beat")
	}
}

func TestFallbackSections(t *testing.T) {
	sections := FallbackSections(100)
	if len(sections) != 6 {
		t.Fatalf("got %d sections, want 6", len(sections))
	}

	wantNames := []string{"intro", "verse", "chorus", "verse", "chorus", "outro"}
	for i, s := range sections {
		if s.Name != wantNames[i] {
			t.Errorf("section %d name = %q, want %q", i, s.Name, wantNames[i])
		}
		if i > 0 && math.Abs(s.Start-sections[i-1].End) > 1e-12 {
			t.Errorf("section %d not contiguous with previous", i)
		}
	}
	if sections[0].Start != 0 || sections[5].End != 100 {
		t.Errorf("sections span [%v, %v], want [0, 100]", sections[0].Start, sections[5].End)
	}

	if got := FallbackSections(0); len(got) != 0 {
		t.Errorf("FallbackSections(0) = %d sections, want 0", len(got))
	}
}

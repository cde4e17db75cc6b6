package gamification

import "testing"

func TestLevelFor(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{0, 1},
		{1, 1},
		{99, 1},
		{100, 2},
		{105, 2},
		{199, 2},
		{400, 5},
		{999, 10},
		{1000, 11},
		{-5, 1},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.points); got != tt.want {
			t.Errorf("LevelFor(%d) = %d, want %d", tt.points, got, tt.want)
		}
	}
}

func TestProgressFor(t *testing.T) {
	p := ProgressFor(250)
	if p.Level != 3 || p.IntoLevel != 50 || p.ToNextLevel != 50 || p.PercentDone != 50 {
		t.Errorf("ProgressFor(250) = %+v", p)
	}

	p = ProgressFor(300)
	if p.Level != 4 || p.IntoLevel != 0 || p.ToNextLevel != 100 {
		t.Errorf("ProgressFor(300) = %+v", p)
	}
}

package service

import "testing"

func TestCalculateLevel(t *testing.T) {
	cases := []struct {
		points int
		level  int
		toNext int
	}{
		{0, 1, 50},
		{1, 1, 49},
		{49, 1, 1},
		{50, 2, 50},
		{99, 2, 1},
		{100, 3, 50},
		{149, 3, 1},
		{150, 4, 50},
		{200, 5, 50},
	}
	for _, tc := range cases {
		level, toNext := CalculateLevel(tc.points)
		if level != tc.level || toNext != tc.toNext {
			t.Fatalf("CalculateLevel(%d) = (%d, %d); want (%d, %d)",
				tc.points, level, toNext, tc.level, tc.toNext)
		}
	}
}

func TestCalculateLevel_Monotonic(t *testing.T) {
	prevLevel := 0
	for points := 0; points <= 1000; points++ {
		level, toNext := CalculateLevel(points)
		if level < prevLevel {
			t.Fatalf("level decreased at %d points: %d -> %d", points, prevLevel, level)
		}
		if toNext < 1 || toNext > 50 {
			t.Fatalf("pointsToNext at %d points = %d; want 1..50", points, toNext)
		}
		prevLevel = level
	}
}

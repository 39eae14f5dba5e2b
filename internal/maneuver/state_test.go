package maneuver

import "testing"

func TestClassifyState(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	cases := []struct {
		name     string
		heading  float64
		wind     float64
		wantPos  PointOfSail
		wantSide TackSide
	}{
		// Wind from the north throughout unless noted.
		{"close hauled starboard", 320, 0, Upwind, Starboard},
		{"close hauled port", 44, 0, Upwind, Port},
		{"beam reach starboard", 270, 0, Reaching, Starboard},
		{"beam reach port", 90, 0, Reaching, Port},
		{"running starboard", 190, 0, Downwind, Starboard},
		{"running port", 170, 0, Downwind, Port},
		{"head to wind", 0, 0, Upwind, Starboard},
		{"dead downwind", 180, 0, Downwind, Starboard},
		// Wind over the beam: the physical rule, not the patched
		// literals some trackers carry. Heading east, wind from the
		// east means the wind is dead ahead on starboard.
		{"east heading east wind", 90, 90, Upwind, Starboard},
		{"wind wraps across north", 350, 10, Upwind, Starboard},
		// The upwind bound is inclusive: a boat exactly on it reads
		// upwind on both tacks, never one upwind and one reaching.
		{"on upwind bound starboard", 315, 0, Upwind, Starboard},
		{"on upwind bound port", 45, 0, Upwind, Port},
		{"on downwind bound stays reaching", 120, 0, Reaching, Port},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ClassifyState(c.heading, c.wind, cfg)
			if got.PointOfSail != c.wantPos || got.Side != c.wantSide {
				t.Errorf("ClassifyState(%g, %g) = %v, want %s_%s",
					c.heading, c.wind, got, c.wantPos, c.wantSide)
			}
		})
	}
}

func TestParseSailingState(t *testing.T) {
	t.Parallel()
	for _, s := range []SailingState{
		{Upwind, Starboard},
		{Reaching, Port},
		{Downwind, Starboard},
	} {
		got, err := ParseSailingState(s.String())
		if err != nil {
			t.Fatalf("ParseSailingState(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("ParseSailingState(%q) = %v", s, got)
		}
	}
	for _, bad := range []string{"", "upwind", "upwind_left", "close_starboard"} {
		if _, err := ParseSailingState(bad); err == nil {
			t.Errorf("ParseSailingState(%q) succeeded", bad)
		}
	}
}

func TestRelativeWindAngle(t *testing.T) {
	t.Parallel()
	cases := []struct{ heading, wind, want float64 }{
		{0, 90, 90},    // wind to starboard
		{0, 270, -90},  // wind to port
		{350, 10, 20},  // wraps across north
		{90, 90, 0},    // head to wind
	}
	for _, c := range cases {
		if got := RelativeWindAngle(c.heading, c.wind); got != c.want {
			t.Errorf("RelativeWindAngle(%g,%g) = %g, want %g", c.heading, c.wind, got, c.want)
		}
	}
}

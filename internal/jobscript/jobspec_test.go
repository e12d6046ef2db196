package jobscript

import (
	"testing"
)

func TestArrayRangeString(t *testing.T) {
	tests := []struct {
		name  string
		array ArrayRange
		want  string
	}{
		{"with limit", ArrayRange{Start: 1, End: 2, Limit: 1}, "1-2%1"},
		{"without limit", ArrayRange{Start: 1, End: 10}, "1-10"},
		{"wide range capped", ArrayRange{Start: 5, End: 500, Limit: 8}, "5-500%8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.array.String(); got != tt.want {
				t.Errorf("String() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestParseArrayRange(t *testing.T) {
	tests := []struct {
		input   string
		want    ArrayRange
		wantErr bool
	}{
		{"1-2%1", ArrayRange{Start: 1, End: 2, Limit: 1}, false},
		{"1-10", ArrayRange{Start: 1, End: 10}, false},
		{" 3-7%2 ", ArrayRange{Start: 3, End: 7, Limit: 2}, false},
		{"2-1", ArrayRange{}, true},     // end precedes start
		{"0-5", ArrayRange{}, true},     // start below 1
		{"1-5%0", ArrayRange{}, true},   // zero limit is not a cap
		{"1-5%-2", ArrayRange{}, true},  // negative limit
		{"5", ArrayRange{}, true},       // no range separator
		{"a-b", ArrayRange{}, true},     // non-numeric
		{"1-2%many", ArrayRange{}, true}, // non-numeric limit
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseArrayRange(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseArrayRange(%q) failed: %v", tt.input, err)
			}
			if *got != tt.want {
				t.Errorf("got %+v; want %+v", *got, tt.want)
			}
		})
	}
}

func TestStagingRuleScript(t *testing.T) {
	init := StagingRule{Kind: StageInitIfAbsent, Source: "POSCAR", Target: "POSCAR_initial"}
	wantInit := "if [ ! -f POSCAR_initial ] ; then\n    cp POSCAR POSCAR_initial\nfi"
	if got := init.Script(); got != wantInit {
		t.Errorf("init Script() = %q; want %q", got, wantInit)
	}

	overwrite := StagingRule{Kind: StageOverwriteIfPresent, Source: "CONTCAR", Target: "POSCAR"}
	wantOverwrite := "if [ -f CONTCAR ] ; then\n    cp CONTCAR POSCAR\nfi"
	if got := overwrite.Script(); got != wantOverwrite {
		t.Errorf("overwrite Script() = %q; want %q", got, wantOverwrite)
	}
}

func TestRestartStagingOrdering(t *testing.T) {
	rules := RestartStaging("POSCAR", "POSCAR_initial", "CONTCAR")
	if len(rules) != 2 {
		t.Fatalf("len(rules) = %d; want 2", len(rules))
	}
	if rules[0].Kind != StageInitIfAbsent {
		t.Errorf("first rule kind = %s; want %s", rules[0].Kind, StageInitIfAbsent)
	}
	if rules[1].Kind != StageOverwriteIfPresent {
		t.Errorf("second rule kind = %s; want %s", rules[1].Kind, StageOverwriteIfPresent)
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := newConfigErr("time", "invalid wall-clock limit %q", "soon")
	want := `invalid job configuration: time: invalid wall-clock limit "soon"`
	if err.Error() != want {
		t.Errorf("Error() = %q; want %q", err.Error(), want)
	}
	if !IsConfigurationError(err) {
		t.Error("IsConfigurationError returned false")
	}
}

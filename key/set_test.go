package key

import (
	"errors"
	"testing"
)

func TestSetEquals(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want bool
	}{
		{
			name: "identical",
			a:    []string{"ctrl", "k"},
			b:    []string{"ctrl", "k"},
			want: true,
		},
		{
			name: "order insensitive",
			a:    []string{"k", "ctrl"},
			b:    []string{"ctrl", "k"},
			want: true,
		},
		{
			name: "case insensitive",
			a:    []string{"Ctrl", "K"},
			b:    []string{"ctrl", "k"},
			want: true,
		},
		{
			name: "control folds to ctrl",
			a:    []string{"control", "k"},
			b:    []string{"ctrl", "k"},
			want: true,
		},
		{
			name: "duplicate tokens collapse",
			a:    []string{"k", "k", "ctrl"},
			b:    []string{"ctrl", "k"},
			want: true,
		},
		{
			name: "subset is not equal",
			a:    []string{"ctrl"},
			b:    []string{"ctrl", "k"},
			want: false,
		},
		{
			name: "superset is not equal",
			a:    []string{"ctrl", "shift", "k"},
			b:    []string{"ctrl", "k"},
			want: false,
		},
		{
			name: "disjoint",
			a:    []string{"a"},
			b:    []string{"b"},
			want: false,
		},
		{
			name: "both empty",
			a:    nil,
			b:    nil,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSet(tt.a...).Equals(NewSet(tt.b...))
			if got != tt.want {
				t.Errorf("Equals(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Equality is symmetric.
			rev := NewSet(tt.b...).Equals(NewSet(tt.a...))
			if rev != tt.want {
				t.Errorf("Equals(%v, %v) = %v, want %v", tt.b, tt.a, rev, tt.want)
			}
		})
	}
}

func TestParseStep(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    []string
		wantErr bool
	}{
		{name: "single key", spec: "a", want: []string{"a"}},
		{name: "modifier combo", spec: "ctrl+k", want: []string{"ctrl", "k"}},
		{name: "mixed case", spec: "Ctrl+Shift+P", want: []string{"ctrl", "shift", "p"}},
		{name: "control alias", spec: "control+k", want: []string{"ctrl", "k"}},
		{name: "chord", spec: "a+b", want: []string{"a", "b"}},
		{name: "special key", spec: "escape", want: []string{"escape"}},
		{name: "empty", spec: "", wantErr: true},
		{name: "dangling plus", spec: "ctrl+", wantErr: true},
		{name: "double plus", spec: "ctrl++k", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStep(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStep(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !got.Equals(NewSet(tt.want...)) {
				t.Errorf("ParseStep(%q) = %v, want %v", tt.spec, got.Tokens(), tt.want)
			}
		})
	}
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    int
		wantErr bool
	}{
		{name: "single step", spec: "ctrl+s", want: 1},
		{name: "two steps", spec: "ctrl+k s", want: 2},
		{name: "three steps", spec: "g g d", want: 3},
		{name: "extra whitespace", spec: "  ctrl+k   s  ", want: 2},
		{name: "empty", spec: "", wantErr: true},
		{name: "whitespace only", spec: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := ParseSpec(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSpec(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(steps) != tt.want {
				t.Errorf("ParseSpec(%q) returned %d steps, want %d", tt.spec, len(steps), tt.want)
			}
		})
	}
}

func TestParseSpecEmptyError(t *testing.T) {
	_, err := ParseSpec("")
	if !errors.Is(err, ErrEmptySpec) {
		t.Errorf("ParseSpec(\"\") error = %v, want ErrEmptySpec", err)
	}
}

func TestFormatSpecRoundTrip(t *testing.T) {
	specs := []string{"ctrl+k s", "a+b", "ctrl+shift+p", "escape", "g g"}

	for _, spec := range specs {
		steps, err := ParseSpec(spec)
		if err != nil {
			t.Fatalf("ParseSpec(%q) error = %v", spec, err)
		}
		again, err := ParseSpec(FormatSpec(steps))
		if err != nil {
			t.Fatalf("reparse of %q error = %v", FormatSpec(steps), err)
		}
		if !StepsEqual(steps, again) {
			t.Errorf("round trip of %q changed steps", spec)
		}
	}
}

func TestSetString(t *testing.T) {
	tests := []struct {
		tokens []string
		want   string
	}{
		{[]string{"k", "ctrl"}, "ctrl+k"},
		{[]string{"shift", "ctrl", "p"}, "ctrl+shift+p"},
		{[]string{"b", "a"}, "a+b"},
		{[]string{"escape"}, "escape"},
	}

	for _, tt := range tests {
		got := NewSet(tt.tokens...).String()
		if got != tt.want {
			t.Errorf("String(%v) = %q, want %q", tt.tokens, got, tt.want)
		}
	}
}

func TestNonModifierCount(t *testing.T) {
	tests := []struct {
		spec string
		want int
	}{
		{"ctrl+k", 1},
		{"a+b", 2},
		{"ctrl+shift", 0},
		{"ctrl+a+b", 2},
	}

	for _, tt := range tests {
		step, err := ParseStep(tt.spec)
		if err != nil {
			t.Fatalf("ParseStep(%q) error = %v", tt.spec, err)
		}
		if got := step.NonModifierCount(); got != tt.want {
			t.Errorf("NonModifierCount(%q) = %d, want %d", tt.spec, got, tt.want)
		}
	}
}

func TestStepsEqual(t *testing.T) {
	a := MustParseSpec("ctrl+k s")
	b := MustParseSpec("k+ctrl s")
	c := MustParseSpec("ctrl+k t")
	d := MustParseSpec("ctrl+k")

	if !StepsEqual(a, b) {
		t.Error("StepsEqual should ignore token order within steps")
	}
	if StepsEqual(a, c) {
		t.Error("StepsEqual should detect differing steps")
	}
	if StepsEqual(a, d) {
		t.Error("StepsEqual should detect differing lengths")
	}
}

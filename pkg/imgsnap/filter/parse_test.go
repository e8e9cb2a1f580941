package filter

import (
	"errors"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr error
	}{
		{"30d", 30 * Day, nil},
		{"2w", 2 * Week, nil},
		{"1mo", Month, nil},
		{"1y", Year, nil},
		{"1.5d", 36 * time.Hour, nil},
		{"90m", 90 * time.Minute, nil},
		{"-1d", 0, ErrNegativeValue},
		{"", 0, ErrInvalidDuration},
		{"soon", 0, ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseDuration(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCriteria(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Criteria
		wantErr error
	}{
		{
			name: "all keys",
			args: []string{"name=beach", "date=2021", "dimensions=1920x1080"},
			want: Criteria{Name: "beach", Year: 2021, Width: 1920, Height: 1080},
		},
		{
			name: "year alias",
			args: []string{"year=1999"},
			want: Criteria{Year: 1999},
		},
		{
			name: "value with equals",
			args: []string{"name=a=b"},
			want: Criteria{Name: "a=b"},
		},
		{name: "no equals", args: []string{"beach"}, wantErr: ErrInvalidCriterion},
		{name: "unknown key", args: []string{"color=red"}, wantErr: ErrInvalidCriterion},
		{name: "bad year", args: []string{"date=21"}, wantErr: ErrInvalidCriterion},
		{name: "bad dimensions", args: []string{"dimensions=big"}, wantErr: ErrInvalidDimensions},
		{name: "none", args: nil, want: Criteria{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCriteria(tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseCriteria() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCriteria() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCriteria() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if !(Criteria{}).Empty() {
		t.Error("zero Criteria should be empty")
	}
}

func TestParseDimensions(t *testing.T) {
	tests := []struct {
		input   string
		w, h    int
		wantErr bool
	}{
		{"1920x1080", 1920, 1080, false},
		{"640 X 480", 640, 480, false},
		{"800×600", 800, 600, false},
		{"1920", 0, 0, true},
		{"0x10", 0, 0, true},
		{"ax b", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			w, h, err := ParseDimensions(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDimensions(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if w != tt.w || h != tt.h {
				t.Errorf("ParseDimensions(%q) = %dx%d, want %dx%d", tt.input, w, h, tt.w, tt.h)
			}
		})
	}
}

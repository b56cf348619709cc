package main

import (
	"errors"
	"testing"
	"time"

	"github.com/ShayCichocki/tracker/internal/store"
	"github.com/ShayCichocki/tracker/pkg/models"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    models.Status
		wantErr bool
	}{
		{"NEW", models.StatusNew, false},
		{"new", models.StatusNew, false},
		{"in_progress", models.StatusInProgress, false},
		{"in-progress", models.StatusInProgress, false},
		{" In Progress ", models.StatusInProgress, false},
		{"done", models.StatusDone, false},
		{"later", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseStatus(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseStart(t *testing.T) {
	const layout = "2006-01-02 15:04"
	want := time.Date(2025, 3, 25, 16, 15, 0, 0, time.Local)

	tests := []struct {
		name    string
		in      string
		want    *time.Time
		wantErr bool
	}{
		{"display layout", "2025-03-25 16:15", &want, false},
		{"iso minutes", "2025-03-25T16:15", &want, false},
		{"rfc3339", want.Format(time.RFC3339), &want, false},
		{"date only", "2025-03-25", ptr(time.Date(2025, 3, 25, 0, 0, 0, 0, time.Local)), false},
		{"none", "none", nil, false},
		{"empty", "", nil, false},
		{"garbage", "tomorrow", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStart(tt.in, layout)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseStart(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("parseStart(%q) = %v, want nil", tt.in, got)
			case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
				t.Errorf("parseStart(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    *time.Duration
		wantErr bool
	}{
		{"45", ptr(45 * time.Minute), false},
		{"0", ptr(time.Duration(0)), false},
		{"1h30m", ptr(90 * time.Minute), false},
		{"90s", ptr(90 * time.Second), false},
		{"NONE", nil, false},
		{"", nil, false},
		{"-5", nil, true},
		{"-1h", nil, true},
		{"soon", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("parseDuration(%q) = %v, want nil", tt.in, *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, *tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   *time.Duration
		want string
	}{
		{nil, "-"},
		{ptr(time.Duration(0)), "0m"},
		{ptr(30 * time.Minute), "30m"},
		{ptr(2 * time.Hour), "2h"},
		{ptr(90 * time.Minute), "1h30m"},
		{ptr(90 * time.Second), "1m30s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFind(t *testing.T) {
	tasks := []*models.Task{{ID: 1, Title: "a"}, {ID: 3, Title: "b"}}

	got, err := find(tasks, 3)
	if err != nil || got.Title != "b" {
		t.Errorf("find(3) = %v, %v", got, err)
	}
	if _, err := find(tasks, 2); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("find(2) error = %v, want ErrNotFound", err)
	}
}

func ptr[T any](v T) *T { return &v }

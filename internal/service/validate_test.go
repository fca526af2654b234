package service

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateLimit(t *testing.T) {
	tests := []struct {
		in      int
		want    int
		wantErr bool
	}{
		{in: 0, want: defaultLimit},
		{in: 1, want: 1},
		{in: maxLimit, want: maxLimit},
		{in: maxLimit + 1, wantErr: true},
		{in: -5, wantErr: true},
	}
	for _, tt := range tests {
		got, err := validateLimit(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateLimit(%d) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("validateLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValidateItemPath(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantNorm  string
		wantRel   string
		wantError bool
	}{
		{name: "file", in: "PRJ-202403-001/01_工程数据/a.pdf", wantNorm: "PRJ-202403-001/01_工程数据/a.pdf", wantRel: "01_工程数据/a.pdf"},
		{name: "backslashes", in: `PRJ-202403-001\01_工程数据\a.pdf`, wantNorm: "PRJ-202403-001/01_工程数据/a.pdf", wantRel: "01_工程数据/a.pdf"},
		{name: "no project", in: "01_工程数据/a.pdf", wantError: true},
		{name: "empty", in: "", wantError: true},
		{name: "parent segment", in: "PRJ-202403-001/a/../../b", wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			norm, id, rel, err := validateItemPath(tt.in)
			if tt.wantError {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("validateItemPath() error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("validateItemPath() error = %v", err)
			}
			if norm != tt.wantNorm || rel != tt.wantRel || id != "PRJ-202403-001" {
				t.Errorf("validateItemPath() = %q, %q, %q", norm, id, rel)
			}
		})
	}
}

func TestValidateTagName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: " 常用 ", want: "常用"},
		{in: strings.Repeat("标", maxTagRunes), want: strings.Repeat("标", maxTagRunes)},
		{in: strings.Repeat("标", maxTagRunes+1), wantErr: true},
		{in: "a;b", wantErr: true},
		{in: "甲，乙", wantErr: true},
		{in: "\t", wantErr: true},
	}
	for _, tt := range tests {
		got, err := validateTagName(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateTagName(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("validateTagName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateNote(t *testing.T) {
	if err := validateNote(strings.Repeat("a", maxNoteBytes)); err != nil {
		t.Errorf("validateNote(max) error = %v", err)
	}
	if err := validateNote(strings.Repeat("a", maxNoteBytes+1)); err == nil {
		t.Error("validateNote(max+1) error = nil")
	}
	if err := validateNote("\xff"); err == nil {
		t.Error("validateNote(invalid utf-8) error = nil")
	}
}

func TestValidateStatus(t *testing.T) {
	if err := validateProjectStatus("delivered"); err != nil {
		t.Errorf("validateProjectStatus(delivered) error = %v", err)
	}
	if err := validateProjectStatus("pending"); err == nil {
		t.Error("validateProjectStatus(pending) error = nil")
	}
	if err := validateResourceStatus("ignored"); err != nil {
		t.Errorf("validateResourceStatus(ignored) error = %v", err)
	}
	if err := validateResourceStatus("archived"); err == nil {
		t.Error("validateResourceStatus(archived) error = nil")
	}
}

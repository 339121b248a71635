package main

import (
	"testing"

	"github.com/1broseidon/winstate/internal/config"
	"github.com/1broseidon/winstate/internal/geom"
)

func TestParseRect(t *testing.T) {
	tests := []struct {
		in      string
		want    geom.Rect
		wantErr bool
	}{
		{in: "40,40,400,300", want: geom.R(40, 40, 400, 300)},
		{in: " 0, -10 , 1.5,2 ", want: geom.R(0, -10, 1.5, 2)},
		{in: "1,2,3", wantErr: true},
		{in: "a,b,c,d", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseRect(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("parseRect(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseRect(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("parseRect(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("5,310")
	if err != nil || p != (geom.Point{X: 5, Y: 310}) {
		t.Fatalf("parsePoint = %+v, %v", p, err)
	}
	if _, err := parsePoint("5"); err == nil {
		t.Fatalf("expected error for a single number")
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceDefault}, "default"},
		{config.Source{Kind: config.SourceFile}, "file"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml"}, "file:/c.yaml"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 5}, "file:/c.yaml:3:5"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Fatalf("formatSource(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestWindowCommandNames(t *testing.T) {
	for _, name := range []string{"focus", "close", "minimize", "restore", "toggle", "maximize", "unmaximize", "toggle-maximize", "pin"} {
		if _, ok := windowCommands[name]; !ok {
			t.Fatalf("missing window command %q", name)
		}
	}
}

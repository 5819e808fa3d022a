package main

import (
	"reflect"
	"testing"
)

func TestParseFilterFlags(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    map[string][]string
		wantErr bool
	}{
		{name: "none", in: nil, want: nil},
		{
			name: "single",
			in:   []string{"type=fire"},
			want: map[string][]string{"type": {"fire"}},
		},
		{
			name: "values and repeats",
			in:   []string{"type=fire, water", "color=red", "type=grass"},
			want: map[string][]string{"type": {"fire", "water", "grass"}, "color": {"red"}},
		},
		{name: "missing equals", in: []string{"fire"}, wantErr: true},
		{name: "empty value", in: []string{"type="}, wantErr: true},
		{name: "empty name", in: []string{"=fire"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilterFlags(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

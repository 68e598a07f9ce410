package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-a", "http://api", "-d", "data"},
			allowed: []string{"-a"},
			want:    []string{"-a", "http://api"},
		},
		{
			name:    "equals form",
			args:    []string{"--config=alt.json", "-a", "http://api"},
			allowed: []string{"-c", "--config"},
			want:    []string{"--config=alt.json"},
		},
		{
			name:    "order preserved across forms",
			args:    []string{"--config=first.json", "-c", "second.json", "-x", "1"},
			allowed: []string{"-c", "--config"},
			want:    []string{"--config=first.json", "-c", "second.json"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-t"},
			allowed: []string{"-t"},
			want:    []string{"-t"},
		},
		{
			name:    "dash token is not a value",
			args:    []string{"-c", "-l", "debug"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "value may start with dash in equals form",
			args:    []string{"--config=--weird.json"},
			allowed: []string{"--config"},
			want:    []string{"--config=--weird.json"},
		},
		{
			name:    "empty",
			args:    nil,
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "short", args: []string{"-c", "/path/short.json"}, want: "/path/short.json"},
		{name: "long", args: []string{"-config", "/path/long.json"}, want: "/path/long.json"},
		{name: "double dash equals", args: []string{"--config=/path/eq.json"}, want: "/path/eq.json"},
		{name: "mixed with other flags", args: []string{"-a", "http://api", "-c", "cfg.json", "-t", "5s"}, want: "cfg.json"},
		{name: "absent", args: []string{"-x", "1"}, want: ""},
		{name: "last wins", args: []string{"-c", "/path/1.json", "-config", "/path/2.json"}, want: "/path/2.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JsonConfigFlags(tt.args))
		})
	}
}

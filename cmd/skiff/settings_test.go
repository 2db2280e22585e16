package main

import (
	"testing"

	"github.com/spf13/cobra"
)

func newTestRoot(t *testing.T) *cobra.Command {
	t.Helper()
	root := &cobra.Command{Use: "skiff"}
	root.PersistentFlags().String("endpoint", "", "")
	return root
}

func TestResolveLayering(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		env      string
		settings string
		want     string
	}{
		{name: "default wins when nothing set", want: defaultEndpoint},
		{name: "settings beat default", settings: "https://settings.example/graphql", want: "https://settings.example/graphql"},
		{name: "env beats settings", env: "https://env.example/graphql", settings: "https://settings.example/graphql", want: "https://env.example/graphql"},
		{name: "flag beats env", flag: "https://flag.example/graphql", env: "https://env.example/graphql", want: "https://flag.example/graphql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newTestRoot(t)
			if tt.flag != "" {
				if err := root.PersistentFlags().Set("endpoint", tt.flag); err != nil {
					t.Fatalf("set flag: %v", err)
				}
			}
			t.Setenv("SKIFF_ENDPOINT", tt.env)

			got := resolve(root, "endpoint", "SKIFF_ENDPOINT", tt.settings, defaultEndpoint)
			if got != tt.want {
				t.Fatalf("resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

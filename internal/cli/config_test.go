package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/pipeline"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "opts.toml", "tree_type = \"radial\"\nleaf_radius = 7.0\nleaf_color_column = \"site\"\n"},
		{"yaml", "opts.yaml", "tree_type: radial\nleaf_radius: 7\nleaf_color_column: site\n"},
		{"yml", "opts.yml", "tree_type: radial\nleaf_radius: 7\nleaf_color_column: site\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := pipeline.Options{Width: 500}
			if err := loadConfig(writeFile(t, tt.file, tt.content), &opts); err != nil {
				t.Fatalf("loadConfig() error: %v", err)
			}
			if opts.TreeType != "radial" || opts.LeafRadius != 7 || opts.LeafColorColumn != "site" {
				t.Errorf("loadConfig() = %+v", opts)
			}
			if opts.Width != 500 {
				t.Errorf("Width = %v, keys missing from the file must keep their value", opts.Width)
			}
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		code errors.Code
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.toml") }, errors.ErrCodeInputNotFound},
		{"bad extension", func(t *testing.T) string { return writeFile(t, "opts.ini", "x=1") }, errors.ErrCodeInvalidOption},
		{"bad toml", func(t *testing.T) string { return writeFile(t, "opts.toml", "tree_type = ") }, errors.ErrCodeInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts pipeline.Options
			if err := loadConfig(tt.path(t), &opts); !errors.Is(err, tt.code) {
				t.Errorf("loadConfig() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestApplyConfigFlagsWin(t *testing.T) {
	var opts pipeline.Options
	var config string
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	cmd.Flags().StringVarP(&opts.TreeType, "type", "t", "rectangular", "")
	cmd.Flags().Float64Var(&opts.LeafRadius, "leaf-radius", 3, "")
	cmd.Flags().StringVar(&config, "config", "", "")

	path := writeFile(t, "opts.toml", "tree_type = \"radial\"\nleaf_radius = 7.0\n")
	if err := cmd.ParseFlags([]string{"--leaf-radius", "9", "--config", path}); err != nil {
		t.Fatal(err)
	}
	if err := applyConfig(cmd, config, &opts); err != nil {
		t.Fatal(err)
	}
	if opts.TreeType != "radial" {
		t.Errorf("TreeType = %q, want radial from the file", opts.TreeType)
	}
	if opts.LeafRadius != 9 {
		t.Errorf("LeafRadius = %v, want 9 from the flag", opts.LeafRadius)
	}
}

package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/pipeline"
)

// loadConfig decodes a TOML (.toml) or YAML (.yaml, .yml) options file
// into opts. Keys missing from the file leave opts unchanged.
func loadConfig(path string, opts *pipeline.Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.InputNotFound(path, err)
		}
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(opts); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidOption, err, "parse config %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, opts); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidOption, err, "parse config %s", path)
		}
	default:
		return errors.New(errors.ErrCodeInvalidOption,
			"config %s: unknown extension %q (want .toml, .yaml or .yml)", path, ext)
	}
	return nil
}

// applyConfig loads path into opts, then reapplies every flag set on the
// command line so that flags take precedence over the file. Flags write
// into opts directly, so their values are captured before the file is read.
func applyConfig(cmd *cobra.Command, path string, opts *pipeline.Options) error {
	if path == "" {
		return nil
	}
	set := make(map[string]string)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name != "config" {
			set[f.Name] = f.Value.String()
		}
	})
	if err := loadConfig(path, opts); err != nil {
		return err
	}
	for name, value := range set {
		if err := cmd.Flags().Set(name, value); err != nil {
			return fmt.Errorf("reapply --%s: %w", name, err)
		}
	}
	return nil
}

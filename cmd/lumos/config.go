package main

import (
	"strings"

	"github.com/boynton/lumos"
	"github.com/boynton/lumos/errors"
	"github.com/boynton/lumos/rust"
	"github.com/boynton/lumos/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfigFile = "lumos.toml"

// loadConfig merges defaults, lumos.toml (or --config), LUMOS_* environment variables and
// the command's flags into the generator options.
func loadConfig(cmd *cobra.Command) (*util.Data, error) {
	v := viper.New()
	v.SetEnvPrefix("LUMOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("header", true)
	v.SetDefault("force-overwrite", false)
	v.SetDefault("rust.anchor", rust.AnchorAuto)

	path := configPath
	if path == "" && lumos.FileExists(defaultConfigFile) {
		path = defaultConfigFile
	}
	var file *util.Data
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to read config")
		}
		// viper folds keys to lower case; scalar renames are keyed by primitive name.
		var err error
		if file, err = util.DataFromFile(path); err != nil {
			return nil, err
		}
	}
	if cmd != nil {
		if f := cmd.Flags().Lookup("force"); f != nil {
			if err := v.BindPFlag("force-overwrite", f); err != nil {
				return nil, err
			}
		}
		if f := cmd.Flags().Lookup("anchor"); f != nil {
			if err := v.BindPFlag("rust.anchor", f); err != nil {
				return nil, err
			}
		}
	}
	switch mode := v.GetString("rust.anchor"); mode {
	case rust.AnchorAuto, rust.AnchorAlways, rust.AnchorNever:
	default:
		return nil, errors.Newf("invalid rust.anchor %q (expected auto, always or never)", mode)
	}
	conf := util.DataFromMap(v.AllSettings())
	if scalars := file.GetMap("custom-scalars"); scalars != nil {
		conf.Put("custom-scalars", scalars)
	}
	util.Debug("config: ", conf)
	return conf, nil
}

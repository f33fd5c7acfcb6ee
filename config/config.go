// Package config loads the top-level server configuration from a TOML
// file, falling back to built-in defaults for any key that's absent or
// when the file can't be read at all.
//
// Grounded on original_source/mimas-server/config.rs for the key set and
// defaults; expressed with pelletier/go-toml/v2 struct tags the way the
// rest of this module's TOML-shaped documents (gameparams.Config) are.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// Config is the full set of recognized server settings; every field is
// optional in the TOML document and falls back to Default()'s value.
type Config struct {
	MapgenSeed          uint64  `toml:"mapgen_seed"`
	MapgenRadiusXY       int64  `toml:"mapgen_radius_xy"`
	MapgenRadiusZ        int64  `toml:"mapgen_radius_z"`
	SentChunksRadiusXY   int64  `toml:"sent_chunks_radius_xy"`
	SentChunksRadiusZ    int64  `toml:"sent_chunks_radius_z"`
	MapStoragePath       string `toml:"map_storage_path"`

	DrawPolyLines bool    `toml:"draw_poly_lines"`
	ViewingRange  float32 `toml:"viewing_range"`
	FogNear       float32 `toml:"fog_near"`
	FogFar        float32 `toml:"fog_far"`
}

// Default returns the built-in configuration, matching
// original_source/mimas-server/config.rs's Default impl.
func Default() Config {
	return Config{
		MapgenSeed:         78,
		MapgenRadiusXY:     5,
		MapgenRadiusZ:      2,
		SentChunksRadiusXY: 6,
		SentChunksRadiusZ:  3,
		MapStoragePath:     "",

		DrawPolyLines: false,
		ViewingRange:  128,
		FogNear:       40,
		FogFar:        60,
	}
}

// Load reads and parses the TOML document at path, overlaying its fields
// onto Default(). A read or parse error is logged at warning level and
// Default() is returned unchanged, matching the reference's
// load_config/load_config_failible split.
func Load(path string) Config {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Warn("using default configuration: could not read config file")
		return cfg
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("using default configuration: could not parse config file")
		return Default()
	}
	return cfg
}

package main

import (
	"fmt"

	"github.com/est31/mimas-go/config"
	"github.com/est31/mimas-go/gameparams"
	"github.com/est31/mimas-go/storage"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// migrateCmd brings an on-disk world's stored name-ID map up to date with
// the current block configuration without touching any chunk data:
// gameparams.Compile registers every configured block name into the map,
// appending any name that was never seen before (nameidmap.Map.GetOrExtend
// is append-only, so existing IDs never shift under chunks already on
// disk). It also reports the stored chunk count via IterateChunkKeys, the
// one user of that method.
func migrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "bring a stored world's block name-ID map up to date with the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "mimasd.toml", "path to the server configuration file")
	return cmd
}

func runMigrate(configPath string) error {
	cfg := config.Load(configPath)
	if cfg.MapStoragePath == "" {
		return fmt.Errorf("map_storage_path is unset; nothing to migrate")
	}
	log := logrus.WithField("component", "mimasd-migrate")

	sb, err := storage.OpenBadger(cfg.MapStoragePath+"/chunks", nil)
	if err != nil {
		return err
	}
	defer sb.Close()

	nm, err := storage.LoadNameIDMap(sb, nil)
	if err != nil {
		return err
	}
	before := nm.Len()

	gpCfg, err := gameparams.LoadDefault()
	if err != nil {
		return err
	}
	if _, err := gameparams.Compile(gpCfg, nm); err != nil {
		return err
	}
	if err := storage.SaveNameIDMap(sb, nm); err != nil {
		return err
	}

	count := 0
	if err := sb.IterateChunkKeys(func(string) error {
		count++
		return nil
	}); err != nil {
		return err
	}

	log.WithField("names_before", before).
		WithField("names_after", nm.Len()).
		WithField("stored_chunks", count).
		Info("name-ID map migration complete")
	return nil
}

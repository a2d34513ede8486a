package main

import (
	"fmt"

	"github.com/kapu/kdp-keyword-go/internal/constants"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manages the Redis response cache.",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Deletes every cached suggestion and measurement.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if container.Cache == nil {
			return fmt.Errorf("response cache is not enabled (REDIS_ENABLED)")
		}
		n, err := container.Cache.Purge(cmd.Context(), constants.RedisConfig.KeyPrefix+"*")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d cached responses\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

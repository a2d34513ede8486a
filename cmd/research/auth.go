package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/kapu/kdp-keyword-go/internal/config"
	"github.com/kapu/kdp-keyword-go/internal/source"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var authCfg *config.Config

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorizes optional upstream APIs.",
	// No sources are built for authorization.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		authCfg = cfg
		logger = zap.NewNop()
		return nil
	},
}

var authYouTubeCmd = &cobra.Command{
	Use:   "youtube",
	Short: "Exchanges an OAuth code for a YouTube token and saves it to YOUTUBE_TOKEN_FILE.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := authCfg.Sources
		if sc.YouTubeCredentials == "" {
			return fmt.Errorf("YOUTUBE_CREDENTIALS_FILE is not set")
		}
		oauthCfg, err := source.YouTubeOAuthConfig(sc.YouTubeCredentials)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Open this URL and paste the authorization code:\n%s\n> ",
			oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))

		code, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && strings.TrimSpace(code) == "" {
			return fmt.Errorf("failed to read authorization code: %w", err)
		}

		token, err := oauthCfg.Exchange(cmd.Context(), strings.TrimSpace(code))
		if err != nil {
			return fmt.Errorf("failed to exchange authorization code: %w", err)
		}
		if err := source.SaveToken(sc.YouTubeToken, token); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", sc.YouTubeToken)
		return nil
	},
}

func init() {
	authCmd.AddCommand(authYouTubeCmd)
	rootCmd.AddCommand(authCmd)
}

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeAuth picks the client credentials: the API key when set, otherwise
// the OAuth client in credentialsFile with the token saved in tokenFile.
// It returns nil when neither is configured.
func YouTubeAuth(ctx context.Context, apiKey, credentialsFile, tokenFile string) (option.ClientOption, error) {
	if apiKey != "" {
		return option.WithAPIKey(apiKey), nil
	}
	if credentialsFile == "" {
		return nil, nil
	}

	config, err := YouTubeOAuthConfig(credentialsFile)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("no YouTube token, run the auth command first: %w", err)
	}
	return option.WithTokenSource(config.TokenSource(ctx, token)), nil
}

// YouTubeOAuthConfig reads an OAuth client file downloaded from the Google
// console and requests read-only YouTube access.
func YouTubeOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	config, err := google.ConfigFromJSON(raw, youtube.YoutubeReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	return config, nil
}

func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	return token, nil
}

func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to save token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

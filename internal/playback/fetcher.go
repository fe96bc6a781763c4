package playback

import (
	"context"

	"go_fleet/internal/auth"
	"go_fleet/internal/model"
	"go_fleet/internal/playerclient"
)

// ClientFetcher fetches viewlogs over the player HTTP API.
type ClientFetcher struct{}

// FetchViewlog builds a per-player client from stored credentials and
// pulls the viewlog. A credential that fails to decrypt (key rotation)
// degrades to an unauthenticated request.
func (ClientFetcher) FetchViewlog(ctx context.Context, player *model.Player, since string) ([]playerclient.ViewlogEntry, error) {
	opts := []playerclient.Option{}
	if player.Username != "" {
		opts = append(opts, playerclient.WithBasicAuth(player.Username, auth.DecryptSecret(player.Password)))
	}
	c := playerclient.New(player.Name, player.APIURL(), opts...)
	return c.GetViewlog(ctx, since)
}

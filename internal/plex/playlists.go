package plex

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/plexdance/internal/shared"
)

// Playlists lists the server's audio playlists.
func (c *Client) Playlists(ctx context.Context) ([]Metadata, error) {
	var resp container
	if err := c.doRequest(ctx, "GET", "/playlists?playlistType=audio", &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Metadata, nil
}

// PlaylistByTitle returns the audio playlist with the given title.
func (c *Client) PlaylistByTitle(ctx context.Context, title string) (*Metadata, error) {
	playlists, err := c.Playlists(ctx)
	if err != nil {
		return nil, err
	}
	for i := range playlists {
		if playlists[i].Title == title {
			return &playlists[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, title)
}

// PlaylistItems lists a playlist's items in playback order.
func (c *Client) PlaylistItems(ctx context.Context, ratingKey string) ([]Metadata, error) {
	endpoint := fmt.Sprintf("/playlists/%s/items", url.PathEscape(ratingKey))

	var resp container
	if err := c.doRequest(ctx, "GET", endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Metadata, nil
}

// CreatePlaylist makes a dumb audio playlist holding ids in order and returns
// the created playlist's metadata.
func (c *Client) CreatePlaylist(ctx context.Context, machineID, title string, ids []string) (*Metadata, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: playlist %q has no items", shared.ErrInvalidInput, title)
	}

	query := url.Values{
		"type":  {"audio"},
		"title": {title},
		"smart": {"0"},
		"uri":   {ItemURI(machineID, ids)},
	}

	var resp container
	if err := c.doRequest(ctx, "POST", "/playlists?"+query.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("%w: create playlist %q returned no metadata", shared.ErrAPIRequest, title)
	}
	return &resp.MediaContainer.Metadata[0], nil
}

// ClearPlaylist removes every item from a playlist, keeping the playlist.
func (c *Client) ClearPlaylist(ctx context.Context, ratingKey string) error {
	endpoint := fmt.Sprintf("/playlists/%s/items", url.PathEscape(ratingKey))
	return c.doRequest(ctx, "DELETE", endpoint, nil)
}

// AddPlaylistItems appends ids to a playlist in order.
func (c *Client) AddPlaylistItems(ctx context.Context, machineID, ratingKey string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := url.Values{"uri": {ItemURI(machineID, ids)}}
	endpoint := fmt.Sprintf("/playlists/%s/items?%s", url.PathEscape(ratingKey), query.Encode())
	return c.doRequest(ctx, "PUT", endpoint, nil)
}

// ItemURI builds the server-scoped item URI playlist mutations take.
func ItemURI(machineID string, ids []string) string {
	return fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s",
		machineID, strings.Join(ids, ","))
}

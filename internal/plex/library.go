package plex

import (
	"context"
	"fmt"
	"net/url"

	"github.com/desertthunder/plexdance/internal/shared"
)

// Plex library item types, as used by the type= filter on section queries.
const (
	TypeAlbum = 9
	TypeTrack = 10
)

// musicSectionType is the section type Plex assigns to music libraries.
const musicSectionType = "artist"

// Identity fetches the server root, which names the server and carries the
// machine identifier playlist item URIs are built from.
func (c *Client) Identity(ctx context.Context) (*MediaContainer, error) {
	var resp container
	if err := c.doRequest(ctx, "GET", "/", &resp); err != nil {
		return nil, err
	}
	return &resp.MediaContainer, nil
}

// Sections lists every library section on the server.
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	var resp container
	if err := c.doRequest(ctx, "GET", "/library/sections", &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Directory, nil
}

// MusicSection finds the music library: the section titled name when name is
// non-empty, otherwise the first section of the music type.
func (c *Client) MusicSection(ctx context.Context, name string) (*Section, error) {
	sections, err := c.Sections(ctx)
	if err != nil {
		return nil, err
	}

	for i := range sections {
		s := &sections[i]
		if name != "" {
			if s.Title == name {
				return s, nil
			}
			continue
		}
		if s.Type == musicSectionType {
			return s, nil
		}
	}

	if name != "" {
		return nil, fmt.Errorf("%w: no section titled %q", shared.ErrSectionNotFound, name)
	}
	return nil, fmt.Errorf("%w: server has no music section", shared.ErrSectionNotFound)
}

// Tracks pages through every track of a section. Plex caps container sizes
// server-side, so the listing walks X-Plex-Container-Start until the reported
// total is exhausted.
func (c *Client) Tracks(ctx context.Context, sectionKey string) ([]Metadata, error) {
	return c.sectionItems(ctx, sectionKey, url.Values{"type": {fmt.Sprint(TypeTrack)}})
}

// sectionItems fetches /library/sections/{key}/all with the given filters,
// following pagination to the end.
func (c *Client) sectionItems(ctx context.Context, sectionKey string, filters url.Values) ([]Metadata, error) {
	var items []Metadata

	for start := 0; ; {
		query := url.Values{}
		for k, vs := range filters {
			query[k] = vs
		}
		query.Set("X-Plex-Container-Start", fmt.Sprint(start))
		query.Set("X-Plex-Container-Size", fmt.Sprint(c.pageSize))

		endpoint := fmt.Sprintf("/library/sections/%s/all?%s", url.PathEscape(sectionKey), query.Encode())

		var resp container
		if err := c.doRequest(ctx, "GET", endpoint, &resp); err != nil {
			return nil, err
		}

		page := resp.MediaContainer.Metadata
		if len(page) == 0 {
			break
		}
		items = append(items, page...)
		start += len(page)

		total := resp.MediaContainer.TotalSize
		if total == 0 {
			total = resp.MediaContainer.Size
		}
		if start >= total {
			break
		}
	}

	return items, nil
}

// MetadataByID fetches one item by rating key. Absence comes back as
// [shared.ErrNotFound] wrapped with the key.
func (c *Client) MetadataByID(ctx context.Context, ratingKey string) (*Metadata, error) {
	endpoint := fmt.Sprintf("/library/metadata/%s", url.PathEscape(ratingKey))

	var resp container
	if err := c.doRequest(ctx, "GET", endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("%w: metadata %s came back empty", shared.ErrNotFound, ratingKey)
	}
	return &resp.MediaContainer.Metadata[0], nil
}

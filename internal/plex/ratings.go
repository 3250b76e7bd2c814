package plex

import (
	"context"
	"fmt"
	"net/url"
)

// RatedItems lists every item of itemType in the section that carries a user
// rating. Unrated items have no userRating field at all, so a floor of -10
// matches anything rated, zero stars included.
func (c *Client) RatedItems(ctx context.Context, sectionKey string, itemType int) ([]Metadata, error) {
	filters := url.Values{
		"type":         {fmt.Sprint(itemType)},
		"userRating>=": {"-10"},
	}
	return c.sectionItems(ctx, sectionKey, filters)
}

// ClearRating removes an item's user rating. Plex encodes "no rating" as -1.
func (c *Client) ClearRating(ctx context.Context, ratingKey string) error {
	query := url.Values{
		"key":        {ratingKey},
		"identifier": {"com.plexapp.plugins.library"},
		"rating":     {"-1"},
	}
	return c.doRequest(ctx, "PUT", "/:/rate?"+query.Encode(), nil)
}

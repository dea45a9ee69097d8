package pantheon

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Addons fetches the addon enablement map for a site. Cached for five
// minutes.
func (c *Client) Addons(ctx context.Context, siteID string) (map[string]bool, error) {
	var addons map[string]bool
	err := c.cachedGet(ctx, "Addons",
		fmt.Sprintf("/sites/%s/addons", siteID),
		addonsKey(siteID), 5*time.Minute, &addons)
	if err != nil {
		return nil, err
	}
	return addons, nil
}

// EnableAddon turns an addon on for a site. The upstream enables via PUT
// and disables via DELETE; the asymmetry is the API's, not the client's.
// Invalidates the addon list and the site settings cache, which embeds
// addon state.
func (c *Client) EnableAddon(ctx context.Context, siteID, addonID string) error {
	return c.toggleAddon(ctx, "EnableAddon", http.MethodPut, siteID, addonID)
}

// DisableAddon turns an addon off for a site.
func (c *Client) DisableAddon(ctx context.Context, siteID, addonID string) error {
	return c.toggleAddon(ctx, "DisableAddon", http.MethodDelete, siteID, addonID)
}

func (c *Client) toggleAddon(ctx context.Context, op, method, siteID, addonID string) error {
	err := c.do(ctx, op, method,
		fmt.Sprintf("/sites/%s/addons/%s", siteID, addonID), nil, nil)
	if err != nil {
		return err
	}

	c.invalidate(op, addonsKey(siteID), settingsKey(siteID))
	c.logger.Info("addon toggled", "op", op, "site", siteID, "addon", addonID)
	return nil
}

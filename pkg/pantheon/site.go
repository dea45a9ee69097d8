package pantheon

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// SiteInfo fetches a site's metadata. Cached for five minutes.
func (c *Client) SiteInfo(ctx context.Context, siteID string) (Site, error) {
	var site Site
	err := c.cachedGet(ctx, "SiteInfo",
		fmt.Sprintf("/sites/%s", siteID),
		siteInfoKey(siteID), 5*time.Minute, &site)
	if err != nil {
		return Site{}, err
	}
	return site, nil
}

// UpdateSiteLabel sets the site's display label. Invalidates the site info
// cache and nothing else.
func (c *Client) UpdateSiteLabel(ctx context.Context, siteID, label string) error {
	const op = "UpdateSiteLabel"

	err := c.do(ctx, op, http.MethodPut,
		fmt.Sprintf("/sites/%s/label", siteID),
		map[string]string{"label": label}, nil)
	if err != nil {
		return err
	}

	c.invalidate(op, siteInfoKey(siteID))
	c.logger.Info("site label updated", "site", siteID, "label", label)
	return nil
}

// DeleteSite removes a site permanently. Invalidates every site-scoped
// cache entry the client owns for it.
func (c *Client) DeleteSite(ctx context.Context, siteID string) error {
	const op = "DeleteSite"

	err := c.do(ctx, op, http.MethodDelete,
		fmt.Sprintf("/sites/%s", siteID), nil, nil)
	if err != nil {
		return err
	}

	c.invalidate(op,
		siteInfoKey(siteID),
		environmentsKey(siteID),
		settingsKey(siteID),
		addonsKey(siteID),
		upstreamUpdatesKey(siteID),
	)
	c.logger.Info("site deleted", "site", siteID)
	return nil
}

// SiteSettings fetches the site settings record, which embeds addon
// enablement state. Cached for five minutes.
func (c *Client) SiteSettings(ctx context.Context, siteID string) (Settings, error) {
	var s Settings
	err := c.cachedGet(ctx, "SiteSettings",
		fmt.Sprintf("/sites/%s/settings", siteID),
		settingsKey(siteID), 5*time.Minute, &s)
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

// UpstreamUpdatesStatus reports how far the site is behind its upstream.
// Cached for ten minutes.
func (c *Client) UpstreamUpdatesStatus(ctx context.Context, siteID string) (UpstreamUpdates, error) {
	var u UpstreamUpdates
	err := c.cachedGet(ctx, "UpstreamUpdatesStatus",
		fmt.Sprintf("/sites/%s/upstream-updates", siteID),
		upstreamUpdatesKey(siteID), 10*time.Minute, &u)
	if err != nil {
		return UpstreamUpdates{}, err
	}
	return u, nil
}

// CodeTips fetches the tip commit hash of each environment's code branch.
func (c *Client) CodeTips(ctx context.Context, siteID string) (map[string]string, error) {
	var tips map[string]string
	err := c.do(ctx, "CodeTips", http.MethodGet,
		fmt.Sprintf("/sites/%s/code-tips", siteID), nil, &tips)
	if err != nil {
		return nil, err
	}
	return tips, nil
}

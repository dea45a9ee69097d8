package pantheon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Domains fetches the hostnames attached to an environment. Cached for
// five minutes.
func (c *Client) Domains(ctx context.Context, siteID, env string) ([]Domain, error) {
	env = ResolveEnvironment(env)
	var domains []Domain
	err := c.cachedGet(ctx, "Domains",
		fmt.Sprintf("/sites/%s/environments/%s/domains", siteID, env),
		domainsKey(siteID, env), 5*time.Minute, &domains)
	if err != nil {
		return nil, err
	}
	return domains, nil
}

// AddDomain attaches a hostname to an environment. Invalidates the
// environment's domain cache.
func (c *Client) AddDomain(ctx context.Context, siteID, env, domain string) error {
	const op = "AddDomain"
	env = ResolveEnvironment(env)

	if domain == "" {
		return &Error{Op: op, Err: ErrMissingDomain}
	}

	err := c.do(ctx, op, http.MethodPut,
		fmt.Sprintf("/sites/%s/environments/%s/domains/%s", siteID, env, url.PathEscape(domain)),
		nil, nil)
	if err != nil {
		return err
	}

	c.invalidate(op, domainsKey(siteID, env))
	c.logger.Info("domain added", "site", siteID, "environment", env, "domain", domain)
	return nil
}

// DeleteDomain detaches a hostname from an environment. Invalidates the
// environment's domain cache.
func (c *Client) DeleteDomain(ctx context.Context, siteID, env, domain string) error {
	const op = "DeleteDomain"
	env = ResolveEnvironment(env)

	if domain == "" {
		return &Error{Op: op, Err: ErrMissingDomain}
	}

	err := c.do(ctx, op, http.MethodDelete,
		fmt.Sprintf("/sites/%s/environments/%s/domains/%s", siteID, env, url.PathEscape(domain)),
		nil, nil)
	if err != nil {
		return err
	}

	c.invalidate(op, domainsKey(siteID, env))
	c.logger.Info("domain removed", "site", siteID, "environment", env, "domain", domain)
	return nil
}

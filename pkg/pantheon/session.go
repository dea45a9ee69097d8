package pantheon

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// authClientID identifies this client family to the exchange endpoint.
const authClientID = "terminus"

type sessionRequest struct {
	MachineToken string `json:"machine_token"`
	Client       string `json:"client"`
}

type sessionResponse struct {
	Session   string `json:"session"`
	UserID    string `json:"user_id"`
	ExpiresAt int64  `json:"expires_at"`
}

// Session returns a valid session token, exchanging the configured machine
// token when no unexpired one is cached. The exchange is the only call that
// sends the machine token over the wire.
func (c *Client) Session(ctx context.Context) (string, error) {
	const op = "Session"

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != "" && c.now().Before(c.sessionExpiry) {
		return c.session, nil
	}

	machineToken, err := c.tokens.MachineToken()
	if err != nil {
		c.logger.Error("failed to read machine token", "error", err)
		return "", &Error{Op: op, Err: err, Msg: "failed to read machine token"}
	}
	if machineToken == "" {
		return "", &Error{Op: op, Err: ErrNoCredential}
	}

	reqBody, err := json.Marshal(sessionRequest{
		MachineToken: machineToken,
		Client:       authClientID,
	})
	if err != nil {
		return "", &Error{Op: op, Err: err, Msg: "failed to marshal exchange request"}
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/authorize/machine-token", bytes.NewReader(reqBody))
	if err != nil {
		return "", &Error{Op: op, Err: err, Msg: "failed to create exchange request"}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.authClient.Do(req)
	if err != nil {
		c.logger.Error("token exchange failed", "error", err)
		return "", &Error{Op: op, Err: ErrConnectionFailed, Msg: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("failed to read exchange response", "error", err)
		return "", &Error{Op: op, Err: ErrConnectionFailed, Msg: err.Error()}
	}

	switch {
	case resp.StatusCode == http.StatusBadGateway || resp.StatusCode == http.StatusServiceUnavailable:
		c.logger.Error("token exchange unavailable", "status", resp.StatusCode)
		return "", &Error{Op: op, Err: ErrServiceUnavailable, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusBadRequest:
		msg := extractErrorList(respBody)
		c.logger.Error("token exchange rejected request", "message", msg)
		return "", &Error{Op: op, Err: ErrBadRequest, Msg: msg, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.Error("machine token rejected", "status", resp.StatusCode)
		return "", &Error{Op: op, Err: ErrInvalidCredential, StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		msg := extractMessage(respBody)
		c.logger.Error("token exchange failed", "status", resp.StatusCode, "message", msg)
		return "", &Error{Op: op, Err: ErrUpstream, Msg: msg, StatusCode: resp.StatusCode}
	}

	var session sessionResponse
	if err := json.Unmarshal(respBody, &session); err != nil || session.Session == "" {
		c.logger.Error("token exchange returned unusable body")
		return "", &Error{Op: op, Err: ErrMalformedResponse, StatusCode: resp.StatusCode}
	}

	c.session = session.Session
	c.sessionExpiry = c.now().Add(c.sessionTTL)
	c.logger.Debug("obtained new session token", "expires", c.sessionExpiry)

	return c.session, nil
}

// invalidateSession drops the cached session token so the next call
// re-authenticates.
func (c *Client) invalidateSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = ""
	c.sessionExpiry = c.now()
}

// extractErrorList joins the structured error list of a 400 response for
// display.
func extractErrorList(body []byte) string {
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Errors) > 0 {
		msgs := make([]string, 0, len(payload.Errors))
		for _, e := range payload.Errors {
			if e.Message != "" {
				msgs = append(msgs, e.Message)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return extractMessage(body)
}

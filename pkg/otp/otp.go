// Package otp invokes the external send-otp function used during sign-up.
//
// The function is a hosted edge function; this client only posts the phone
// number and relays the response JSON without validating its shape.
package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ligtascab/ligtascab/config"
)

const sendOTPPath = "/functions/v1/send-otp"

// Client posts OTP requests to the functions endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an OTP client from config.
func NewClient(cfg config.OTPConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.FunctionsBaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// SendOTP requests a one-time code for the given phone number. The response
// body is returned as raw JSON — the caller relays it without interpreting.
func (c *Client) SendOTP(ctx context.Context, phone string) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]string{"phone": phone})
	if err != nil {
		return nil, fmt.Errorf("otp: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendOTPPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("otp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("otp: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("otp: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("otp: send-otp returned %d: %s", resp.StatusCode, body)
	}

	return json.RawMessage(body), nil
}

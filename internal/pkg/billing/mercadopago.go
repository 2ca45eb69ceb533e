package billing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuelReschke/BookFox/internal/pkg/env"
)

const (
	defaultMPAuthorizeURL = "https://auth.mercadopago.com/authorization"
	defaultMPTokenURL     = "https://api.mercadopago.com/oauth/token"
	defaultMPAPIBaseURL   = "https://api.mercadopago.com"
)

// MercadoPagoClient talks to the processor's OAuth and REST endpoints.
type MercadoPagoClient struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AccessToken  string

	AuthorizeURL string
	TokenURL     string
	APIBaseURL   string

	HTTPClient *http.Client
}

// TokenResponse is the processor's OAuth token grant.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	UserID       int64  `json:"user_id"`
}

// Preapproval is the processor-side subscription resource referenced by
// preapproval webhooks. NextPaymentDate is our current period end.
type Preapproval struct {
	ID                string     `json:"id"`
	Status            string     `json:"status"`
	ExternalReference string     `json:"external_reference"`
	PayerID           int64      `json:"payer_id"`
	NextPaymentDate   *time.Time `json:"next_payment_date"`
	Reason            string     `json:"reason"`
}

// Payment is the processor-side charge resource referenced by payment
// webhooks. ExternalReference carries our booking reference.
type Payment struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
}

// PaymentStatusApproved is the processor's terminal success status for a charge.
const PaymentStatusApproved = "approved"

// NewMercadoPagoClientFromEnv builds a client from environment configuration.
func NewMercadoPagoClientFromEnv() *MercadoPagoClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	redirectURI := strings.TrimSpace(env.GetEnv("MP_REDIRECT_URI", ""))
	if redirectURI == "" && base != "" {
		redirectURI = base + "/billing/connect/callback"
	}

	return &MercadoPagoClient{
		ClientID:     strings.TrimSpace(env.GetEnv("MP_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("MP_CLIENT_SECRET", "")),
		RedirectURI:  redirectURI,
		AccessToken:  strings.TrimSpace(env.GetEnv("MP_ACCESS_TOKEN", "")),
		AuthorizeURL: strings.TrimSpace(env.GetEnv("MP_AUTHORIZE_URL", defaultMPAuthorizeURL)),
		TokenURL:     strings.TrimSpace(env.GetEnv("MP_TOKEN_URL", defaultMPTokenURL)),
		APIBaseURL:   strings.TrimSpace(env.GetEnv("MP_API_BASE_URL", defaultMPAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// AuthorizeURLWithState builds the redirect target for the link flow.
func (c *MercadoPagoClient) AuthorizeURLWithState(state string) (string, error) {
	if strings.TrimSpace(c.ClientID) == "" {
		return "", errors.New("MP_CLIENT_ID is not configured")
	}
	if strings.TrimSpace(c.RedirectURI) == "" {
		return "", errors.New("MP_REDIRECT_URI is not configured")
	}
	u, err := url.Parse(c.AuthorizeURL)
	if err != nil {
		return "", fmt.Errorf("invalid MP_AUTHORIZE_URL: %w", err)
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.ClientID)
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("platform_id", "mp")
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExchangeCode trades the callback authorization code for tokens.
func (c *MercadoPagoClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return nil, errors.New("MP_CLIENT_ID/MP_CLIENT_SECRET are not configured")
	}
	if strings.TrimSpace(c.RedirectURI) == "" {
		return nil, errors.New("MP_REDIRECT_URI is not configured")
	}
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("oauth code is required")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("code", strings.TrimSpace(code))
	form.Set("redirect_uri", c.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token exchange failed with status %d", resp.StatusCode)
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, err
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, errors.New("token exchange returned no access token")
	}
	return &token, nil
}

// GetPreapproval fetches the subscription resource referenced by a webhook.
func (c *MercadoPagoClient) GetPreapproval(ctx context.Context, id string) (*Preapproval, error) {
	var pre Preapproval
	if err := c.getJSON(ctx, "/preapproval/"+url.PathEscape(strings.TrimSpace(id)), &pre); err != nil {
		return nil, err
	}
	return &pre, nil
}

// GetPayment fetches the charge resource referenced by a webhook.
func (c *MercadoPagoClient) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var payment Payment
	if err := c.getJSON(ctx, "/v1/payments/"+url.PathEscape(strings.TrimSpace(id)), &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *MercadoPagoClient) getJSON(ctx context.Context, path string, out interface{}) error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return errors.New("MP_ACCESS_TOKEN is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.APIBaseURL, "/")+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("processor API %s returned status %d", path, resp.StatusCode)
	}
	return json.Unmarshal(body, out)
}

// OAuthState is the opaque payload round-tripped through the processor's
// authorize redirect. The csrf token must match the short-lived value we hold
// server-side before the callback is trusted.
type OAuthState struct {
	ShopID uint   `json:"shop_id"`
	CSRF   string `json:"csrf"`
}

// EncodeOAuthState serializes the state as base64url JSON.
func EncodeOAuthState(shopID uint, csrf string) (string, error) {
	if shopID == 0 || strings.TrimSpace(csrf) == "" {
		return "", errors.New("shop id and csrf token are required")
	}
	raw, err := json.Marshal(OAuthState{ShopID: shopID, CSRF: csrf})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeOAuthState parses the state parameter returned by the processor.
func DecodeOAuthState(state string) (*OAuthState, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(state))
	if err != nil {
		return nil, errors.New("malformed oauth state")
	}
	var s OAuthState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.New("malformed oauth state")
	}
	if s.ShopID == 0 || strings.TrimSpace(s.CSRF) == "" {
		return nil, errors.New("incomplete oauth state")
	}
	return &s, nil
}

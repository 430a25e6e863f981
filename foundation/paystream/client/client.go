// Package client provides access to the paystream node and relayer APIs
// over http.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ardanlabs/paystream/foundation/paystream/signature"
	"github.com/holiman/uint256"
)

// Value is an amount as rendered by the node, in whole units and base units.
type Value struct {
	Units string       `json:"units"`
	Base  *uint256.Int `json:"base"`
}

// Stream is the node's view of a payment stream.
type Stream struct {
	ID               uint64 `json:"id"`
	Employee         string `json:"employee"`
	EmployeeName     string `json:"employee_name"`
	RatePerSecond    Value  `json:"rate_per_second"`
	LastCheckpoint   uint64 `json:"last_checkpoint"`
	TaxBps           uint64 `json:"tax_bps"`
	Active           bool   `json:"active"`
	Paused           bool   `json:"paused"`
	BonusAmount      Value  `json:"bonus_amount"`
	BonusReleaseTime uint64 `json:"bonus_release_time"`
	BonusClaimed     bool   `json:"bonus_claimed"`
	CreatedAt        uint64 `json:"created_at"`
	Accrued          Value  `json:"accrued"`
	NetWithdrawable  Value  `json:"net_withdrawable"`
}

// Info is the balance and nonce of an account.
type Info struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Balance Value  `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

// Settlement is the receipt of a withdrawal.
type Settlement struct {
	StreamID   uint64 `json:"stream_id"`
	Employee   string `json:"employee"`
	Accrued    Value  `json:"accrued"`
	Bonus      Value  `json:"bonus"`
	Gross      Value  `json:"gross"`
	Tax        Value  `json:"tax"`
	Net        Value  `json:"net"`
	Relayer    string `json:"relayer,omitempty"`
	RelayerFee Value  `json:"relayer_fee"`
	Nonce      uint64 `json:"nonce"`
	TimeStamp  uint64 `json:"timestamp"`
	Seq        uint64 `json:"seq"`
	Receipt    string `json:"receipt"`
}

// SignedWithdraw is a withdrawal authorization signed by the employee.
type SignedWithdraw struct {
	StreamID   uint64 `json:"stream_id,omitempty"`
	Nonce      uint64 `json:"nonce"`
	Deadline   uint64 `json:"deadline"`
	Signature  string `json:"signature"`
	RelayerFee string `json:"relayer_fee,omitempty"`
}

// Error is returned when the remote service responds with a failure.
type Error struct {
	Status  int               `json:"-"`
	Message string            `json:"error"`
	Kind    string            `json:"kind,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%d: %s %v", e.Status, e.Message, e.Fields)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// =============================================================================

// Client talks to one paystream service.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a client for the service at the base url. A nil http client
// means http.DefaultClient.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// Domain returns the signing domain of the node.
func (c *Client) Domain(ctx context.Context) (signature.Domain, error) {
	var d signature.Domain
	if err := c.do(ctx, http.MethodGet, "/v1/domain", "", "", nil, &d); err != nil {
		return signature.Domain{}, err
	}
	return d, nil
}

// Stream returns the specified stream.
func (c *Client) Stream(ctx context.Context, streamID uint64) (Stream, error) {
	var s Stream
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/streams/%d", streamID), "", "", nil, &s); err != nil {
		return Stream{}, err
	}
	return s, nil
}

// Streams returns the streams of the employee, or all streams when the
// employee is empty. The employee can be an account id or a known name.
func (c *Client) Streams(ctx context.Context, employee string) ([]Stream, error) {
	path := "/v1/streams"
	if employee != "" {
		path += "?employee=" + url.QueryEscape(employee)
	}

	var ss []Stream
	if err := c.do(ctx, http.MethodGet, path, "", "", nil, &ss); err != nil {
		return nil, err
	}
	return ss, nil
}

// Account returns the balance and nonce of the account.
func (c *Client) Account(ctx context.Context, account string) (Info, error) {
	var infos []Info
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/list/"+url.PathEscape(account), "", "", nil, &infos); err != nil {
		return Info{}, err
	}

	if len(infos) == 0 {
		return Info{}, fmt.Errorf("account %s not found", account)
	}
	return infos[0], nil
}

// Withdraw settles the stream for the employee the token was issued to.
func (c *Client) Withdraw(ctx context.Context, token string, streamID uint64) (Settlement, error) {
	var stl Settlement
	path := fmt.Sprintf("/v1/streams/%d/withdraw", streamID)
	if err := c.do(ctx, http.MethodPost, path, token, "", nil, &stl); err != nil {
		return Settlement{}, err
	}
	return stl, nil
}

// WithdrawSigned submits a signed withdrawal to the node as the relayer the
// token was issued to.
func (c *Client) WithdrawSigned(ctx context.Context, token string, sw SignedWithdraw) (Settlement, error) {
	req := sw
	req.StreamID = 0

	var stl Settlement
	path := fmt.Sprintf("/v1/streams/%d/withdraw/signed", sw.StreamID)
	if err := c.do(ctx, http.MethodPost, path, token, "", req, &stl); err != nil {
		return Settlement{}, err
	}
	return stl, nil
}

// Relay hands a signed withdrawal to a relayer service.
func (c *Client) Relay(ctx context.Context, apiKey string, sw SignedWithdraw) (Settlement, error) {
	var stl Settlement
	if err := c.do(ctx, http.MethodPost, "/v1/relay/withdraw", "", apiKey, sw, &stl); err != nil {
		return Settlement{}, err
	}
	return stl, nil
}

// =============================================================================

func (c *Client) do(ctx context.Context, method string, path string, token string, apiKey string, body any, resp any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		e := Error{Status: res.StatusCode}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil || e.Message == "" {
			e.Message = http.StatusText(res.StatusCode)
		}
		return &e
	}

	if resp == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(resp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

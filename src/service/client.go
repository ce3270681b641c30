package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/whitesource/wss-agent/src/project"
	"github.com/whitesource/wss-agent/src/version"
)

// Agent request types.
const (
	requestUpdate                = "UPDATE"
	requestCheckPolicyCompliance = "CHECK_POLICY_COMPLIANCE"
)

// statusSuccess is the envelope status of a successful request.
const statusSuccess = 1

// Client talks to the agent endpoint over HTTP.
type Client struct {
	URL        string
	HTTPClient *http.Client
	Log        logrus.FieldLogger
}

// NewClient creates a client for the agent endpoint at serviceURL.
func NewClient(serviceURL string, timeout time.Duration, log logrus.FieldLogger) *Client {
	return &Client{
		URL:        serviceURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Log:        log,
	}
}

// envelope wraps every agent API response. Data holds the JSON-encoded result.
type envelope struct {
	Envelope struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Data    string `json:"data"`
	} `json:"envelope"`
}

func (c *Client) CheckPolicyCompliance(ctx context.Context, req CheckPolicyComplianceRequest) (*CheckPolicyComplianceResult, error) {
	form, err := baseForm(requestCheckPolicyCompliance, req.OrgToken, req.UserKey, req.Product, req.ProductVersion, req.Projects)
	if err != nil {
		return nil, err
	}
	form.Set("forceCheckAllDependencies", strconv.FormatBool(req.ForceCheckAllDependencies))

	var result CheckPolicyComplianceResult
	if err := c.post(ctx, form, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Update(ctx context.Context, req UpdateRequest) (*UpdateResult, error) {
	form, err := baseForm(requestUpdate, req.OrgToken, req.UserKey, req.Product, req.ProductVersion, req.Projects)
	if err != nil {
		return nil, err
	}
	if req.RequesterEmail != "" {
		form.Set("requesterEmail", req.RequesterEmail)
	}

	var result UpdateResult
	if err := c.post(ctx, form, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func baseForm(requestType, orgToken, userKey, product, productVersion string, projects []*project.Info) (url.Values, error) {
	diff, err := json.Marshal(projects)
	if err != nil {
		return nil, &Error{Kind: KindService, Message: "encoding inventory", Err: err}
	}

	form := url.Values{}
	form.Set("type", requestType)
	form.Set("agent", version.Agent)
	form.Set("agentVersion", version.Version)
	form.Set("token", orgToken)
	if userKey != "" {
		form.Set("userKey", userKey)
	}
	form.Set("product", product)
	form.Set("productVersion", productVersion)
	form.Set("timeStamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	form.Set("diff", string(diff))
	return form, nil
}

// post sends a form-encoded agent request and decodes the envelope data into result.
func (c *Client) post(ctx context.Context, form url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return &Error{Kind: KindService, Message: "creating request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.Agent+"/"+version.Version)

	if c.Log != nil {
		c.Log.Debugf("POST %s (type=%s)", c.URL, form.Get("type"))
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindConnection, Message: "reading response", Err: err}
	}

	if resp.StatusCode >= 400 {
		kind := KindService
		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			kind = KindConnection
		}
		return &Error{Kind: kind, Message: fmt.Sprintf("POST %s: %d %s", c.URL, resp.StatusCode, truncateBody(body, 512))}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &Error{Kind: KindService, Message: "decoding response", Err: err}
	}
	if env.Envelope.Status != statusSuccess {
		msg := env.Envelope.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", env.Envelope.Status)
		}
		return &Error{Kind: KindService, Message: msg}
	}

	if result != nil && env.Envelope.Data != "" {
		if err := json.Unmarshal([]byte(env.Envelope.Data), result); err != nil {
			return &Error{Kind: KindService, Message: "decoding result", Err: err}
		}
	}
	return nil
}

// classifyTransport maps errors from http.Client.Do to an error kind.
// Dial, DNS, reset, EOF and timeout failures are connection errors.
func classifyTransport(err error) *Error {
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
		netErr net.Error
	)
	kind := KindService
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr):
		kind = KindConnection
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		kind = KindConnection
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		kind = KindConnection
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindConnection
	}
	return &Error{Kind: kind, Err: err}
}

func truncateBody(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}

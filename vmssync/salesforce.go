package vmssync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/admiralorbiter/VMS-sub007/config"
)

// salesforceClient talks to the Salesforce REST API: password-grant OAuth,
// SOQL queries paged through nextRecordsUrl, and COUNT() probes.
type salesforceClient struct {
	loginURL     string
	clientId     string
	clientSecret string
	username     string
	password     string
	apiVersion   string

	http     *http.Client
	limiter  <-chan time.Time
	settings config.SyncSettings

	instanceURL string
	accessToken string
}

// NewSalesforceConnector builds a connector from SF_* env vars. The security
// token, when set, is appended to the password as the API requires.
func NewSalesforceConnector(settings config.SyncSettings) (Connector, error) {
	loginURL := strings.TrimSpace(os.Getenv("SF_LOGIN_URL"))
	if loginURL == "" {
		loginURL = "https://login.salesforce.com"
	}
	apiVersion := strings.TrimSpace(os.Getenv("SF_API_VERSION"))
	if apiVersion == "" {
		apiVersion = "v58.0"
	}
	clientId := strings.TrimSpace(os.Getenv("SF_CLIENT_ID"))
	clientSecret := strings.TrimSpace(os.Getenv("SF_CLIENT_SECRET"))
	username := strings.TrimSpace(os.Getenv("SF_USERNAME"))
	password := os.Getenv("SF_PASSWORD") + os.Getenv("SF_SECURITY_TOKEN")
	if clientId == "" || clientSecret == "" || username == "" || password == "" {
		return nil, errors.New("salesforce credentials are not configured")
	}

	var limiter <-chan time.Time
	if settings.RateLimit > 0 {
		limiter = time.Tick(settings.RateLimit)
	}

	return &salesforceClient{
		loginURL:     strings.TrimRight(loginURL, "/"),
		clientId:     clientId,
		clientSecret: clientSecret,
		username:     username,
		password:     password,
		apiVersion:   apiVersion,
		http:         &http.Client{Timeout: settings.RequestTimeout},
		limiter:      limiter,
		settings:     settings,
	}, nil
}

func (c *salesforceClient) Name() string {
	return "salesforce"
}

type sfTokenResponse struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
}

type sfTokenError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// Authenticate runs the password grant once; later calls reuse the token.
// Auth failures are never retried.
func (c *salesforceClient) Authenticate(ctx context.Context) error {
	if c.accessToken != "" {
		return nil
	}
	c.throttle()

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.clientId)
	form.Set("client_secret", c.clientSecret)
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.loginURL+"/services/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return &ConnectorError{Kind: ErrorKindNetwork, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return &ConnectorError{Kind: ErrorKindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var tokenErr sfTokenError
		_ = json.Unmarshal(body, &tokenErr)
		message := tokenErr.Description
		if message == "" {
			message = strings.TrimSpace(string(body))
		}
		return &ConnectorError{Kind: ErrorKindAuth, StatusCode: resp.StatusCode, Code: tokenErr.Error, Message: message}
	}

	var token sfTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return &ConnectorError{Kind: ErrorKindNetwork, StatusCode: resp.StatusCode, Message: "invalid token response: " + err.Error()}
	}
	if token.AccessToken == "" || token.InstanceURL == "" {
		return &ConnectorError{Kind: ErrorKindAuth, StatusCode: resp.StatusCode, Message: "token response missing access_token or instance_url"}
	}
	c.accessToken = token.AccessToken
	c.instanceURL = strings.TrimRight(token.InstanceURL, "/")
	return nil
}

type sfQueryResponse struct {
	TotalSize      int64             `json:"totalSize"`
	Done           bool              `json:"done"`
	NextRecordsUrl string            `json:"nextRecordsUrl"`
	Records        []json.RawMessage `json:"records"`
}

// Query runs the entity's SOQL (or follows a nextRecordsUrl page token) and
// returns one page of raw records.
func (c *salesforceClient) Query(ctx context.Context, entityType string, filter string, pageToken string) (*QueryPage, error) {
	if c.accessToken == "" {
		return nil, &ConnectorError{Kind: ErrorKindAuth, Message: "not authenticated"}
	}

	var endpoint string
	if pageToken != "" {
		endpoint = c.instanceURL + pageToken
	} else {
		desc, err := DescriptorFor(entityType)
		if err != nil {
			return nil, err
		}
		soql := desc.SOQL(filter)
		endpoint = fmt.Sprintf("%s/services/data/%s/query?q=%s", c.instanceURL, c.apiVersion, url.QueryEscape(soql))
	}

	body, status, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, sfErrorFromBody(status, body)
	}

	var parsed sfQueryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ConnectorError{Kind: ErrorKindNetwork, StatusCode: status, Message: "invalid query response: " + err.Error()}
	}

	page := &QueryPage{Records: parsed.Records, TotalSize: parsed.TotalSize}
	if !parsed.Done && parsed.NextRecordsUrl != "" {
		page.NextPageToken = parsed.NextRecordsUrl
	}
	return page, nil
}

// Count issues SELECT COUNT() with the same filter the import uses.
func (c *salesforceClient) Count(ctx context.Context, entityType string, filter string) (int64, error) {
	if c.accessToken == "" {
		return 0, &ConnectorError{Kind: ErrorKindAuth, Message: "not authenticated"}
	}
	desc, err := DescriptorFor(entityType)
	if err != nil {
		return 0, err
	}

	soql := desc.CountSOQL(filter)
	endpoint := fmt.Sprintf("%s/services/data/%s/query?q=%s", c.instanceURL, c.apiVersion, url.QueryEscape(soql))

	body, status, err := c.get(ctx, endpoint)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, sfErrorFromBody(status, body)
	}

	var parsed sfQueryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, &ConnectorError{Kind: ErrorKindNetwork, StatusCode: status, Message: "invalid count response: " + err.Error()}
	}
	return parsed.TotalSize, nil
}

func (c *salesforceClient) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	c.throttle()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, &ConnectorError{Kind: ErrorKindNetwork, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &ConnectorError{Kind: ErrorKindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return body, resp.StatusCode, nil
}

func (c *salesforceClient) throttle() {
	if c.limiter != nil {
		<-c.limiter
	}
}

type sfAPIError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// Salesforce error bodies are arrays; the first element carries the code.
func sfErrorFromBody(status int, body []byte) *ConnectorError {
	var apiErrors []sfAPIError
	if err := json.Unmarshal(body, &apiErrors); err == nil && len(apiErrors) > 0 {
		return classifyHTTPStatus(status, apiErrors[0].ErrorCode, apiErrors[0].Message)
	}
	return classifyHTTPStatus(status, "", strings.TrimSpace(string(body)))
}

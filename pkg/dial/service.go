package dial

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/ocast/internal/logging"
)

// DefaultTimeout bounds one DIAL request.
const DefaultTimeout = 10 * time.Second

const maxResponseSize = 1 << 20

// AppState is the application state reported by the receiver.
type AppState string

const (
	StateRunning AppState = "running"
	StateStopped AppState = "stopped"
	StateHidden  AppState = "hidden"
)

func (s AppState) valid() bool {
	switch s {
	case StateRunning, StateStopped, StateHidden:
		return true
	}
	return false
}

// AppInfo is the parsed answer to an info request.
type AppInfo struct {
	Name  string
	State AppState

	// WebSocketURL is the application's X_OCAST_App2AppURL, if announced
	WebSocketURL string

	// Version is X_OCAST_Version, if announced
	Version string

	// RunLink is the href of the link element, if any
	RunLink string
}

// Service is the application lifecycle capability of a receiver.
type Service interface {
	Info(ctx context.Context, app string) (AppInfo, error)
	Start(ctx context.Context, app string) error
	Stop(ctx context.Context, app string) error
}

// Client talks DIAL to one receiver.
type Client struct {
	// BaseURL is the application URL from the device descriptor
	// (e.g., "http://192.168.1.20:8008/apps")
	BaseURL string

	HTTPClient *http.Client
}

// NewClient creates a DIAL client for the given application base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

type serviceElement struct {
	XMLName xml.Name `xml:"service"`
	Name    *string  `xml:"name"`
	State   *string  `xml:"state"`
	Link    *struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
	AdditionalData struct {
		App2AppURL *string `xml:"X_OCAST_App2AppURL"`
		Version    *string `xml:"X_OCAST_Version"`
	} `xml:"additionalData"`
}

// ParseInfo decodes a DIAL service document.
func ParseInfo(data []byte) (AppInfo, error) {
	var svc serviceElement
	if err := xml.Unmarshal(data, &svc); err != nil {
		return AppInfo{}, fmt.Errorf("%w: %v", ErrBadContent, err)
	}
	if svc.Name == nil || svc.State == nil {
		return AppInfo{}, fmt.Errorf("%w: name or state missing", ErrBadContent)
	}
	state := AppState(strings.TrimSpace(*svc.State))
	if !state.valid() {
		return AppInfo{}, fmt.Errorf("%w: unknown state %q", ErrBadContent, state)
	}

	info := AppInfo{
		Name:  strings.TrimSpace(*svc.Name),
		State: state,
	}
	if v := svc.AdditionalData.App2AppURL; v != nil {
		info.WebSocketURL = strings.TrimSpace(*v)
	}
	if v := svc.AdditionalData.Version; v != nil {
		info.Version = strings.TrimSpace(*v)
	}
	if svc.Link != nil {
		info.RunLink = svc.Link.Href
	}
	return info, nil
}

func (c *Client) appURL(app string) string {
	return c.BaseURL + "/" + app
}

// Info queries the state of app.
func (c *Client) Info(ctx context.Context, app string) (AppInfo, error) {
	body, err := c.do(ctx, "info", app, http.MethodGet, c.appURL(app), http.StatusOK)
	if err != nil {
		return AppInfo{}, err
	}
	info, err := ParseInfo(body)
	if err != nil {
		return AppInfo{}, &Error{Op: "info", App: app, Err: err}
	}
	return info, nil
}

// Start launches app.
func (c *Client) Start(ctx context.Context, app string) error {
	_, err := c.do(ctx, "start", app, http.MethodPost, c.appURL(app), http.StatusCreated)
	return err
}

// Stop resolves the run link of app through Info, then deletes it.
func (c *Client) Stop(ctx context.Context, app string) error {
	info, err := c.Info(ctx, app)
	if err != nil {
		return err
	}
	link, err := c.stopURL(app, info.RunLink)
	if err != nil {
		return &Error{Op: "stop", App: app, Err: err}
	}
	_, err = c.do(ctx, "stop", app, http.MethodDelete, link, http.StatusOK)
	return err
}

// stopURL resolves a relative run link against the application URL.
func (c *Client) stopURL(app, runLink string) (string, error) {
	if runLink != "" {
		if u, err := url.Parse(runLink); err == nil && u.Host != "" {
			return runLink, nil
		}
	}
	if runLink == "" {
		runLink = "run"
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil || base.Host == "" {
		return "", fmt.Errorf("%w: bad base URL %q", ErrBadContent, c.BaseURL)
	}
	return base.JoinPath(app, runLink).String(), nil
}

func (c *Client) do(ctx context.Context, op, app, method, target string, want int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, &Error{Op: op, App: app, Err: err}
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{Op: op, App: app, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Op: op, App: app, Err: err}
	}
	logging.LogDuration("DIAL request", started,
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status_code", resp.StatusCode),
	)
	if resp.StatusCode != want {
		return nil, &Error{Op: op, App: app, StatusCode: resp.StatusCode}
	}
	return body, nil
}

package upnp

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/ocast/pkg/ssdp"
)

// DefaultTimeout bounds one descriptor request.
const DefaultTimeout = 3 * time.Second

// Response headers carrying the DIAL base URL, in order of preference.
const (
	HeaderApplicationDIALURL = "Application-DIAL-URL"
	HeaderApplicationURL     = "Application-URL"
)

// maxDescriptorSize caps how much of a descriptor body is read.
const maxDescriptorSize = 1 << 20

// ErrBadContent is returned when the descriptor or its headers lack a
// required field.
var ErrBadContent = errors.New("upnp: bad descriptor content")

// Description is the subset of the root/device element the SDK needs.
type Description struct {
	FriendlyName string
	Manufacturer string
	ModelName    string
	UDN          string
}

// Parser turns a descriptor body into a Description.
type Parser interface {
	Parse(data []byte) (Description, error)
}

// XMLParser is the default Parser.
type XMLParser struct{}

type rootElement struct {
	XMLName xml.Name `xml:"root"`
	Device  *struct {
		FriendlyName *string `xml:"friendlyName"`
		Manufacturer *string `xml:"manufacturer"`
		ModelName    *string `xml:"modelName"`
		UDN          *string `xml:"UDN"`
	} `xml:"device"`
}

// Parse implements Parser.
func (XMLParser) Parse(data []byte) (Description, error) {
	var root rootElement
	if err := xml.Unmarshal(data, &root); err != nil {
		return Description{}, fmt.Errorf("%w: %v", ErrBadContent, err)
	}
	dev := root.Device
	if dev == nil {
		return Description{}, fmt.Errorf("%w: no device element", ErrBadContent)
	}
	fields := []struct {
		name string
		v    *string
	}{
		{"friendlyName", dev.FriendlyName},
		{"manufacturer", dev.Manufacturer},
		{"modelName", dev.ModelName},
		{"UDN", dev.UDN},
	}
	for _, f := range fields {
		if f.v == nil {
			return Description{}, fmt.Errorf("%w: missing %s", ErrBadContent, f.name)
		}
	}
	return Description{
		FriendlyName: strings.TrimSpace(*dev.FriendlyName),
		Manufacturer: strings.TrimSpace(*dev.Manufacturer),
		ModelName:    strings.TrimSpace(*dev.ModelName),
		UDN:          strings.TrimSpace(*dev.UDN),
	}, nil
}

// Fetcher retrieves device descriptors over HTTP.
type Fetcher struct {
	HTTPClient *http.Client
	Parser     Parser

	now func() time.Time
}

// NewFetcher creates a Fetcher with the default timeout and XML parser.
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		Parser:     XMLParser{},
		now:        time.Now,
	}
}

// Fetch performs a GET on location and builds the Device from the body and
// the response headers.
func (f *Fetcher) Fetch(ctx context.Context, location string) (Device, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return Device{}, fmt.Errorf("upnp: build request for %s: %w", location, err)
	}
	now := time.Now
	if f.now != nil {
		now = f.now
	}
	req.Header.Set("Date", now().UTC().Format(http.TimeFormat))

	client := f.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Device{}, fmt.Errorf("upnp: fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptorSize))
	if err != nil {
		return Device{}, fmt.Errorf("upnp: read %s: %w", location, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Device{}, fmt.Errorf("%w: %s returned HTTP %d", ErrBadContent, location, resp.StatusCode)
	}

	return f.device(location, resp.Header, body)
}

func (f *Fetcher) device(location string, header http.Header, body []byte) (Device, error) {
	appURL := header.Get(HeaderApplicationDIALURL)
	if appURL == "" {
		appURL = header.Get(HeaderApplicationURL)
	}
	if appURL == "" {
		return Device{}, fmt.Errorf("%w: no application URL header", ErrBadContent)
	}
	u, err := url.Parse(appURL)
	if err != nil || u.Hostname() == "" {
		return Device{}, fmt.Errorf("%w: bad application URL %q", ErrBadContent, appURL)
	}
	port := 80
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return Device{}, fmt.Errorf("%w: bad application URL port %q", ErrBadContent, p)
		}
	}

	parser := f.Parser
	if parser == nil {
		parser = XMLParser{}
	}
	desc, err := parser.Parse(body)
	if err != nil {
		return Device{}, err
	}

	id, ok := ssdp.DeviceID(desc.UDN)
	if !ok {
		id = desc.UDN
	}

	return Device{
		Location:       location,
		ID:             id,
		FriendlyName:   desc.FriendlyName,
		Manufacturer:   desc.Manufacturer,
		ModelName:      desc.ModelName,
		ApplicationURL: appURL,
		IPAddress:      u.Hostname(),
		Port:           port,
	}, nil
}

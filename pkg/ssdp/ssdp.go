package ssdp

import (
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"
)

const (
	// MulticastAddress is the IPv4 SSDP group and port.
	MulticastAddress = "239.255.255.250:1900"

	// DefaultSearchTarget is the search target OCast receivers answer to.
	DefaultSearchTarget = "urn:cast-ocast-org:service:cast:1"

	// DefaultMaxTime is the MX value sent with each M-SEARCH.
	DefaultMaxTime = 3 * time.Second

	statusLine = "HTTP/1.1 200 OK"
)

// Required response headers.
const (
	HeaderLocation = "LOCATION"
	HeaderST       = "ST"
	HeaderServer   = "SERVER"
	HeaderUSN      = "USN"
)

var (
	// ErrNotOK is returned when a datagram is not a 200 OK response.
	ErrNotOK = errors.New("ssdp: not an M-SEARCH 200 OK response")

	// ErrMissingHeader is returned when a required header is absent.
	ErrMissingHeader = errors.New("ssdp: missing required header")
)

// GroupAddr returns the resolved multicast destination.
func GroupAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(239, 255, 255, 250), Port: 1900}
}

// Response is one parsed M-SEARCH answer.
type Response struct {
	Location     string
	SearchTarget string
	Server       string
	USN          string
}

// DeviceID extracts the id portion of the response USN.
func (r Response) DeviceID() (string, bool) {
	return DeviceID(r.USN)
}

// MSearch builds an M-SEARCH request for one search target. MX is expressed
// in whole seconds, rounded up and never below one.
func MSearch(searchTarget string, maxTime time.Duration) []byte {
	var b strings.Builder
	b.WriteString("M-SEARCH * HTTP/1.1\r\n")
	fmt.Fprintf(&b, "HOST: %s\r\n", MulticastAddress)
	b.WriteString("MAN: \"ssdp:discover\"\r\n")
	fmt.Fprintf(&b, "MX: %d\r\n", MXSeconds(maxTime))
	fmt.Fprintf(&b, "ST: %s\r\n", searchTarget)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// MXSeconds converts a max wait time to the value carried in the MX header.
func MXSeconds(maxTime time.Duration) int {
	secs := int(math.Ceil(maxTime.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// ParseResponse parses a raw datagram. The first line must be exactly
// "HTTP/1.1 200 OK" and LOCATION, ST, SERVER and USN must all be present.
// Keys are case-insensitive and any other line is ignored.
func ParseResponse(payload []byte) (Response, error) {
	lines := strings.Split(string(payload), "\r\n")
	if len(lines) == 0 || lines[0] != statusLine {
		return Response{}, ErrNotOK
	}

	headers := make(map[string]string, len(lines))
	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	var resp Response
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{HeaderLocation, &resp.Location},
		{HeaderST, &resp.SearchTarget},
		{HeaderServer, &resp.Server},
		{HeaderUSN, &resp.USN},
	} {
		v, ok := headers[f.name]
		if !ok {
			return Response{}, fmt.Errorf("%w: %s", ErrMissingHeader, f.name)
		}
		*f.dst = v
	}
	return resp, nil
}

// DeviceID returns the id in a "uuid:<id>[::...]" string.
func DeviceID(usn string) (string, bool) {
	rest, ok := strings.CutPrefix(usn, "uuid:")
	if !ok {
		return "", false
	}
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

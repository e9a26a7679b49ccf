package upnp

import (
	"fmt"
	"net"
	"strconv"
)

// Device is a receiver whose UPnP descriptor has been fetched and parsed.
// Identity is ID.
type Device struct {
	// Location is the descriptor URL advertised in the SSDP LOCATION header
	Location string

	// ID is the stable device id taken from the UDN (e.g., "b042f955-9ae7-44a8-ba6c-0009743932f7")
	ID string

	FriendlyName string
	Manufacturer string
	ModelName    string

	// ApplicationURL is the DIAL base URL from the Application-DIAL-URL
	// (or Application-URL) response header
	ApplicationURL string

	// IPAddress is the host part of ApplicationURL
	IPAddress string

	// Port is the port of ApplicationURL, 80 when not given
	Port int
}

// String returns a human-readable description of the device
func (d Device) String() string {
	return fmt.Sprintf("%s (%s %s) id=%s at %s", d.FriendlyName, d.Manufacturer, d.ModelName, d.ID, d.HostPort())
}

// HostPort returns the receiver address as host:port.
func (d Device) HostPort() string {
	return net.JoinHostPort(d.IPAddress, strconv.Itoa(d.Port))
}

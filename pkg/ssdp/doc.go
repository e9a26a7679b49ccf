// Package ssdp builds M-SEARCH requests and parses the unicast answers
// receivers send back. It does not own a socket; see package discovery.
package ssdp

// Package discovery finds OCast receivers on the local network over SSDP.
//
// An Engine periodically multicasts M-SEARCH requests for its search
// targets, fetches the UPnP descriptor of every new answering device and
// evicts devices that stop answering. Every cycle sends each request twice,
// then checks MX plus a grace period later which devices did not answer.
//
// # Lifecycle
//
//	Stopped --Resume--> Running --Pause--> Paused --Resume--> Running
//	   ^                   |                  |
//	   +-------Stop--------+-------Stop-------+
//
// Pause keeps the known devices. Stop reports every known device as removed,
// clears all state and then reports the stop. A socket failure takes the
// Stop path and carries the error.
//
// # Usage
//
//	engine := discovery.New(discovery.Options{
//	    Observer: discovery.ObserverFuncs{
//	        Added: func(devices []upnp.Device) { ... },
//	    },
//	})
//	defer engine.Close()
//	if _, err := engine.Resume(); err != nil {
//	    return err
//	}
//
// Scanner wraps an Engine for one-shot listing, as used by "ocast scan".
package discovery

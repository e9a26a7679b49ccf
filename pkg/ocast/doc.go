// Package ocast ties discovery and the protocol client together.
//
// A Center owns a discovery engine and a registry mapping receiver
// manufacturers to client factories. Each receiver found with a registered
// manufacturer gets one ProtocolClient, reported to the Observer:
//
//	center := ocast.NewCenter(ocast.Options{Observer: ocast.ObserverFuncs{
//	    Added: func(clients []ocast.ProtocolClient) { ... },
//	}})
//	center.Register(ocast.ReferenceManufacturer, "", ocast.ReferenceFactory(
//	    device.WithApplicationName("Orange-DefaultReceiver-DEV"),
//	))
//	defer center.Close()
//	center.Resume()
//
// The registry belongs to the Center value; nothing is registered globally.
package ocast

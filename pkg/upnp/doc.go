// Package upnp fetches UPnP device descriptors.
//
// A descriptor is only turned into a Device when the response carries a DIAL
// application URL header and the root/device element has a friendlyName,
// manufacturer, modelName and UDN. The UDN's uuid portion becomes Device.ID.
package upnp

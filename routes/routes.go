// Package routes provides iServer REST resource paths used by the client.
// Paths are relative and joined onto a service URL, so they carry no leading slash.
package routes

import "net/url"

const (
	// Datasources lists the datasources published by a data service.
	Datasources = "datasources"

	// DatasourceByNamePrefix addresses a single datasource by name.
	DatasourceByNamePrefix = "datasources/name"

	// SecurityTokens issues security tokens; it is rooted at the iServer
	// application ("/iserver"), not at a service URL.
	SecurityTokens = "services/security/tokens"
)

// DatasourceByName returns the path of the named datasource with the name path-escaped.
func DatasourceByName(name string) string {
	return DatasourceByNamePrefix + "/" + url.PathEscape(name)
}

// Package iclient is a Go client for the datasource resources of SuperMap iServer data services.
package iclient

import "net/url"

type tokenCredential struct {
	token string
}

// appendTo adds the token query parameter the iServer security layer expects.
func (c tokenCredential) appendTo(rawURL string) string {
	if c.token == "" {
		return rawURL
	}
	return URLAppend(rawURL, "token="+url.QueryEscape(c.token))
}

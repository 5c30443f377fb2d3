// Package discovery implements the WebFinger (RFC 7033) lookup used to turn
// a user address like "alice@host" into the storage service's base
// endpoint. This is glue around the core transfer engine, not part of it.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"resty.dev/v3"
)

const webfingerRel = "http://openmined.org/rel/storage-endpoint"

type webfingerResponse struct {
	Subject string             `json:"subject"`
	Links   []webfingerLinkRel `json:"links"`
}

type webfingerLinkRel struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// Resolve looks up userAddress ("alice@host") via WebFinger against the
// host portion, returning the storage endpoint URL advertised for
// webfingerRel.
func Resolve(ctx context.Context, userAddress string) (string, error) {
	host, err := hostOf(userAddress)
	if err != nil {
		return "", err
	}

	client := resty.New().SetBaseURL("https://" + host)
	defer client.Close()

	var out webfingerResponse
	resp, err := client.R().
		SetContext(ctx).
		SetQueryParam("resource", "acct:"+userAddress).
		SetQueryParam("rel", webfingerRel).
		SetResult(&out).
		Get("/.well-known/webfinger")
	if err != nil {
		return "", fmt.Errorf("discovery: webfinger request for %s: %w", userAddress, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("discovery: webfinger for %s returned %s", userAddress, resp.Status())
	}

	for _, link := range out.Links {
		if link.Rel == webfingerRel && link.Href != "" {
			return link.Href, nil
		}
	}
	return "", fmt.Errorf("discovery: no storage-endpoint link in webfinger response for %s", userAddress)
}

func hostOf(userAddress string) (string, error) {
	at := strings.LastIndex(userAddress, "@")
	if at < 0 || at == len(userAddress)-1 {
		return "", fmt.Errorf("discovery: %q is not a valid user address", userAddress)
	}
	host := userAddress[at+1:]
	if _, err := url.Parse("https://" + host); err != nil {
		return "", fmt.Errorf("discovery: invalid host in %q: %w", userAddress, err)
	}
	return host, nil
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	sdkhttp "github.com/hashicorp/weblogin/sdk/http"
)

// DiscoverProfile builds a generic OIDC profile by fetching the issuer's
// discovery document and filling in the authorization, token and userinfo
// endpoints from it. It makes an http request to the issuer. Supported
// options: WithHTTPClient, WithProviderCA.
func DiscoverProfile(ctx context.Context, name, issuer string, opt ...Option) (*Profile, error) {
	const op = "oauth.DiscoverProfile"
	if name == "" {
		return nil, fmt.Errorf("%s: profile name is empty: %w", op, ErrInvalidParameter)
	}
	if issuer == "" {
		return nil, fmt.Errorf("%s: issuer is empty: %w", op, ErrInvalidParameter)
	}
	opts := getHandlerOpts(opt...)
	client := opts.withHTTPClient
	if client == nil {
		var err error
		client, err = sdkhttp.NewClient(opts.withProviderCA)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
		}
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, client), issuer)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to discover provider %s: %w", op, issuer, err)
	}

	var doc struct {
		UserinfoEndpoint string `json:"userinfo_endpoint"`
	}
	if err := provider.Claims(&doc); err != nil {
		return nil, fmt.Errorf("%s: unable to read discovery document: %w", op, err)
	}
	if doc.UserinfoEndpoint == "" {
		return nil, fmt.Errorf("%s: issuer %s advertises no userinfo endpoint: %w", op, issuer, ErrInvalidParameter)
	}

	p := OIDC(name)
	p.Defaults.AuthorizationURL = provider.Endpoint().AuthURL
	p.Defaults.TokenURL = provider.Endpoint().TokenURL
	p.Defaults.UserinfoURL = doc.UserinfoEndpoint
	return p, nil
}

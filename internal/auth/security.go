/*******************************************************************************
* Copyright (C) 2026 the Eclipse BaSyx Authors and Fraunhofer IESE
*
* Permission is hereby granted, free of charge, to any person obtaining
* a copy of this software and associated documentation files (the
* "Software"), to deal in the Software without restriction, including
* without limitation the rights to use, copy, modify, merge, publish,
* distribute, sublicense, and/or sell copies of the Software, and to
* permit persons to whom the Software is furnished to do so, subject to
* the following conditions:
*
* The above copyright notice and this permission notice shall be
* included in all copies or substantial portions of the Software.
*
* THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
* EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
* MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
* NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
* LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
* OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
* WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*
* SPDX-License-Identifier: MIT
******************************************************************************/

package auth

import (
	"context"
	"log"

	"github.com/go-chi/chi/v5"

	"github.com/mogudian/elasticsearch-orm/internal/common"
)

// SetupSecurity applies the OIDC bearer-token middleware to r when oidc.enabled is set.
// Without it the router stays open, which is how local development runs.
func SetupSecurity(ctx context.Context, cfg *common.Config, r chi.Router) error {
	if !cfg.OIDC.Enabled {
		log.Println("⚠️  OIDC disabled, API endpoints are unauthenticated")
		return nil
	}
	o, err := NewOIDC(ctx, OIDCSettings{
		Issuer:   cfg.OIDC.Issuer,
		Audience: cfg.OIDC.Audience,
		Scopes:   cfg.OIDC.Scopes,
	})
	if err != nil {
		return err
	}
	r.Use(o.Middleware)
	return nil
}

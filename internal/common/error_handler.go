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

// Errors built here carry their HTTP status as a message prefix so that wrapped errors
// keep it when formatted with %w.

package common

import (
	"errors"
	"net/http"
	"strings"
)

const (
	prefixNotFound      = "404 Not Found: "
	prefixBadRequest    = "400 Bad Request: "
	prefixConflict      = "409 Conflict: "
	prefixInternalError = "500 Internal Server Error: "
)

func NewErrNotFound(elementId string) error {
	return errors.New(prefixNotFound + elementId)
}

func NewErrBadRequest(message string) error {
	return errors.New(prefixBadRequest + message)
}

func NewErrConflict(message string) error {
	return errors.New(prefixConflict + message)
}

func NewInternalServerError(message string) error {
	return errors.New(prefixInternalError + message)
}

func IsErrNotFound(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), prefixNotFound)
}

func IsErrBadRequest(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), prefixBadRequest)
}

func IsErrConflict(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), prefixConflict)
}

// StatusCode maps an error built by the helpers above to its HTTP status.
// Unknown errors map to 500.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsErrNotFound(err):
		return http.StatusNotFound
	case IsErrBadRequest(err):
		return http.StatusBadRequest
	case IsErrConflict(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package utils provides utility functions for HTTP operations.
package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/aspnet/AspNetKatana-sub001/internal/system/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
)

var (
	// ErrNoBasicAuthHeader is returned when the request carries no Basic authorization header.
	ErrNoBasicAuthHeader = errors.New("invalid authorization header")
	// ErrMalformedBasicAuthHeader is returned when the Basic credentials cannot be decoded.
	ErrMalformedBasicAuthHeader = errors.New("failed to decode authorization header")
)

// ExtractBasicAuthCredentials extracts the basic authentication credentials from the request header.
// The decoded value is split on the first colon so passwords may contain colons.
func ExtractBasicAuthCredentials(r *http.Request) (string, string, error) {
	authHeader := r.Header.Get(constants.AuthorizationHeaderName)
	if len(authHeader) < 6 || !strings.EqualFold(authHeader[:6], "Basic ") {
		return "", "", ErrNoBasicAuthHeader
	}

	encodedCredentials := strings.TrimSpace(authHeader[6:])
	decodedCredentials, err := base64.StdEncoding.DecodeString(encodedCredentials)
	if err != nil {
		return "", "", ErrMalformedBasicAuthHeader
	}

	credentials := strings.SplitN(string(decodedCredentials), ":", 2)
	if len(credentials) != 2 {
		return "", "", ErrMalformedBasicAuthHeader
	}

	return credentials[0], credentials[1], nil
}

// WriteJSONError writes a JSON error response with the given details.
func WriteJSONError(w http.ResponseWriter, code, desc string, statusCode int, respHeaders []map[string]string) {
	WriteJSONErrorWithURI(w, code, desc, "", statusCode, respHeaders)
}

// WriteJSONErrorWithURI writes a JSON error response including an optional error_uri.
func WriteJSONErrorWithURI(w http.ResponseWriter, code, desc, uri string, statusCode int,
	respHeaders []map[string]string) {
	logger := log.GetLogger()
	logger.Debug("Error in HTTP response", log.String("error", code), log.String("description", desc))

	for _, header := range respHeaders {
		for key, value := range header {
			w.Header().Set(key, value)
		}
	}

	body := map[string]string{"error": code}
	if desc != "" {
		body["error_description"] = desc
	}
	if uri != "" {
		body["error_uri"] = uri
	}
	WriteJSON(w, statusCode, body)
}

// WriteJSON writes the given value as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set(constants.ContentTypeHeaderName, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.GetLogger().Error("Failed to write JSON response", log.Error(err))
	}
}

// SetNoCacheHeaders sets the headers required when a response carries credentials.
func SetNoCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// GetURIWithQueryParams appends the given parameters to the query of the URI.
func GetURIWithQueryParams(uri string, queryParams map[string]string) (string, error) {
	parsedURL, err := url.Parse(uri)
	if err != nil {
		return "", err
	}

	query := parsedURL.Query()
	for key, value := range queryParams {
		if value != "" {
			query.Set(key, value)
		}
	}
	parsedURL.RawQuery = query.Encode()
	return parsedURL.String(), nil
}

// GetURIWithFragmentParams replaces the fragment of the URI with the given parameters.
func GetURIWithFragmentParams(uri string, fragmentParams map[string]string) (string, error) {
	parsedURL, err := url.Parse(uri)
	if err != nil {
		return "", err
	}

	values := url.Values{}
	for key, value := range fragmentParams {
		if value != "" {
			values.Set(key, value)
		}
	}
	parsedURL.Fragment = ""
	parsedURL.RawFragment = ""
	return parsedURL.String() + "#" + values.Encode(), nil
}

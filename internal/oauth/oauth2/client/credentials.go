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

package client

import (
	"errors"
	"net/http"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	serverconst "github.com/aspnet/AspNetKatana-sub001/internal/system/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/utils"
)

// CredentialsError is a client credential extraction failure and how to answer it.
type CredentialsError struct {
	Response   model.ErrorResponse
	StatusCode int
	Headers    []map[string]string
}

// ExtractClientCredentials reads the client credentials from a parsed request.
// HTTP Basic credentials win when they parse; otherwise the form fields are used.
// With strict set, a request that also carries form credentials is rejected and an
// undecodable Basic header fails client authentication.
func ExtractClientCredentials(r *http.Request, strict bool) (model.ClientCredentials, *CredentialsError) {
	formClientID := r.Form.Get(constants.ClientID)
	formSecret := r.Form.Get(constants.ClientSecret)

	basicID, basicSecret, err := utils.ExtractBasicAuthCredentials(r)
	switch {
	case err == nil:
		if strict {
			if credErr := checkCredentialConflicts(basicID, formClientID, formSecret); credErr != nil {
				return model.ClientCredentials{}, credErr
			}
		}
		return model.ClientCredentials{
			ClientID:      basicID,
			ClientSecret:  basicSecret,
			HasSecret:     true,
			FromBasicAuth: true,
		}, nil
	case errors.Is(err, utils.ErrMalformedBasicAuthHeader) && strict:
		return model.ClientCredentials{}, &CredentialsError{
			Response: model.ErrorResponse{
				Error:            constants.ErrorInvalidClient,
				ErrorDescription: "Invalid client credentials",
			},
			StatusCode: http.StatusUnauthorized,
			Headers:    []map[string]string{{serverconst.WWWAuthenticateHeaderName: "Basic"}},
		}
	}

	_, hasSecret := r.Form[constants.ClientSecret]
	return model.ClientCredentials{
		ClientID:     formClientID,
		ClientSecret: formSecret,
		HasSecret:    hasSecret,
	}, nil
}

func checkCredentialConflicts(basicID, formClientID, formSecret string) *CredentialsError {
	if formSecret != "" {
		return &CredentialsError{
			Response: model.ErrorResponse{
				Error:            constants.ErrorInvalidRequest,
				ErrorDescription: "Client credentials are provided in both header and body",
			},
			StatusCode: http.StatusBadRequest,
		}
	}
	if formClientID != "" && formClientID != basicID {
		return &CredentialsError{
			Response: model.ErrorResponse{
				Error:            constants.ErrorInvalidRequest,
				ErrorDescription: "Mismatching client_id in header and body",
			},
			StatusCode: http.StatusBadRequest,
		}
	}
	return nil
}

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

package constants

import dbmodel "github.com/aspnet/AspNetKatana-sub001/internal/system/database/model"

// QueryInsertAuthorizationCode is the query to insert a new authorization code into the database.
var QueryInsertAuthorizationCode = dbmodel.DBQuery{
	ID: "AZQ-00001",
	Query: "INSERT INTO OAUTH_AUTHZ_CODE (CODE_ID, AUTHORIZATION_CODE, CLIENT_ID, " +
		"CALLBACK_URL, TICKET, TIME_CREATED, EXPIRY_TIME, STATE) " +
		"VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
}

// QueryGetAuthorizationCode is the query to retrieve an authorization code by its value.
var QueryGetAuthorizationCode = dbmodel.DBQuery{
	ID: "AZQ-00002",
	Query: "SELECT CODE_ID, AUTHORIZATION_CODE, CLIENT_ID, CALLBACK_URL, TICKET, TIME_CREATED, " +
		"EXPIRY_TIME, STATE FROM OAUTH_AUTHZ_CODE WHERE AUTHORIZATION_CODE = $1",
}

// QueryUpdateAuthorizationCodeState moves an authorization code between states only from the expected state.
var QueryUpdateAuthorizationCodeState = dbmodel.DBQuery{
	ID:    "AZQ-00003",
	Query: "UPDATE OAUTH_AUTHZ_CODE SET STATE = $1 WHERE CODE_ID = $2 AND STATE = $3",
}

// QueryDeleteExpiredAuthorizationCodes removes codes that expired before the given time.
var QueryDeleteExpiredAuthorizationCodes = dbmodel.DBQuery{
	ID:    "AZQ-00004",
	Query: "DELETE FROM OAUTH_AUTHZ_CODE WHERE EXPIRY_TIME < $1",
}

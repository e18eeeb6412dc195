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

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/model"
	dbmodel "github.com/aspnet/AspNetKatana-sub001/internal/system/database/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/database/provider"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
)

// DBAuthorizationCodeStore persists authorization codes in the runtime database.
type DBAuthorizationCodeStore struct {
	DBProvider provider.DBProviderInterface
}

// NewDBAuthorizationCodeStore creates a new instance of DBAuthorizationCodeStore.
func NewDBAuthorizationCodeStore(dbProvider provider.DBProviderInterface) AuthorizationCodeStoreInterface {
	return &DBAuthorizationCodeStore{
		DBProvider: dbProvider,
	}
}

// InsertAuthorizationCode inserts a new authorization code and purges expired codes in one transaction.
func (acs *DBAuthorizationCodeStore) InsertAuthorizationCode(ctx context.Context,
	authzCode model.AuthorizationCode) error {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	dbClient, err := acs.DBProvider.GetDBClient(provider.RuntimeDB)
	if err != nil {
		logger.Error("Failed to get database client", log.Error(err))
		return err
	}
	dbType := dbClient.GetDBType()

	tx, err := dbClient.BeginTx(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", log.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, constants.QueryInsertAuthorizationCode.GetQuery(dbType), authzCode.CodeID,
		authzCode.Code, authzCode.ClientID, authzCode.RedirectURI, string(authzCode.Ticket),
		authzCode.TimeCreated.UTC(), authzCode.ExpiryTime.UTC(), authzCode.State)
	if err != nil {
		logger.Error("Failed to insert authorization code", log.Error(err))
		rollback(tx, logger)
		return fmt.Errorf("failed to insert authorization code: %w", err)
	}

	result, err := tx.ExecContext(ctx, constants.QueryDeleteExpiredAuthorizationCodes.GetQuery(dbType),
		authzCode.TimeCreated.UTC())
	if err != nil {
		logger.Error("Failed to purge expired authorization codes", log.Error(err))
		rollback(tx, logger)
		return fmt.Errorf("failed to purge expired authorization codes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit transaction", log.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	if purged, err := result.RowsAffected(); err == nil && purged > 0 {
		logger.Debug("Purged expired authorization codes", log.Int64("count", purged))
	}
	return nil
}

func rollback(tx dbmodel.TxInterface, logger *log.Logger) {
	if err := tx.Rollback(); err != nil {
		logger.Error("Failed to roll back transaction", log.Error(err))
	}
}

// GetAuthorizationCode retrieves an authorization code by its value.
func (acs *DBAuthorizationCodeStore) GetAuthorizationCode(ctx context.Context,
	code string) (model.AuthorizationCode, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	dbClient, err := acs.DBProvider.GetDBClient(provider.RuntimeDB)
	if err != nil {
		logger.Error("Failed to get database client", log.Error(err))
		return model.AuthorizationCode{}, err
	}

	results, err := dbClient.Query(ctx, constants.QueryGetAuthorizationCode, code)
	if err != nil {
		return model.AuthorizationCode{}, fmt.Errorf("error while retrieving authorization code: %w", err)
	}
	if len(results) == 0 {
		return model.AuthorizationCode{}, constants.ErrAuthorizationCodeNotFound
	}
	row := results[0]

	codeID := columnString(row["code_id"])
	if codeID == "" {
		return model.AuthorizationCode{}, constants.ErrAuthorizationCodeNotFound
	}

	timeCreated, err := parseTimeField(row["time_created"], "time_created", logger)
	if err != nil {
		return model.AuthorizationCode{}, err
	}
	expiryTime, err := parseTimeField(row["expiry_time"], "expiry_time", logger)
	if err != nil {
		return model.AuthorizationCode{}, err
	}

	return model.AuthorizationCode{
		CodeID:      codeID,
		Code:        columnString(row["authorization_code"]),
		ClientID:    columnString(row["client_id"]),
		RedirectURI: columnString(row["callback_url"]),
		Ticket:      []byte(columnString(row["ticket"])),
		TimeCreated: timeCreated,
		ExpiryTime:  expiryTime,
		State:       columnString(row["state"]),
	}, nil
}

// DeactivateAuthorizationCode moves the code from active to inactive in a single conditional update.
func (acs *DBAuthorizationCodeStore) DeactivateAuthorizationCode(ctx context.Context,
	authzCode model.AuthorizationCode) error {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	dbClient, err := acs.DBProvider.GetDBClient(provider.RuntimeDB)
	if err != nil {
		logger.Error("Failed to get database client", log.Error(err))
		return err
	}

	rowsAffected, err := dbClient.Execute(ctx, constants.QueryUpdateAuthorizationCodeState,
		constants.AuthCodeStateInactive, authzCode.CodeID, constants.AuthCodeStateActive)
	if err != nil {
		return fmt.Errorf("failed to deactivate authorization code: %w", err)
	}
	if rowsAffected == 0 {
		return constants.ErrAuthorizationCodeInactive
	}
	return nil
}

func columnString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// Helper function to parse a time field from the database.
func parseTimeField(field interface{}, fieldName string, logger *log.Logger) (time.Time, error) {
	const customTimeFormat = "2006-01-02 15:04:05.999999999"

	switch v := field.(type) {
	case string:
		parsedTime, err := time.Parse(customTimeFormat, trimTimeString(v))
		if err != nil {
			logger.Error("Error parsing time field", log.String("field", fieldName), log.Error(err))
			return time.Time{}, fmt.Errorf("error parsing %s: %w", fieldName, err)
		}
		return parsedTime, nil
	case time.Time:
		return v.UTC(), nil
	default:
		logger.Error("Unexpected type for time field", log.String("field", fieldName), log.Any("value", v))
		return time.Time{}, fmt.Errorf("unexpected type for %s", fieldName)
	}
}

// trimTimeString drops a trailing zone suffix such as "+0000 UTC".
func trimTimeString(timeStr string) string {
	parts := strings.SplitN(timeStr, " ", 3)
	if len(parts) >= 2 {
		return parts[0] + " " + parts[1]
	}
	return timeStr
}

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

package model

// ResultKind tags the outcome of a validation or grant step.
type ResultKind int

const (
	// ResultAccepted carries the step's payload.
	ResultAccepted ResultKind = iota + 1
	// ResultRejected rejects the request without protocol error details.
	ResultRejected
	// ResultError rejects the request with an OAuth error triple.
	ResultError
)

// Result is the outcome of a validation or grant step. The zero value is neither accepted nor failed.
type Result[T any] struct {
	kind    ResultKind
	payload T
	err     ErrorResponse
}

// Accepted returns an accepted result carrying the payload.
func Accepted[T any](payload T) Result[T] {
	return Result[T]{kind: ResultAccepted, payload: payload}
}

// Rejected returns a rejected result.
func Rejected[T any]() Result[T] {
	return Result[T]{kind: ResultRejected}
}

// Failed returns an error result with the given OAuth error triple.
func Failed[T any](code, description, uri string) Result[T] {
	return Result[T]{kind: ResultError, err: ErrorResponse{Error: code, ErrorDescription: description, ErrorURI: uri}}
}

// FailedWith returns an error result with the given error response.
func FailedWith[T any](errResp *ErrorResponse) Result[T] {
	if errResp == nil {
		return Rejected[T]()
	}
	return Result[T]{kind: ResultError, err: *errResp}
}

// Kind returns the result tag.
func (r Result[T]) Kind() ResultKind {
	return r.kind
}

// IsAccepted reports whether the step accepted the request.
func (r Result[T]) IsAccepted() bool {
	return r.kind == ResultAccepted
}

// IsRejected reports whether the step rejected the request without error details.
func (r Result[T]) IsRejected() bool {
	return r.kind == ResultRejected
}

// HasError reports whether the step failed with an OAuth error.
func (r Result[T]) HasError() bool {
	return r.kind == ResultError
}

// Payload returns the accepted payload, or the zero value for any other result.
func (r Result[T]) Payload() T {
	return r.payload
}

// ErrorResponse returns the error triple. Rejected and unset results map to defaultCode.
func (r Result[T]) ErrorResponse(defaultCode string) *ErrorResponse {
	switch r.kind {
	case ResultAccepted:
		return nil
	case ResultError:
		errResp := r.err
		if errResp.Error == "" {
			errResp.Error = defaultCode
		}
		return &errResp
	default:
		return &ErrorResponse{Error: defaultCode}
	}
}

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

package tokencodec

import "time"

// UnixToUTC converts Unix epoch seconds to a UTC timestamp.
func UnixToUTC(seconds int64) time.Time {
	return time.Unix(seconds, 0).UTC()
}

// UTCToUnix converts a timestamp to Unix epoch seconds, truncating sub second precision.
func UTCToUnix(t time.Time) int64 {
	return t.UTC().Unix()
}

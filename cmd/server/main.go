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

// Package main is the entry point for starting the OAuth2 authorization server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is injected at build time.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "oauth-server",
	Short:        "OAuth2 authorization server issuing JWT bearer tokens",
	SilenceUsage: true,
	Version:      version,
}

func main() {
	rootCmd.AddCommand(newServeCommand())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

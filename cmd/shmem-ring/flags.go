// Copyright 2026 Intel Corporation. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/intel/symmetric-memory/pkg/config"
)

// options of the ring program.
type options struct {
	configFile string
	configHelp bool
	rounds     int
	size       string
}

var opt = options{}

func init() {
	flag.StringVar(&opt.configFile, "config", "", "YAML file to read configuration from.")
	flag.BoolVar(&opt.configHelp, "config-help", false, "describe the configuration and exit.")
	flag.IntVar(&opt.rounds, "rounds", 10, "number of times to pass the token around the ring.")
	flag.StringVar(&opt.size, "size", "8Ki", "size of the buffer passed around the ring.")
}

// configure applies the command line to the configuration.
func configure() {
	if opt.configHelp {
		fmt.Println(config.Describe())
		os.Exit(0)
	}
	if opt.configFile == "" {
		return
	}
	if err := config.ParseYAMLFile(opt.configFile); err != nil {
		log.Fatal("failed to load configuration: %v", err)
	}
	if log.DebugEnabled() {
		if raw, err := config.GetYAML(); err == nil {
			log.DebugBlock("  <config> ", "%s", string(raw))
		}
	}
}

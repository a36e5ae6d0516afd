// Copyright © 2017 The virtual-kubelet authors
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

package root

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cbosdo/libvirt/state"
	"github.com/mitchellh/go-homedir"
)

// Defaults for root command options
const (
	DefaultConfigName   = ".virteventd.toml"
	DefaultURI          = "test:///default"
	DefaultTickInterval = state.DefaultTickInterval
	DefaultEnvPrefix    = "VIRTEVENTD"
)

// Opts stores all the options for configuring the virteventd commands.
// It is used for setting flag values.
//
// You can set the default options by creating a new `Opts` struct and passing
// it into `SetDefaultOpts`
type Opts struct {
	// Path to the config file. Keys are flag names.
	ConfigPath string

	// Event script replayed by the run command.
	EventsPath string
	// Stop once the script is replayed and every event delivered.
	ExitAfterReplay bool

	// Connection URI the watch subscriber registers with.
	URI string
	// Only watch events about the object with this UUID.
	FilterUUID string

	// How often the dispatcher fires when not kicked by new events.
	TickInterval time.Duration
}

// SetDefaultOpts sets default options for unset values on the passed in option struct.
// Fields tht are already set will not be modified.
func SetDefaultOpts(c *Opts) error {
	if c.URI == "" {
		c.URI = getEnv("LIBVIRT_DEFAULT_URI", DefaultURI)
	}

	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}

	if c.ConfigPath == "" {
		home, _ := homedir.Dir()
		if home != "" {
			c.ConfigPath = filepath.Join(home, DefaultConfigName)
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	value, found := os.LookupEnv(key)
	if found {
		return value
	}
	return defaultValue
}

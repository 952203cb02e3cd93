/*
   FluxDisk - floppy disk flux track codec
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of FluxDisk.

   FluxDisk is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   FluxDisk is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with FluxDisk. If not, see <http://www.gnu.org/licenses/>.
*/

package run

import (
	"fmt"
	"os"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

/*
	The package initializer sets up logging based on logrus. The following
	environment variables can be used to configure logging:

		LOG_FORMAT		set to `json` for JSON logging
		LOG_FORCE_COLORS	set to non-empty for forcing colorized log entries
		LOG_METHODS		set to non-empty for including methods in log
		LOG_LEVEL		`panic`, `fatal`, `error`, `warn`, `info`, `debug`, `trace`
*/
func init() {

	log.SetOutput(os.Stdout)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else if os.Getenv("LOG_FORCE_COLORS") != "" {
		log.SetFormatter(&log.TextFormatter{ForceColors: true})
	}

	if os.Getenv("LOG_METHODS") != "" {
		log.SetReportCaller(true)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if l, err := log.ParseLevel(level); err != nil {
			log.Errorf("invalid log level: '%s'; valid levels are: panic, "+
				"fatal, error, warn, info, debug, trace", level)
		} else {
			log.SetLevel(l)
		}
	}
}

// ConfigEnv names the environment variable that may point to a config file.
const ConfigEnv = "FLUXDISK_CONFIG"

var (
	configOnce sync.Once
	configErr  error
)

// loadConfig reads the config file named by FLUXDISK_CONFIG, once per process.
func loadConfig() error {
	configOnce.Do(func() {
		configErr = readConfigFile(os.Getenv(ConfigEnv))
	})
	return configErr
}

/*
	readConfigFile makes the settings in file available to all commands. Keys
	are the long flag names, e.g.

		diskdefs: ~/fluxdisk/diskdefs.cfg
		workers: 8

	The file type follows from the extension. A flag or environment variable,
	when given, takes precedence over the file. An empty file name is a no-op.
*/
func readConfigFile(file string) error {

	if file == "" {
		return nil
	}

	log.WithField("file", file).Debug("loading config file")
	viper.SetConfigFile(file)

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot read config file %s: %v", file, err)
	}
	return nil
}

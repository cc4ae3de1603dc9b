package main

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"regexp"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/mxpv/ytlink/pkg/db"
	"github.com/mxpv/ytlink/pkg/model"
	"github.com/mxpv/ytlink/pkg/server"
)

type Config struct {
	// Server is the web server configuration
	Server server.Config `toml:"server"`
	// Log is the optional logging configuration
	Log Log `toml:"log"`
	// Database configuration
	Database db.Config `toml:"database"`
	// History controls how long resolved videos are kept
	History History `toml:"history"`
}

type Log struct {
	// Filename to write the log to (instead of stdout)
	Filename string `toml:"filename"`
	// MaxSize is the maximum size of the log file in MB
	MaxSize int `toml:"max_size"`
	// MaxBackups is the maximum number of log file backups to keep after rotation
	MaxBackups int `toml:"max_backups"`
	// MaxAge is the maximum number of days to keep the logs for
	MaxAge int `toml:"max_age"`
	// Compress old backups
	Compress bool `toml:"compress"`
}

type History struct {
	// Schedule is a cron expression telling how often to prune history
	Schedule string `toml:"schedule"`
	// MaxAge removes videos not accessed for this long, 0 keeps everything.
	// Format is "300ms", "1.5h" or "2h45m".
	MaxAge time.Duration `toml:"max_age"`
}

// LoadConfig loads TOML configuration from a file path
func LoadConfig(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file: %s", path)
	}

	config := Config{}
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal toml")
	}

	// max_age = "0" is a valid way to disable cleanup, keep it apart from "not set"
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse toml")
	}

	config.applyDefaults(path)
	if !tree.Has("history.max_age") {
		config.History.MaxAge = model.DefaultHistoryMaxAge
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	var result *multierror.Error

	if c.Server.Path != "" {
		var pathReg = regexp.MustCompile(model.PathRegex)
		if !pathReg.MatchString(c.Server.Path) {
			result = multierror.Append(result, errors.Errorf("server handle path must match %s or be empty", model.PathRegex))
		}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		result = multierror.Append(result, errors.Errorf("invalid server port %d", c.Server.Port))
	}

	if _, err := cron.ParseStandard(c.History.Schedule); err != nil {
		result = multierror.Append(result, errors.Wrapf(err, "invalid history schedule %q", c.History.Schedule))
	}

	if c.History.MaxAge < 0 {
		result = multierror.Append(result, errors.New("history max age can't be negative"))
	}

	return result.ErrorOrNil()
}

func (c *Config) applyDefaults(configPath string) {
	if c.Server.Port == 0 {
		c.Server.Port = model.DefaultServerPort
	}

	if c.Server.Hostname == "" {
		if c.Server.Port != 80 {
			c.Server.Hostname = fmt.Sprintf("http://localhost:%d", c.Server.Port)
		} else {
			c.Server.Hostname = "http://localhost"
		}
	}

	if c.Log.Filename != "" {
		if c.Log.MaxSize == 0 {
			c.Log.MaxSize = model.DefaultLogMaxSize
		}
		if c.Log.MaxAge == 0 {
			c.Log.MaxAge = model.DefaultLogMaxAge
		}
		if c.Log.MaxBackups == 0 {
			c.Log.MaxBackups = model.DefaultLogMaxBackups
		}
	}

	if c.Database.Dir == "" {
		c.Database.Dir = filepath.Join(filepath.Dir(configPath), "db")
	}

	if c.History.Schedule == "" {
		c.History.Schedule = model.DefaultHistorySchedule
	}
}

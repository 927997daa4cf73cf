package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const DefaultPath = "./config/application.yaml"

const envPrefix = "COURSEPLAN_"

type Application struct {
	Host     string   `koanf:"host"`
	Port     int      `koanf:"port"`
	Database Database `koanf:"db"`
	Schedule Schedule `koanf:"schedule"`
	Term     Term     `koanf:"term"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Schedule struct {
	GridStartHour  int           `koanf:"gridstarthour"`
	GridEndHour    int           `koanf:"gridendhour"`
	RequestTimeout time.Duration `koanf:"requesttimeout"`
	// ApiUrl is the server the schedule CLI talks to.
	ApiUrl string `koanf:"apiurl"`
}

// Term dates are YYYY-MM-DD in the term's time zone.
type Term struct {
	Start    string `koanf:"start"`
	End      string `koanf:"end"`
	Timezone string `koanf:"timezone"`
}

// Dates parses the term bounds in the configured time zone.
func (t Term) Dates() (start time.Time, end time.Time, loc *time.Location, err error) {
	loc, err = time.LoadLocation(t.Timezone)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("invalid term timezone %q: %w", t.Timezone, err)
	}
	start, err = time.ParseInLocation(time.DateOnly, t.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("invalid term start %q: %w", t.Start, err)
	}
	end, err = time.ParseInLocation(time.DateOnly, t.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("invalid term end %q: %w", t.End, err)
	}
	return start, end, loc, nil
}

func defaults() Application {
	return Application{
		Host: "http://localhost:8181",
		Port: 8181,
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "courseplan",
			Pass:   "",
			Name:   "courseplan",
			Schema: "courseplan",
		},
		Schedule: Schedule{
			GridStartHour:  7,
			GridEndHour:    22,
			RequestTimeout: 10 * time.Second,
			ApiUrl:         "http://localhost:8181",
		},
		Term: Term{
			Start:    "2026-09-02",
			End:      "2026-12-14",
			Timezone: "America/New_York",
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}

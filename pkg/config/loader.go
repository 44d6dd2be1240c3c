package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Load fills cfg from the process environment using its `env` and
// `envDefault` struct tags.
func Load(cfg any) error {
	return parse(cfg, env.Options{})
}

// LoadFrom fills cfg from environment instead of the process environment.
// Variables absent from the map fall back to their defaults.
func LoadFrom(cfg any, environment map[string]string) error {
	return parse(cfg, env.Options{Environment: environment})
}

func parse(cfg any, opts env.Options) error {
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadDotEnv exports the KEY=VALUE pairs of each file that exists. Variables
// already present in the environment win over the file.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		err := godotenv.Load(f)
		switch {
		case err == nil, errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

// Package config loads the bot's configuration from one or more yaml files,
// later files overriding the earlier ones.
package config

import (
	"fmt"
	"os"
	"reflect"

	log "github.com/sirupsen/logrus"

	"github.com/go-playground/validator/v10"
	"github.com/imdario/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// LoadEnv loads the provided dotenv files into the process
// environment. Missing files are skipped, variables that are
// already set are not overridden.
func LoadEnv(envFiles ...string) error {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			log.WithField("File", f).Debug("Env file not found, skipping")
			continue
		}
		log.WithField("File", f).Info("Loading env file")
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("could not load env file %s: %w", f, err)
		}
	}
	return nil
}

// LoadConfiguration parses the config files into the target, merging
// them in order. ${VAR} references are expanded from the environment
// before parsing.
func LoadConfiguration(configFiles []string, target interface{}) error {
	for _, configFilePath := range configFiles {
		log.WithFields(log.Fields{"File": configFilePath}).Info("Parsing config file")
		rawContent, err := os.ReadFile(configFilePath)
		if err != nil {
			return err
		}
		cfg := newZeroFor(target)
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(rawContent))), cfg); err != nil {
			return fmt.Errorf("could not parse %s: %w", configFilePath, err)
		}
		if err := mergo.Merge(target, cfg, mergo.WithOverride); err != nil {
			return err
		}
	}
	return nil
}

// newZeroFor returns a pointer to a new zero value of the type
// target points to. The yaml parser does not deep merge, so every
// file is parsed into a fresh value and merged with mergo.
// NOTE: target must be a pointer.
func newZeroFor(target interface{}) interface{} {
	return reflect.New(reflect.TypeOf(target).Elem()).Interface()
}

// ValidateConfiguration validates the target's fields against their
// `validate` tags. A misuse of the validator is wrapped in a plain
// error, field failures are returned as validator.ValidationErrors.
func ValidateConfiguration(target interface{}) error {
	validate := validator.New()
	err := validate.Struct(target)
	if _, ok := err.(*validator.InvalidValidationError); ok {
		return fmt.Errorf("could not validate input (%v): %v", target, err)
	}
	return err
}

// LoadAndValidateConfiguration loads and validates the configuration
// in one go. Fields may be partially loaded when an error is returned.
func LoadAndValidateConfiguration(configFiles []string, target interface{}) (err error) {
	err = LoadConfiguration(configFiles, target)
	if err != nil {
		return
	}
	err = ValidateConfiguration(target)
	return
}

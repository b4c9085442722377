// Package config reads the client settings from the environment. A
// .env file on the working directory is loaded first when present.
package config

import (
	"fmt"
	"log"
	"os"

	"github.com/candidatos-info/cadastro/filestorage"
	"github.com/joho/godotenv"
)

// Backend variants
const (
	BackendStrapi = "strapi"
	BackendREST   = "rest"
	BackendLocal  = "local"
)

// Config is the client configuration.
type Config struct {
	Backend      string // strapi, rest or local
	APIURL       string // CMS origin or REST base URL
	StorageFile  string // file used by the local backend
	PhotoStorage string // optional destination of photos for the rest backend
	Steps        bool   // two-step registration form
	FileStorage  filestorage.Config
}

// FromEnv builds a Config from environment variables, filling the
// defaults of each backend.
func FromEnv() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("falha ao carregar arquivo .env, erro %q\n", err)
	}
	c := Config{
		Backend:      getenv("CADASTRO_BACKEND", BackendLocal),
		APIURL:       os.Getenv("CADASTRO_API_URL"),
		StorageFile:  getenv("CADASTRO_STORAGE_FILE", "cadastro.json"),
		PhotoStorage: os.Getenv("CADASTRO_PHOTO_STORAGE"),
		Steps:        os.Getenv("CADASTRO_FORM_STEPS") == "true",
		FileStorage: filestorage.Config{
			AWSRegion:            os.Getenv("AWS_REGION"),
			AWSAccessKeyID:       os.Getenv("ACCESS_KEY_ID"),
			AWSSecretAccessKey:   os.Getenv("SECRET_ACCESS_KEY"),
			DriveCredentialsFile: os.Getenv("DRIVE_CREDENTIALS"),
			DriveOAuthTokenFile:  os.Getenv("DRIVE_OAUTH_TOKEN"),
		},
	}
	c.FillAPIURL()
	return c
}

// FillAPIURL sets the default address of the backend when none was
// given.
func (c *Config) FillAPIURL() {
	if c.APIURL != "" {
		return
	}
	switch c.Backend {
	case BackendStrapi:
		c.APIURL = "http://localhost:1337"
	case BackendREST:
		c.APIURL = "http://localhost:3001"
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendStrapi, BackendREST, BackendLocal:
		return nil
	}
	return fmt.Errorf("backend desconhecido [%s], use %s, %s ou %s", c.Backend, BackendStrapi, BackendREST, BackendLocal)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

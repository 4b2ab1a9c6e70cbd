// Package config loads, validates, and watches the tempwatch YAML
// configuration. Secrets never live in the file: config fields name the
// environment variables that hold them (API keys, webhook URLs, passwords),
// and accessor methods resolve them at call time. This keeps the config file
// safe to commit while the secrets manager injects values at container run.
package config

/*******************************************************************************
* Copyright (C) 2026 the Eclipse BaSyx Authors and Fraunhofer IESE
*
* Permission is hereby granted, free of charge, to any person obtaining
* a copy of this software and associated documentation files (the
* "Software"), to deal in the Software without restriction, including
* without limitation the rights to use, copy, modify, merge, publish,
* distribute, sublicense, and/or sell copies of the Software, and to
* permit persons to whom the Software is furnished to do so, subject to
* the following conditions:
*
* The above copyright notice and this permission notice shall be
* included in all copies or substantial portions of the Software.
*
* THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
* EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
* MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
* NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
* LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
* OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
* WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*
* SPDX-License-Identifier: MIT
******************************************************************************/

// Package common provides configuration management and HTTP endpoint utilities for the
// query compiler service. It includes support for YAML configuration files, environment
// variable overrides, CORS setup, health and metrics endpoints, and the status-prefixed
// errors shared by all packages.
// nolint:all
package common

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

// Backend types accepted in backend.type.
const (
	BackendNone          = "none"
	BackendPostgres      = "postgres"
	BackendMongoDB       = "mongodb"
	BackendElasticsearch = "elasticsearch"
)

// Config represents the complete configuration structure of the query compiler service.
// It combines server settings, the compiler and entity metadata, the document store,
// CORS policy and OIDC authentication.
type Config struct {
	Server     ServerConfig   `mapstructure:"server" json:"server"`     // HTTP server configuration
	Compiler   CompilerConfig `mapstructure:"compiler" json:"compiler"` // Compiler and metadata settings
	Backend    BackendConfig  `mapstructure:"backend" json:"backend"`   // Document store selection
	Postgres   PostgresConfig `mapstructure:"postgres" json:"postgres"` // PostgreSQL document store
	MongoDB    MongoDBConfig  `mapstructure:"mongodb" json:"mongodb"`   // MongoDB document store
	Elastic    ElasticConfig  `mapstructure:"elastic" json:"elastic"`   // Elasticsearch document store
	CorsConfig CorsConfig     `mapstructure:"cors" json:"cors"`         // CORS policy configuration

	OIDC OIDCConfig `mapstructure:"oidc" json:"oidc"` // OpenID Connect authentication
}

// ServerConfig contains HTTP server configuration parameters.
type ServerConfig struct {
	Host        string `mapstructure:"host" json:"host"`
	Port        int    `mapstructure:"port" json:"port"`               // HTTP server port (default: 5080)
	ContextPath string `mapstructure:"contextPath" json:"contextPath"` // Base path for all endpoints
}

// CompilerConfig controls how clauses are compiled.
type CompilerConfig struct {
	MetadataPath   string `mapstructure:"metadataPath" json:"metadataPath"` // Entity metadata file (YAML or JSON)
	SchemaPath     string `mapstructure:"schemaPath" json:"schemaPath"`     // Optional JSON schema for the metadata file
	DateLayout     string `mapstructure:"dateLayout" json:"dateLayout"`     // Layout of time.Time parameters
	DefaultScoring bool   `mapstructure:"defaultScoring" json:"defaultScoring"`
}

// BackendConfig selects the document store used by search and count.
type BackendConfig struct {
	Type string `mapstructure:"type" json:"type"` // none, postgres, mongodb or elasticsearch
}

// PostgresConfig contains PostgreSQL database connection parameters.
// It includes connection pooling settings for optimal performance.
type PostgresConfig struct {
	Host                   string `mapstructure:"host" json:"host"`         // Database host address
	Port                   int    `mapstructure:"port" json:"port"`         // Database port (default: 5432)
	User                   string `mapstructure:"user" json:"user"`         // Database username
	Password               string `mapstructure:"password" json:"password"` // Database password
	DBName                 string `mapstructure:"dbname" json:"dbname"`     // Database name
	SSLMode                string `mapstructure:"sslmode" json:"sslmode"`
	MaxOpenConnections     int    `mapstructure:"maxOpenConnections" json:"maxOpenConnections"`         // Maximum open connections
	MaxIdleConnections     int    `mapstructure:"maxIdleConnections" json:"maxIdleConnections"`         // Maximum idle connections
	ConnMaxLifetimeMinutes int    `mapstructure:"connMaxLifetimeMinutes" json:"connMaxLifetimeMinutes"` // Connection lifetime in minutes
	EnsureTables           bool   `mapstructure:"ensureTables" json:"ensureTables"`                     // Create missing document tables on start
}

// DSN renders the connection string understood by lib/pq.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// MongoDBConfig contains the MongoDB connection parameters.
type MongoDBConfig struct {
	URI            string `mapstructure:"uri" json:"uri"`
	Database       string `mapstructure:"database" json:"database"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds" json:"timeoutSeconds"`
}

// ElasticConfig contains the Elasticsearch cluster settings.
type ElasticConfig struct {
	URLs        []string `mapstructure:"urls" json:"urls"`
	Username    string   `mapstructure:"username" json:"username"`
	Password    string   `mapstructure:"password" json:"password"`
	Healthcheck bool     `mapstructure:"healthcheck" json:"healthcheck"`
}

// CorsConfig contains Cross-Origin Resource Sharing (CORS) policy settings.
type CorsConfig struct {
	AllowedOrigins   []string `mapstructure:"allowedOrigins" json:"allowedOrigins"`     // Allowed origin domains
	AllowedMethods   []string `mapstructure:"allowedMethods" json:"allowedMethods"`     // Allowed HTTP methods
	AllowedHeaders   []string `mapstructure:"allowedHeaders" json:"allowedHeaders"`     // Allowed request headers
	AllowCredentials bool     `mapstructure:"allowCredentials" json:"allowCredentials"` // Allow credentials in requests
}

// OIDCConfig contains OpenID Connect authentication provider settings. Authentication is
// disabled when Enabled is false.
type OIDCConfig struct {
	Enabled  bool     `mapstructure:"enabled" json:"enabled"`
	Issuer   string   `mapstructure:"issuer" json:"issuer"`     // OIDC issuer URL
	Audience string   `mapstructure:"audience" json:"audience"` // Expected token audience
	Scopes   []string `mapstructure:"scopes" json:"scopes"`     // Scopes every token must carry
}

// LoadConfig loads the configuration from YAML files and environment variables.
//
// The function supports multiple configuration sources with the following precedence:
// 1. Environment variables (highest priority)
// 2. Configuration file (if provided)
// 3. Default values (lowest priority)
//
// Environment variables use underscore notation (e.g., SERVER_PORT for server.port).
//
// Example:
//
//	config, err := LoadConfig("config/querycompiler.yaml")
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		log.Printf("📁 Loading config from file: %s", configPath)
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		log.Println("📁 No config file provided, loading from environment variables only")
	}

	// Override config with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	PrintConfiguration(cfg)
	return cfg, nil
}

// Validate reports configuration values the service cannot start with.
func (c *Config) Validate() error {
	switch c.Backend.Type {
	case BackendNone, BackendPostgres, BackendMongoDB, BackendElasticsearch:
	default:
		return NewErrBadRequest(fmt.Sprintf("unknown backend type %q", c.Backend.Type))
	}
	if c.Compiler.MetadataPath == "" {
		return NewErrBadRequest("compiler.metadataPath is required")
	}
	if c.OIDC.Enabled && c.OIDC.Issuer == "" {
		return NewErrBadRequest("oidc.issuer is required when oidc is enabled")
	}
	return nil
}

// setDefaults configures default values that let the service run in development
// environments. Production deployments override them through configuration files or
// environment variables.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5080)
	v.SetDefault("server.contextPath", "")

	v.SetDefault("compiler.metadataPath", "config/entities.yaml")
	v.SetDefault("compiler.schemaPath", "")
	v.SetDefault("compiler.dateLayout", "2006-01-02 15:04:05")
	v.SetDefault("compiler.defaultScoring", false)

	v.SetDefault("backend.type", BackendNone)

	// PostgreSQL defaults
	v.SetDefault("postgres.host", "db")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "admin")
	v.SetDefault("postgres.password", "admin123")
	v.SetDefault("postgres.dbname", "documents")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.maxOpenConnections", 50)
	v.SetDefault("postgres.maxIdleConnections", 50)
	v.SetDefault("postgres.connMaxLifetimeMinutes", 5)
	v.SetDefault("postgres.ensureTables", false)

	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "documents")
	v.SetDefault("mongodb.timeoutSeconds", 10)

	v.SetDefault("elastic.urls", []string{"http://localhost:9200"})
	v.SetDefault("elastic.username", "")
	v.SetDefault("elastic.password", "")
	v.SetDefault("elastic.healthcheck", true)

	// CORS defaults
	v.SetDefault("cors.allowedOrigins", []string{"*"})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"*"})
	v.SetDefault("cors.allowCredentials", true)

	v.SetDefault("oidc.enabled", false)
	v.SetDefault("oidc.issuer", "http://localhost:8080/realms/documents")
	v.SetDefault("oidc.audience", "query-compiler")
	v.SetDefault("oidc.scopes", []string{})
}

// PrintConfiguration prints the current configuration to the console with sensitive data
// redacted: database credentials, the MongoDB URI and the Elasticsearch password are
// replaced with "****".
func PrintConfiguration(cfg *Config) {
	cfgCopy := *cfg

	if cfg.Postgres.Host != "" {
		cfgCopy.Postgres.Host = "****"
		cfgCopy.Postgres.User = "****"
		cfgCopy.Postgres.Password = "****"
	}
	if cfg.MongoDB.URI != "" {
		cfgCopy.MongoDB.URI = "****"
	}
	if cfg.Elastic.Password != "" {
		cfgCopy.Elastic.Password = "****"
	}

	configJSON, err := json.MarshalIndent(cfgCopy, "", "  ")
	if err != nil {
		log.Printf("Unable to marshal configuration to JSON: %v", err)
		return
	}

	log.Printf("📜 Loaded configuration:\n%s", string(configJSON))
}

// AddCors configures Cross-Origin Resource Sharing (CORS) middleware for the router
// from the cors section of config.
func AddCors(r *chi.Mux, config *Config) {
	c := cors.New(cors.Options{
		AllowedOrigins:   config.CorsConfig.AllowedOrigins,
		AllowedMethods:   config.CorsConfig.AllowedMethods,
		AllowedHeaders:   config.CorsConfig.AllowedHeaders,
		AllowCredentials: config.CorsConfig.AllowCredentials,
	})
	r.Use(c.Handler)
}

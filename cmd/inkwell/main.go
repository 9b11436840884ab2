// Command inkwell runs the blog server with the default template set.
// Configuration comes from an optional YAML file, with environment
// variables taking precedence for secrets.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/calmsite/inkwell"
	"github.com/calmsite/inkwell/views"
)

type fileConfig struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
	Addr        string `yaml:"addr"`

	Storage struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`

	Session struct {
		Secret string `yaml:"secret"`
		TTL    string `yaml:"ttl"`
		Secure bool   `yaml:"secure"`
	} `yaml:"session"`

	Admin struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"admin"`

	Categories      []string `yaml:"categories"`
	VideoEmbedHosts []string `yaml:"video_embed_hosts"`
}

func loadConfig(path string) (inkwell.SiteConfig, error) {
	var fc fileConfig
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return inkwell.SiteConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return inkwell.SiteConfig{}, err
	}

	cfg := inkwell.SiteConfig{
		Name:            fc.Name,
		URL:             fc.URL,
		Description:     fc.Description,
		Author:          fc.Author,
		Addr:            fc.Addr,
		DatabaseDriver:  fc.Storage.Driver,
		DatabaseDSN:     fc.Storage.DSN,
		SessionSecret:   inkwell.EnvOr("SESSION_SECRET", fc.Session.Secret),
		CookieSecure:    fc.Session.Secure,
		AdminUsername:   inkwell.EnvOr("ADMIN_USERNAME", fc.Admin.Username),
		AdminPassword:   inkwell.EnvOr("ADMIN_PASSWORD", fc.Admin.Password),
		Categories:      fc.Categories,
		VideoEmbedHosts: fc.VideoEmbedHosts,
	}
	if fc.Session.TTL != "" {
		ttl, err := time.ParseDuration(fc.Session.TTL)
		if err != nil {
			return inkwell.SiteConfig{}, fmt.Errorf("parse session ttl: %w", err)
		}
		cfg.SessionTTL = ttl
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	app := inkwell.New(cfg, views.Default())
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

var DefaultConfigFileNames = []string{
	"gqlintel.ts",
	"gqlintel.mts",
	"gqlintel.cts",
	"gqlintel.js",
	"gqlintel.mjs",
	"gqlintel.cjs",
	"gqlintel.yaml",
	"gqlintel.yml",
	"gqlintel.config.ts",
	"gqlintel.config.mts",
	"gqlintel.config.cts",
	"gqlintel.config.js",
	"gqlintel.config.mjs",
	"gqlintel.config.cjs",
	"gqlintel.config.yaml",
	"gqlintel.config.yml",
}

func DiscoverConfig(startPath string) (string, error) {
	if startPath != "" && fileExists(startPath) {
		return startPath, nil
	}

	dir := "."
	if startPath != "" {
		dir = filepath.Dir(startPath)
	}

	for _, name := range DefaultConfigFileNames {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path, nil
		}
	}

	packagePath := filepath.Join(dir, "package.json")
	if config, found := checkPackageJSON(packagePath); found {
		return config, nil
	}

	parent := filepath.Dir(dir)
	if parent != dir && parent != "/" && parent != "." {
		return DiscoverConfig(parent)
	}

	return "", fmt.Errorf("no configuration file found")
}

func checkPackageJSON(path string) (string, bool) {
	if !fileExists(path) {
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	var pkg map[string]interface{}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", false
	}

	if _, exists := pkg["gqlintel"]; exists {
		return path, true
	}

	return "", false
}

func LoadFromPackageJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading package.json: %w", err)
	}

	var pkg map[string]interface{}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parsing package.json: %w", err)
	}

	configData, exists := pkg["gqlintel"]
	if !exists {
		return nil, fmt.Errorf("no 'gqlintel' key found in package.json")
	}

	configJSON, err := json.Marshal(configData)
	if err != nil {
		return nil, fmt.Errorf("marshaling config data: %w", err)
	}

	var config Config
	if err := json.Unmarshal(configJSON, &config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.ResolveRelativePaths(path)

	if err := config.setDefaults(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
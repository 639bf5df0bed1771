package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk configuration layout.
//
//	session:
//	  initial_buffer_size: 4096
//	  search_paths: [/opt/tools/bin]
//	  terminate_grace_period: 5s
//	host:
//	  user_agent: procshim/1.0
//	  http_timeout: 2m
type File struct {
	Session Options     `yaml:"session"`
	Host    HostOptions `yaml:"host"`
}

// LoadFile reads and decodes a YAML configuration file.
// Unknown keys are rejected so typos surface early.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration and applies host defaults.
func Parse(data []byte) (*File, error) {
	var f File

	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)

		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	if f.Session.InitialBufferSize < 0 {
		return nil, fmt.Errorf("decode config: initial_buffer_size must not be negative, got %d",
			f.Session.InitialBufferSize)
	}

	f.Host.Normalize()

	return &f, nil
}

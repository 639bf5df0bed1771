// Package config provides configuration types for procshim.
package config

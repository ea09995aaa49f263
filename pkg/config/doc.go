// Package config loads the YAML configuration shared by the r2d7
// binaries: the controller endpoint, the shades attached to it and the
// optional MQTT broker.
package config

// Package config loads service configuration with viper.
//
// Every key has a default, so the service starts with no configuration at
// all. See Load for the layering order.
package config

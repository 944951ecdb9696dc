package config

import (
	"github.com/spf13/pflag"
)

// ParseFlags reads the command line of binary and returns the env file base
// name to load. It defaults to the binary name.
func ParseFlags(binary string, args []string) (string, error) {
	fs := pflag.NewFlagSet(binary, pflag.ContinueOnError)

	var configName string
	fs.StringVarP(&configName, "config", "c", binary, "Base name of the .env config file in ./configs or .")

	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return configName, nil
}

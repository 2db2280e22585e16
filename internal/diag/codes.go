package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Document loading and cross-document validation (CFG)
	CfgParse              Code = 1000
	CfgDuplicateSpecKey   Code = 1001
	CfgDuplicateConfigKey Code = 1002
	CfgUndefinedKey       Code = 1003
	CfgInvalidRegex       Code = 1004
	CfgValueMismatch      Code = 1005
	CfgSecretAsEnv        Code = 1006

	// File and process plumbing around the core (IO)
	IOReadFailed Code = 4000
)

var codeDescription = map[Code]string{
	UnknownCode:           "unknown diagnostic",
	CfgParse:              "cannot parse document",
	CfgDuplicateSpecKey:   "duplicate environment variable in spec",
	CfgDuplicateConfigKey: "duplicate environment variable in config",
	CfgUndefinedKey:       "undefined environment variable",
	CfgInvalidRegex:       "invalid regex for environment variable",
	CfgValueMismatch:      "environment variable value does not match spec",
	CfgSecretAsEnv:        "secret defined as env",
	IOReadFailed:          "cannot read document",
}

// ID returns the stable short identifier used in rendered output.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

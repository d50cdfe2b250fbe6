package workflow

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed banks.yaml
var banksYAML []byte

// BankInstructions are the channel-specific transfer steps shown next to a
// virtual account number.
type BankInstructions struct {
	Code  string   `yaml:"code"`
	Name  string   `yaml:"name"`
	Steps []string `yaml:"steps"`
}

type bankCatalog struct {
	Banks   []BankInstructions `yaml:"banks"`
	Generic BankInstructions   `yaml:"generic"`
}

var catalog bankCatalog

func init() {
	if err := yaml.Unmarshal(banksYAML, &catalog); err != nil {
		panic("workflow: invalid embedded bank catalog: " + err.Error())
	}
}

// BankChannels lists the supported virtual-account bank codes.
func BankChannels() []BankInstructions {
	out := make([]BankInstructions, len(catalog.Banks))
	copy(out, catalog.Banks)
	return out
}

// InstructionsFor returns the payment steps for a bank code. Unlisted
// banks get the generic fallback with the code uppercased as the name.
func InstructionsFor(channel string) BankInstructions {
	code := strings.ToLower(strings.TrimSpace(channel))
	for _, b := range catalog.Banks {
		if b.Code == code {
			return b
		}
	}

	fallback := catalog.Generic
	fallback.Code = code
	fallback.Name = strings.ToUpper(code)
	if fallback.Name == "" {
		fallback.Name = "Bank"
	}
	return fallback
}

package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed packages.yaml
var defaultPackages []byte

// PackageSeed describes an investment package created on first start.
type PackageSeed struct {
	Name             string `yaml:"name"`
	Description      string `yaml:"description"`
	MinAmount        int64  `yaml:"min_amount"`
	MaxAmount        int64  `yaml:"max_amount"`
	DurationDays     int    `yaml:"duration_days"`
	ProfitPercentage string `yaml:"profit_percentage"`
	MaxUses          int    `yaml:"max_uses"`
	Active           *bool  `yaml:"active"`
}

type packageFile struct {
	Packages []PackageSeed `yaml:"packages"`
}

// LoadPackageSeeds reads seeds from path, or the embedded defaults when path is empty.
func LoadPackageSeeds(path string) ([]PackageSeed, error) {
	data := defaultPackages
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read package seeds: %w", err)
		}
		data = b
	}
	return ParsePackageSeeds(data)
}

func ParsePackageSeeds(data []byte) ([]PackageSeed, error) {
	var f packageFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse package seeds: %w", err)
	}
	for i, p := range f.Packages {
		if p.Name == "" {
			return nil, fmt.Errorf("package seed %d: name is required", i)
		}
		if p.MinAmount <= 0 || p.MaxAmount < p.MinAmount {
			return nil, fmt.Errorf("package seed %q: invalid amount range %d-%d", p.Name, p.MinAmount, p.MaxAmount)
		}
		if p.DurationDays <= 0 {
			return nil, fmt.Errorf("package seed %q: duration_days must be positive", p.Name)
		}
	}
	return f.Packages, nil
}

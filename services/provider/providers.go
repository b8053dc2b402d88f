package provider

import (
	"fmt"
	"log"
	"time"

	"snatchr/config"
)

// BuildFromConfig constructs an adapter for every enabled provider entry.
// An entry with an unknown type or a broken URL is logged and skipped so
// one bad stanza does not take down the rest.
func BuildFromConfig(settings *config.Settings) []*Adapter {
	timeout := time.Duration(settings.Search.FetchTimeoutSeconds) * time.Second

	var adapters []*Adapter
	for _, cfg := range settings.Providers {
		if !cfg.Enabled {
			continue
		}
		adapter, err := build(cfg, timeout)
		if err != nil {
			log.Printf("[provider] skipping %s: %v", cfg.Name, err)
			continue
		}
		adapters = append(adapters, adapter)
		log.Printf("[provider] configured %s", adapter.Name())
	}
	return adapters
}

func build(cfg config.ProviderSettings, timeout time.Duration) (*Adapter, error) {
	switch cfg.Type {
	case "abnormal":
		return NewAbnormal(cfg, timeout)
	case "iptorrents":
		return NewIPTorrents(cfg, timeout)
	case "ncore":
		return NewNcore(cfg, timeout)
	case "norbits":
		return NewNorbits(cfg, timeout)
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}

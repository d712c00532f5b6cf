package main

import (
	"fmt"
	"math/big"
	"os"

	"gopkg.in/yaml.v3"

	"swaproute/chain"
	"swaproute/exchange"
)

type Config struct {
	Listen          string `yaml:"listen"`
	JournalPath     string `yaml:"journal_path"`
	ResyncInterval  string `yaml:"resync_interval"`
	MaxHops         int    `yaml:"max_hops"`
	SlippagePermill uint64 `yaml:"slippage_permill"`

	Chains    []ChainConfig    `yaml:"chains"`
	Transfers []TransferConfig `yaml:"transfers"`
}

type ChainConfig struct {
	ID      string        `yaml:"id"`
	Name    string        `yaml:"name"`
	RPC     string        `yaml:"rpc"`
	Sidecar string        `yaml:"sidecar"`
	Seed    string        `yaml:"seed"`
	Assets  []AssetConfig `yaml:"assets"`
}

type AssetConfig struct {
	ID                 uint32 `yaml:"id"`
	Symbol             string `yaml:"symbol"`
	Decimals           uint8  `yaml:"decimals"`
	ExistentialDeposit string `yaml:"existential_deposit"`
	Utility            bool   `yaml:"utility"`
}

type TransferConfig struct {
	OriginChain string `yaml:"origin_chain"`
	OriginAsset uint32 `yaml:"origin_asset"`
	DestChain   string `yaml:"dest_chain"`
	DestAsset   uint32 `yaml:"dest_asset"`
	DeliveryFee string `yaml:"delivery_fee"`
}

func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{
		Listen:          ":8399",
		JournalPath:     "journal",
		ResyncInterval:  "5m",
		MaxHops:         4,
		SlippagePermill: 5000,
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.Chains) == 0 {
		return nil, fmt.Errorf("config declares no chains")
	}
	return cfg, nil
}

func (c ChainConfig) chainModel() (*chain.Chain, error) {
	assets := make([]chain.Asset, 0, len(c.Assets))
	for _, asset := range c.Assets {
		deposit, ok := new(big.Int).SetString(asset.ExistentialDeposit, 10)
		if !ok {
			return nil, fmt.Errorf("chain %s asset %d: malformed existential_deposit %q", c.ID, asset.ID, asset.ExistentialDeposit)
		}
		assets = append(assets, chain.Asset{
			ID:                 asset.ID,
			Symbol:             asset.Symbol,
			Decimals:           asset.Decimals,
			ExistentialDeposit: deposit,
			Utility:            asset.Utility,
		})
	}
	return &chain.Chain{ID: c.ID, Name: c.Name, Assets: assets}, nil
}

func (c *Config) transfers() ([]exchange.Transfer, error) {
	transfers := make([]exchange.Transfer, 0, len(c.Transfers))
	for _, t := range c.Transfers {
		fee, ok := new(big.Int).SetString(t.DeliveryFee, 10)
		if !ok {
			return nil, fmt.Errorf("transfer %s -> %s: malformed delivery_fee %q", t.OriginChain, t.DestChain, t.DeliveryFee)
		}
		transfers = append(transfers, exchange.Transfer{
			OriginChain: t.OriginChain,
			OriginAsset: t.OriginAsset,
			DestChain:   t.DestChain,
			DestAsset:   t.DestAsset,
			DeliveryFee: fee,
		})
	}
	return transfers, nil
}

// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"github.com/bitfsorg/librbf-go/router"
)

// Offering is a YAML template describing one instrument and its vault.
// Amounts are base-10 integers in token base units, times are RFC 3339 and
// durations use time.ParseDuration syntax.
type Offering struct {
	RBF   RBFTemplate   `yaml:"rbf"`
	Vault VaultTemplate `yaml:"vault"`
}

// RBFTemplate is the instrument half of an Offering.
type RBFTemplate struct {
	Name             string `yaml:"name"`
	Symbol           string `yaml:"symbol"`
	Decimals         uint8  `yaml:"decimals"`
	Asset            string `yaml:"asset"`
	DepositTreasury  string `yaml:"depositTreasury"`
	Manager          string `yaml:"manager"`
	Guardian         string `yaml:"guardian"`
	MintAmountSetter string `yaml:"mintAmountSetter"`
	PriceFeeder      string `yaml:"priceFeeder"`
	PriceDecimals    uint8  `yaml:"priceDecimals"`
	BoundedMint      bool   `yaml:"boundedMint"`
	Deployer         string `yaml:"deployer"`
}

// VaultTemplate is the vault half of an Offering.
type VaultTemplate struct {
	Name             string   `yaml:"name"`
	Symbol           string   `yaml:"symbol"`
	Decimals         uint8    `yaml:"decimals"`
	SubStartTime     string   `yaml:"subStartTime"`
	SubEndTime       string   `yaml:"subEndTime"`
	Duration         string   `yaml:"duration"`
	FundThreshold    uint64   `yaml:"fundThreshold"`
	MinDepositAmount string   `yaml:"minDepositAmount"`
	ManageFee        uint64   `yaml:"manageFee"`
	MaxSupply        string   `yaml:"maxSupply"`
	FinancePrice     string   `yaml:"financePrice"`
	Manager          string   `yaml:"manager"`
	FeeReceiver      string   `yaml:"feeReceiver"`
	Guardian         string   `yaml:"guardian"`
	WhiteList        []string `yaml:"whiteList"`
	IsOpen           bool     `yaml:"isOpen"`
}

// LoadOffering reads an offering template from a YAML file.
func LoadOffering(path string) (*Offering, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read offering %s: %w", path, err)
	}
	return ParseOffering(data)
}

// ParseOffering decodes an offering template.
func ParseOffering(data []byte) (*Offering, error) {
	var o Offering
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOffering, err)
	}
	return &o, nil
}

// SaveOffering writes o to path as YAML.
func SaveOffering(path string, o *Offering) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Errorf("config: encode offering: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write offering %s: %w", path, err)
	}
	return nil
}

// RBFDeployData converts the instrument template into deployment data for id.
func (o *Offering) RBFDeployData(id uint64) (*router.RBFDeployData, error) {
	t := &o.RBF
	var p parser
	d := &router.RBFDeployData{
		ID:               id,
		Name:             t.Name,
		Symbol:           t.Symbol,
		Decimals:         t.Decimals,
		Asset:            p.address("rbf.asset", t.Asset),
		DepositTreasury:  p.address("rbf.depositTreasury", t.DepositTreasury),
		Manager:          p.address("rbf.manager", t.Manager),
		Guardian:         p.address("rbf.guardian", t.Guardian),
		MintAmountSetter: p.address("rbf.mintAmountSetter", t.MintAmountSetter),
		PriceFeeder:      p.address("rbf.priceFeeder", t.PriceFeeder),
		PriceDecimals:    t.PriceDecimals,
		BoundedMint:      t.BoundedMint,
		Deployer:         p.address("rbf.deployer", t.Deployer),
	}
	if p.err != nil {
		return nil, p.err
	}
	return d, nil
}

// VaultDeployData converts the vault template into deployment data for id
// over the instrument at rbfAddr.
func (o *Offering) VaultDeployData(id uint64, rbfAddr common.Address) (*router.VaultDeployData, error) {
	t := &o.Vault
	var p parser
	d := &router.VaultDeployData{
		ID:               id,
		Name:             t.Name,
		Symbol:           t.Symbol,
		Decimals:         t.Decimals,
		RBF:              rbfAddr,
		SubStartTime:     p.time("vault.subStartTime", t.SubStartTime),
		SubEndTime:       p.time("vault.subEndTime", t.SubEndTime),
		Duration:         p.duration("vault.duration", t.Duration),
		FundThreshold:    t.FundThreshold,
		MinDepositAmount: p.amount("vault.minDepositAmount", t.MinDepositAmount),
		ManageFee:        t.ManageFee,
		MaxSupply:        p.amount("vault.maxSupply", t.MaxSupply),
		FinancePrice:     p.amount("vault.financePrice", t.FinancePrice),
		Manager:          p.address("vault.manager", t.Manager),
		FeeReceiver:      p.address("vault.feeReceiver", t.FeeReceiver),
		Guardian:         p.address("vault.guardian", t.Guardian),
		IsOpen:           t.IsOpen,
	}
	for i, s := range t.WhiteList {
		d.WhiteList = append(d.WhiteList, p.address(fmt.Sprintf("vault.whiteList[%d]", i), s))
	}
	if p.err != nil {
		return nil, p.err
	}
	return d, nil
}

// parser records the first field that fails to parse.
type parser struct {
	err error
}

func (p *parser) fail(field, value string, cause error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s %q: %v", ErrInvalidOffering, field, value, cause)
	}
}

func (p *parser) address(field, s string) common.Address {
	if s == "" {
		return common.Address{}
	}
	if !common.IsHexAddress(s) {
		p.fail(field, s, fmt.Errorf("not a hex address"))
		return common.Address{}
	}
	return common.HexToAddress(s)
}

func (p *parser) amount(field, s string) *uint256.Int {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		p.fail(field, s, err)
		return nil
	}
	return v
}

func (p *parser) time(field, s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		p.fail(field, s, err)
	}
	return t
}

func (p *parser) duration(field, s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		p.fail(field, s, err)
	}
	return d
}

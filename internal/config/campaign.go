package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
)

// The campaign table is campaign-specific data, not code: deadlines and
// token whitelists were revised at least once historically, so deployments
// override the embedded version wholesale with --campaign.
//
//go:embed campaign.json
var defaultCampaignJSON []byte

type campaignWeekFile struct {
	Week           int      `json:"week"`
	EndTimestamp   uint64   `json:"endTimestamp"`
	BaselinePoints int64    `json:"baselinePoints"`
	TokenIDs       []string `json:"tokenIds"`
}

type campaignFile struct {
	DevAddress          string `json:"devAddress"`
	SnapshotTimestamp   uint64 `json:"snapshotTimestamp"`
	PromotionalContract string `json:"promotionalContract"`
	Capabilities        struct {
		Exchange       string `json:"exchange"`
		ContentFactory string `json:"contentFactory"`
	} `json:"capabilities"`
	Weeks           []campaignWeekFile `json:"weeks"`
	CorrectTokenIDs []string           `json:"correctTokenIds"`
}

// Campaign is the immutable constant table gating statistics and scoring:
// the excluded dev address, the global snapshot cutoff, capability ids, and
// the weekly scoring tables. A zero SnapshotTimestamp disables the global
// cutoff while the weekly deadlines keep gating points.
type Campaign struct {
	DevAddress               string
	SnapshotTimestamp        uint64
	PromotionalContract      string
	CapabilityExchange       string
	CapabilityContentFactory string

	weekEnds      map[int]uint64
	weekBaselines map[int]int64
	weekByToken   map[string]int
	correct       map[string]struct{}
}

// LoadCampaign parses a campaign file, or the embedded default when path
// is empty.
func LoadCampaign(path string) (Campaign, error) {
	data := defaultCampaignJSON
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Campaign{}, fmt.Errorf("read campaign: %w", err)
		}
	}
	return parseCampaign(data)
}

func parseCampaign(data []byte) (Campaign, error) {
	var file campaignFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Campaign{}, fmt.Errorf("parse campaign: %w", err)
	}
	if file.DevAddress == "" {
		return Campaign{}, fmt.Errorf("campaign dev address is required")
	}
	if file.Capabilities.Exchange == "" || file.Capabilities.ContentFactory == "" {
		return Campaign{}, fmt.Errorf("campaign capability ids are required")
	}

	c := Campaign{
		DevAddress:               strings.ToLower(file.DevAddress),
		SnapshotTimestamp:        file.SnapshotTimestamp,
		PromotionalContract:      strings.ToLower(file.PromotionalContract),
		CapabilityExchange:       strings.ToLower(file.Capabilities.Exchange),
		CapabilityContentFactory: strings.ToLower(file.Capabilities.ContentFactory),
		weekEnds:                 make(map[int]uint64),
		weekBaselines:            make(map[int]int64),
		weekByToken:              make(map[string]int),
		correct:                  make(map[string]struct{}),
	}

	for _, week := range file.Weeks {
		if week.Week < 1 {
			return Campaign{}, fmt.Errorf("invalid week number: %d", week.Week)
		}
		if _, ok := c.weekEnds[week.Week]; ok {
			return Campaign{}, fmt.Errorf("duplicate week: %d", week.Week)
		}
		c.weekEnds[week.Week] = week.EndTimestamp
		c.weekBaselines[week.Week] = week.BaselinePoints
		for _, id := range week.TokenIDs {
			token, err := normalizeTokenID(id)
			if err != nil {
				return Campaign{}, fmt.Errorf("week %d: %w", week.Week, err)
			}
			c.weekByToken[token] = week.Week
		}
	}

	for _, id := range file.CorrectTokenIDs {
		token, err := normalizeTokenID(id)
		if err != nil {
			return Campaign{}, err
		}
		c.correct[token] = struct{}{}
	}

	return c, nil
}

func normalizeTokenID(id string) (string, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(id), 10)
	if !ok {
		return "", fmt.Errorf("invalid token id: %q", id)
	}
	return value.String(), nil
}

// AfterSnapshot reports whether ts falls after the global cutoff.
func (c Campaign) AfterSnapshot(ts uint64) bool {
	return c.SnapshotTimestamp > 0 && ts > c.SnapshotTimestamp
}

// IsDev reports whether id is the excluded dev address.
func (c Campaign) IsDev(id string) bool {
	return id == c.DevAddress
}

// IsPromotional reports whether the content id is the tracked promotional
// contract.
func (c Campaign) IsPromotional(contentID string) bool {
	return c.PromotionalContract != "" && contentID == c.PromotionalContract
}

// WeekOf returns the campaign week a token id belongs to, or 0.
func (c Campaign) WeekOf(tokenID *big.Int) int {
	return c.weekByToken[tokenID.String()]
}

// WeekEnd returns the deadline for a week, or 0 for an unknown week.
func (c Campaign) WeekEnd(week int) uint64 {
	return c.weekEnds[week]
}

// BaselinePoints returns the points seeded on first participation in a week.
func (c Campaign) BaselinePoints(week int) *big.Int {
	return big.NewInt(c.weekBaselines[week])
}

// IsCorrectToken reports whether a token id is on the answer list.
func (c Campaign) IsCorrectToken(tokenID *big.Int) bool {
	_, ok := c.correct[tokenID.String()]
	return ok
}

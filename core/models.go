package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// DefaultOrganizationType is assigned to tenders that arrive without one.
const DefaultOrganizationType = "State"

// DefaultMidpoint is the small/large threshold used when a company has none.
const DefaultMidpoint = 500_000_000.0

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Tender is a procurement opportunity. Only the fields the scoring engine
// reads are modelled; the ingestion pipeline owns the full record.
type Tender struct {
	ID                 string       `json:"id"`
	Value              *float64     `json:"tender_value,omitempty"`
	Coordinates        *Coordinates `json:"coordinates,omitempty"` // nil when the tender could not be geocoded
	Organization       string       `json:"organization,omitempty"`
	Website            string       `json:"website,omitempty"`
	OrganizationType   string       `json:"organization_type,omitempty"`
	WorkDescription    string       `json:"work_description,omitempty"`
	Description        string       `json:"description,omitempty"`
	ProductCategory    string       `json:"product_category,omitempty"`
	ProductSubCategory string       `json:"product_sub_category,omitempty"`
}

// OrgType returns the organization type, falling back to DefaultOrganizationType.
func (t *Tender) OrgType() string {
	if t.OrganizationType == "" {
		return DefaultOrganizationType
	}
	return t.OrganizationType
}

// SearchableFields returns the text fields matched by keyword search, in a
// fixed order.
func (t *Tender) SearchableFields() []string {
	return []string{
		t.WorkDescription,
		t.Description,
		t.Organization,
		t.ProductCategory,
		t.ProductSubCategory,
	}
}

// EmbeddingText is the text an embedding is generated from.
func (t *Tender) EmbeddingText() string {
	if t.Description != "" {
		return t.Description
	}
	return t.WorkDescription
}

// AmountRange is a company's preferred tender value window.
type AmountRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Site is one of a company's locations. Factor weights the proximity score
// earned by this site; a nil Factor counts as 1.
type Site struct {
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Factor      *float64     `json:"factor,omitempty"`
}

// Importance returns the site's weighting factor.
func (s Site) Importance() float64 {
	if s.Factor == nil {
		return 1
	}
	return *s.Factor
}

// CompanyInfo holds the scoring-relevant parts of a company profile.
type CompanyInfo struct {
	Keywords        []string     `json:"keywords,omitempty"`
	PreferredRange  *AmountRange `json:"preferred_tender_amount_range,omitempty"`
	HQLocations     []Site       `json:"hq_locations,omitempty"`
	RegionalOffices []Site       `json:"regional_offices,omitempty"`
	OngoingSites    []Site       `json:"ongoing_sites,omitempty"`
}

// Sites returns headquarters, regional offices and ongoing sites in that order.
func (c *CompanyInfo) Sites() []Site {
	sites := make([]Site, 0, len(c.HQLocations)+len(c.RegionalOffices)+len(c.OngoingSites))
	sites = append(sites, c.HQLocations...)
	sites = append(sites, c.RegionalOffices...)
	sites = append(sites, c.OngoingSites...)
	return sites
}

// Range returns the preferred amount range, or the zero range when unset.
func (c *CompanyInfo) Range() AmountRange {
	if c.PreferredRange == nil {
		return AmountRange{}
	}
	return *c.PreferredRange
}

// CompanyProfile is the buyer profile owned by one user.
type CompanyProfile struct {
	UserID       string       `json:"user_id"`
	CompanyName  string       `json:"company_name"`
	Midpoint     float64      `json:"midpoint,omitempty"`
	SavedTenders []string     `json:"saved_tenders,omitempty"`
	Info         *CompanyInfo `json:"company_info,omitempty"`
}

// MidpointOr returns the profile midpoint, or fallback when unset.
func (p *CompanyProfile) MidpointOr(fallback float64) float64 {
	if p.Midpoint > 0 {
		return p.Midpoint
	}
	return fallback
}

// ParticipationRecord lists the historical tenders a named company engaged with.
type ParticipationRecord struct {
	Name                string   `json:"name"`
	ParticipatedTenders []string `json:"participated_tenders"`
}

// ResultRecord is a historical tender result; only the participation keys are kept.
type ResultRecord struct {
	ID           string `json:"id"`
	Organization string `json:"organization,omitempty"`
	Website      string `json:"website,omitempty"`
}

// Score is the compatibility of one tender for one user.
type Score struct {
	TenderID string  `json:"tender_id"`
	UserID   string  `json:"user_id"`
	Score    float64 `json:"score"`
}

// Neighbor is a nearest-neighbour hit returned by a vector index.
// Similarity is normalized to [0,1].
type Neighbor struct {
	TenderID   string
	Similarity float64
}

// PairKey derives a fixed-width key for a (tender, user) pair using BLAKE2b.
// Identical pairs always produce identical keys.
func PairKey(tenderID, userID string) [16]byte {
	h, _ := blake2b.New(16, nil)
	var lens [16]byte
	binary.BigEndian.PutUint64(lens[:8], uint64(len(tenderID)))
	binary.BigEndian.PutUint64(lens[8:], uint64(len(userID)))
	h.Write(lens[:])
	h.Write([]byte(tenderID))
	h.Write([]byte(userID))

	var key [16]byte
	copy(key[:], h.Sum(nil))
	return key
}

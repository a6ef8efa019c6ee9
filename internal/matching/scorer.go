// internal/matching/scorer.go
package matching

import (
	"math"
	"strings"

	"compost-match-engine/internal/models"
)

const earthRadiusKm = 6371.0

// Factors is the per-factor breakdown of a match score.
type Factors struct {
	Proximity     float64 `json:"proximity"`
	Compatibility float64 `json:"compatibility"`
	Load          float64 `json:"load"`
}

// Score computes the 0-100 relevance of a composter for a waste listing.
// Additive across three independent factors, each capped: proximity (0-50),
// waste-type compatibility (0-30) and load balancing (0-20). currentLoad is
// the composter's open-assignment count, computed by the snapshot source.
// Pure: no I/O, no mutation of either snapshot.
func Score(listing *models.WasteListing, composter *models.Composter, currentLoad int) (float64, Factors) {
	factors := Factors{
		Proximity:     proximityScore(&listing.Location, &composter.Location),
		Compatibility: compatibilityScore(listing.WasteType),
		Load:          loadScore(currentLoad),
	}
	return factors.Proximity + factors.Compatibility + factors.Load, factors
}

// proximityScore selects exactly one of three strategies by data
// availability, never mixing them: coordinate distance, city/state matching,
// then raw location text. With no usable data on both sides it contributes 0,
// which lets the ranker drop candidates that are empty on every factor.
func proximityScore(listing, composter *models.Location) float64 {
	switch {
	case listing.HasCoordinates() && composter.HasCoordinates():
		km := haversineKm(
			*listing.Latitude, *listing.Longitude,
			*composter.Latitude, *composter.Longitude,
		)
		return distanceBandScore(km)

	case listing.City != "" && composter.City != "":
		return cityMatchScore(listing, composter)

	case listing.Label != "" && composter.Label != "":
		return textMatchScore(listing.Label, composter.Label)

	default:
		return 0
	}
}

func distanceBandScore(km float64) float64 {
	switch {
	case km <= 5:
		return 50
	case km <= 15:
		return 35
	case km <= 30:
		return 20
	case km <= 50:
		return 10
	default:
		return 5
	}
}

func cityMatchScore(listing, composter *models.Location) float64 {
	a := strings.ToLower(listing.City)
	b := strings.ToLower(composter.City)

	if a == b {
		return 50
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 30
	}
	if listing.State != "" && composter.State != "" &&
		strings.EqualFold(listing.State, composter.State) {
		return 20
	}
	// Some points for being in the system at all.
	return 10
}

func textMatchScore(listingLabel, composterLabel string) float64 {
	a := strings.ToLower(listingLabel)
	b := strings.ToLower(composterLabel)

	if a == b {
		return 50
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 30
	}
	return 10
}

// compatibilityScore favors organic waste; composters stay generically usable
// for other types but are de-prioritized.
func compatibilityScore(wasteType models.WasteType) float64 {
	if wasteType == models.WasteTypeOrganic {
		return 30
	}
	return 10
}

// loadScore discourages piling listings onto an already busy composter.
func loadScore(currentLoad int) float64 {
	switch {
	case currentLoad < 5:
		return 20
	case currentLoad < 10:
		return 15
	case currentLoad < 20:
		return 10
	default:
		return 5
	}
}

// haversineKm computes the great-circle distance between two points in km.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

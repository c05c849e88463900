package housing

import (
	"fmt"

	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

// Raw dataset columns.
const (
	ColLongitude        = "longitude"
	ColLatitude         = "latitude"
	ColHousingMedianAge = "housing_median_age"
	ColTotalRooms       = "total_rooms"
	ColTotalBedrooms    = "total_bedrooms"
	ColPopulation       = "population"
	ColHouseholds       = "households"
	ColMedianIncome     = "median_income"
	ColMedianHouseValue = "median_house_value"
	ColOceanProximity   = "ocean_proximity"
)

// Target is the regression target column.
const Target = ColMedianHouseValue

// FeatureColumns are the raw input columns in dataset order, target excluded.
var FeatureColumns = []string{
	ColLongitude,
	ColLatitude,
	ColHousingMedianAge,
	ColTotalRooms,
	ColTotalBedrooms,
	ColPopulation,
	ColHouseholds,
	ColMedianIncome,
	ColOceanProximity,
}

// Ocean proximity levels present in the dataset.
const (
	NearBay   = "NEAR BAY"
	OneHOcean = "<1H OCEAN"
	Inland    = "INLAND"
	NearOcean = "NEAR OCEAN"
	Island    = "ISLAND"
)

// OceanProximityLevels lists the accepted ocean_proximity values.
var OceanProximityLevels = []string{NearBay, OneHOcean, Inland, NearOcean, Island}

// ValidOceanProximity reports whether v is an accepted ocean_proximity value.
func ValidOceanProximity(v string) bool {
	for _, l := range OceanProximityLevels {
		if v == l {
			return true
		}
	}
	return false
}

// Observation is one block group without its target.
type Observation struct {
	Longitude        float64 `json:"longitude"`
	Latitude         float64 `json:"latitude"`
	HousingMedianAge float64 `json:"housing_median_age"`
	TotalRooms       float64 `json:"total_rooms"`
	TotalBedrooms    float64 `json:"total_bedrooms"`
	Population       float64 `json:"population"`
	Households       float64 `json:"households"`
	MedianIncome     float64 `json:"median_income"`
	OceanProximity   string  `json:"ocean_proximity"`
}

// Validate checks the categorical field.
func (o Observation) Validate() error {
	if !ValidOceanProximity(o.OceanProximity) {
		return errors.NewValueError("Observation.Validate",
			fmt.Sprintf("ocean_proximity %q is not one of %v", o.OceanProximity, OceanProximityLevels))
	}
	return nil
}

// ObservationsFrame builds a raw feature frame, one row per observation, with
// columns in FeatureColumns order.
func ObservationsFrame(obs ...Observation) *dataset.Frame {
	n := len(obs)
	lon := make([]float64, n)
	lat := make([]float64, n)
	age := make([]float64, n)
	rooms := make([]float64, n)
	bedrooms := make([]float64, n)
	pop := make([]float64, n)
	households := make([]float64, n)
	income := make([]float64, n)
	prox := make([]string, n)
	for i, o := range obs {
		lon[i] = o.Longitude
		lat[i] = o.Latitude
		age[i] = o.HousingMedianAge
		rooms[i] = o.TotalRooms
		bedrooms[i] = o.TotalBedrooms
		pop[i] = o.Population
		households[i] = o.Households
		income[i] = o.MedianIncome
		prox[i] = o.OceanProximity
	}
	return dataset.MustNew(
		dataset.NewNumeric(ColLongitude, lon),
		dataset.NewNumeric(ColLatitude, lat),
		dataset.NewNumeric(ColHousingMedianAge, age),
		dataset.NewNumeric(ColTotalRooms, rooms),
		dataset.NewNumeric(ColTotalBedrooms, bedrooms),
		dataset.NewNumeric(ColPopulation, pop),
		dataset.NewNumeric(ColHouseholds, households),
		dataset.NewNumeric(ColMedianIncome, income),
		dataset.NewCategorical(ColOceanProximity, prox),
	)
}

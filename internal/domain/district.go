package domain

import "sort"

// District identifies one of Malawi's 28 administrative districts.
// The set is closed: indicator records for any other name are rejected.
type District string

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty"`
}

// districtCentroids is the authoritative district set. Centroids are district
// geometric centers used by the mapping layer and by sample-data generation.
var districtCentroids = map[District]Geo{
	"Balaka":     {Lat: -14.98, Lon: 34.95},
	"Blantyre":   {Lat: -15.78, Lon: 35.00},
	"Chikwawa":   {Lat: -16.03, Lon: 34.78},
	"Chiradzulu": {Lat: -15.68, Lon: 35.23},
	"Chitipa":    {Lat: -9.70, Lon: 33.27},
	"Dedza":      {Lat: -14.38, Lon: 34.33},
	"Dowa":       {Lat: -13.65, Lon: 33.93},
	"Karonga":    {Lat: -9.93, Lon: 33.93},
	"Kasungu":    {Lat: -13.03, Lon: 33.48},
	"Likoma":     {Lat: -12.06, Lon: 34.73},
	"Lilongwe":   {Lat: -13.98, Lon: 33.78},
	"Machinga":   {Lat: -14.97, Lon: 35.52},
	"Mangochi":   {Lat: -14.48, Lon: 35.26},
	"Mchinji":    {Lat: -13.80, Lon: 32.88},
	"Mulanje":    {Lat: -16.03, Lon: 35.50},
	"Mwanza":     {Lat: -15.62, Lon: 34.52},
	"Mzimba":     {Lat: -11.90, Lon: 33.60},
	"Neno":       {Lat: -15.40, Lon: 34.62},
	"Nkhata Bay": {Lat: -11.61, Lon: 34.30},
	"Nkhotakota": {Lat: -12.93, Lon: 34.30},
	"Nsanje":     {Lat: -16.92, Lon: 35.26},
	"Ntcheu":     {Lat: -14.82, Lon: 34.63},
	"Ntchisi":    {Lat: -13.50, Lon: 33.90},
	"Phalombe":   {Lat: -15.80, Lon: 35.65},
	"Rumphi":     {Lat: -10.88, Lon: 33.86},
	"Salima":     {Lat: -13.78, Lon: 34.45},
	"Thyolo":     {Lat: -16.07, Lon: 35.14},
	"Zomba":      {Lat: -15.38, Lon: 35.32},
}

// Valid reports whether d is one of the 28 known districts.
func (d District) Valid() bool {
	_, ok := districtCentroids[d]
	return ok
}

// Centroid returns the district's centroid coordinates. The zero Geo is
// returned for unknown districts.
func (d District) Centroid() Geo {
	return districtCentroids[d]
}

// AllDistricts returns the full district set in alphabetical order.
func AllDistricts() []District {
	districts := make([]District, 0, len(districtCentroids))
	for d := range districtCentroids {
		districts = append(districts, d)
	}
	sort.Slice(districts, func(i, j int) bool { return districts[i] < districts[j] })
	return districts
}

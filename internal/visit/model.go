// Package visit provides the visit record domain model, validation and
// report rendering.
package visit

import "time"

// PropertyKind represents the kind of rural property visited.
type PropertyKind string

const (
	Sitio    PropertyKind = "Sítio"
	Fazenda  PropertyKind = "Fazenda"
	Chacara  PropertyKind = "Chácara"
	Estancia PropertyKind = "Estância"
)

// PropertyKinds is the set of allowed property kinds, in form order.
var PropertyKinds = []PropertyKind{Sitio, Fazenda, Chacara, Estancia}

// IsValid checks if a property kind is recognized.
func (k PropertyKind) IsValid() bool {
	for _, v := range PropertyKinds {
		if k == v {
			return true
		}
	}
	return false
}

// StateCode is a two-letter federative unit code.
type StateCode string

// StateCodes is the set of allowed federative units, in form order.
var StateCodes = []StateCode{"RO", "AC", "AM", "RR", "PA", "TO", "MT", "MS", "GO", "DF"}

// IsValid checks if a state code is recognized.
func (s StateCode) IsValid() bool {
	for _, v := range StateCodes {
		if s == v {
			return true
		}
	}
	return false
}

// AreaUnit is the unit the property area is expressed in.
type AreaUnit string

const (
	Hectares  AreaUnit = "hectares"
	Alqueires AreaUnit = "alqueires"
)

// AreaUnits is the set of allowed area units, in form order.
var AreaUnits = []AreaUnit{Hectares, Alqueires}

// IsValid checks if an area unit is recognized.
func (u AreaUnit) IsValid() bool {
	for _, v := range AreaUnits {
		if u == v {
			return true
		}
	}
	return false
}

// Record holds one validated property visit. It is built from an Input that
// passed Validate, handed to Render exactly once, and never stored.
type Record struct {
	VisitDate            time.Time
	StartTime            string // HH:MM, already validated
	EndTime              string // HH:MM, already validated
	PropertyKind         PropertyKind
	PropertyName         string
	Address              string
	Municipality         string
	State                StateCode
	GateCoordinates      string
	HomesteadCoordinates string
	Area                 float64
	AreaUnit             AreaUnit
	OwnerName            string
	TaxID                string
	Phone                string
	MainActivity         string
	Vehicles             string // optional; empty suppresses the vehicle clause
	CattleBrand          string // optional; empty suppresses the cattle clause
	PlateNumber          string
}

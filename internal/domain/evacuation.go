package domain

import "time"

// Shelter assignment statuses.
const (
	ShelterAvailable = "AVAILABLE"
	ShelterFull      = "FULL"
	ShelterOverflow  = "OVERFLOW"
)

// ShelterAssignment allocates part of an area's evacuee estimate to one
// shelter. An OVERFLOW assignment has no shelter ID and carries the
// remainder that no listed shelter could absorb.
type ShelterAssignment struct {
	ShelterID     int64   `json:"shelterId,omitempty"`
	Name          string  `json:"name"`
	Venue         string  `json:"venue,omitempty"`
	Latitude      float64 `json:"latitude,omitempty"`
	Longitude     float64 `json:"longitude,omitempty"`
	Capacity      int     `json:"capacity"`
	Assigned      int     `json:"assignedEvacuees"`
	Utilization   float64 `json:"utilizationRate"`
	Status        string  `json:"status"`
	ContactPerson string  `json:"contactPerson,omitempty"`
}

// Capacity statuses for a plan entry.
const (
	CapacitySufficient   = "SUFFICIENT"
	CapacityNear         = "NEAR_CAPACITY"
	CapacityInsufficient = "INSUFFICIENT"
)

// CapacityStatus classifies shelter utilization for a plan entry.
type CapacityStatus struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Utilization float64 `json:"utilizationRate"`
}

// EvacuationTimeline is the staged schedule for one alert level.
type EvacuationTimeline struct {
	Warning           string `json:"warning"`
	VulnerableGroups  string `json:"vulnerableGroups"`
	GeneralPopulation string `json:"generalPopulation"`
	Deadline          string `json:"deadline"`
}

// EvacuationOrderEntry is one rung of the staged evacuation order.
// Entries are additive, not exclusive.
type EvacuationOrderEntry struct {
	Priority int      `json:"priority"`
	Group    string   `json:"group"`
	Members  []string `json:"members,omitempty"`
	Action   string   `json:"action"`
}

// EvacuationRoutes suggests routes and hazard-specific avoidances.
type EvacuationRoutes struct {
	Primary         string   `json:"primary"`
	Avoid           []string `json:"avoid"`
	Recommendations []string `json:"recommendations"`
}

// SpecialNeeds estimates assistance requirements among the evacuees.
type SpecialNeeds struct {
	Medical  int `json:"medical"`
	Mobility int `json:"mobility"`
	Infants  int `json:"infants"`
	Dietary  int `json:"dietary"`
}

// RiskLevels is the per-hazard alert level snapshot kept on a plan entry.
type RiskLevels struct {
	Flood     string `json:"flood"`
	Landslide string `json:"landslide"`
	Wind      string `json:"wind"`
}

// EvacuationPlanEntry is the evacuation plan for a single area.
type EvacuationPlanEntry struct {
	AreaID            int64                  `json:"areaId"`
	AreaName          string                 `json:"areaName"`
	Priority          int                    `json:"priority"`
	AlertLevel        string                 `json:"alertLevel"`
	Population        int                    `json:"population"`
	EstimatedEvacuees int                    `json:"estimatedEvacuees"`
	EvacuationRate    float64                `json:"evacuationRate"`
	Assignments       []ShelterAssignment    `json:"evacuationCenters"`
	TotalCapacity     int                    `json:"totalCapacity"`
	CapacityStatus    CapacityStatus         `json:"capacityStatus"`
	Timeline          EvacuationTimeline     `json:"timeline"`
	EvacuationOrder   []EvacuationOrderEntry `json:"evacuationOrder"`
	Risks             RiskLevels             `json:"risks"`
	Routes            EvacuationRoutes       `json:"routes"`
	SpecialNeeds      SpecialNeeds           `json:"specialNeeds"`
	ContactPerson     string                 `json:"contactPerson,omitempty"`
}

// PersonnelNeeds is the region-wide staffing requirement.
type PersonnelNeeds struct {
	MedicalStaff      int `json:"medicalStaff"`
	SecurityPersonnel int `json:"securityPersonnel"`
	SocialWorkers     int `json:"socialWorkers"`
	Volunteers        int `json:"volunteers"`
}

// SupplyNeeds is the region-wide relief supply requirement.
type SupplyNeeds struct {
	FoodPacks    int `json:"foodPacks"`
	WaterBottles int `json:"waterBottles"`
	Blankets     int `json:"blankets"`
	HygieneKits  int `json:"hygieneKits"`
	FirstAidKits int `json:"firstAidKits"`
}

// EquipmentNeeds is the region-wide equipment requirement.
type EquipmentNeeds struct {
	Generators  int `json:"generators"`
	Radios      int `json:"communicationRadios"`
	Flashlights int `json:"flashlights"`
	RescueBoats int `json:"rescueBoats"`
}

// VehicleNeeds is the region-wide transport requirement.
type VehicleNeeds struct {
	EvacuationVehicles int `json:"evacuationVehicles"`
	Ambulances         int `json:"ambulances"`
}

// ResourceSummary aggregates resource requirements across all plans.
type ResourceSummary struct {
	Personnel PersonnelNeeds `json:"personnel"`
	Supplies  SupplyNeeds    `json:"supplies"`
	Equipment EquipmentNeeds `json:"equipment"`
	Vehicles  VehicleNeeds   `json:"vehicles"`
}

// Plan statuses.
const (
	PlanEvacuationRequired = "EVACUATION_REQUIRED"
	PlanMonitoring         = "MONITORING"
)

// EvacuationPlan is the region-wide plan over all alerted areas.
type EvacuationPlan struct {
	Status            string                `json:"status"`
	TotalAreas        int                   `json:"totalAreas"`
	EvacuationNeeded  int                   `json:"evacuationRequired"`
	EstimatedEvacuees int                   `json:"totalEstimatedEvacuees"`
	Entries           []EvacuationPlanEntry `json:"plans"`
	Resources         ResourceSummary       `json:"resourceSummary"`
	GeneratedAt       time.Time             `json:"generatedAt"`
}

// EvacuationStatus summarizes registered shelters independent of any
// active alert.
type EvacuationStatus struct {
	TotalShelters int                       `json:"totalCenters"`
	ByArea        map[string][]ShelterStock `json:"centersByArea"`
	TotalCapacity int                       `json:"estimatedTotalCapacity"`
}

// ShelterStock is a shelter with its inferred capacity.
type ShelterStock struct {
	Name     string `json:"name"`
	Venue    string `json:"venue"`
	Capacity int    `json:"capacity"`
}

// Package evacuation turns alerts into evacuation plans: evacuee
// estimates, greedy shelter allocation, staged timelines, and
// region-wide resource requirements.
package evacuation

import (
	"math"
	"sort"

	"github.com/jonboulle/clockwork"

	"github.com/rjrmendiola/gsmap-api/internal/catalog"
	"github.com/rjrmendiola/gsmap-api/internal/domain"
)

// VulnerableGroups lists the populations evacuated first, in the order
// they appear on plan output.
var VulnerableGroups = []string{
	"Elderly (60+ years)",
	"Persons with disabilities",
	"Pregnant women",
	"Children under 5",
	"Sick or bedridden individuals",
	"Single-parent families with young children",
}

// Planner builds evacuation plans from alerts.
type Planner struct {
	clock clockwork.Clock
}

// New creates a Planner. A nil clock falls back to the real clock.
func New(clock clockwork.Clock) *Planner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Planner{clock: clock}
}

// Plan builds the region-wide evacuation plan over all alerted areas,
// sorted highest priority first. Alerts whose area is missing from the
// lookup are skipped.
func (p *Planner) Plan(alerts []*domain.Alert, areasByID map[int64]*domain.AreaProfile) *domain.EvacuationPlan {
	entries := make([]domain.EvacuationPlanEntry, 0, len(alerts))
	for _, alert := range alerts {
		area, ok := areasByID[alert.AreaID]
		if !ok || area == nil {
			continue
		}
		entries = append(entries, p.PlanForArea(area, alert))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority > entries[j].Priority
	})

	var needed, evacuees int
	for _, entry := range entries {
		if entry.Priority >= domain.LevelOrange.Priority {
			needed++
		}
		evacuees += entry.EstimatedEvacuees
	}
	status := domain.PlanMonitoring
	if needed > 0 {
		status = domain.PlanEvacuationRequired
	}

	return &domain.EvacuationPlan{
		Status:            status,
		TotalAreas:        len(entries),
		EvacuationNeeded:  needed,
		EstimatedEvacuees: evacuees,
		Entries:           entries,
		Resources:         resourceRequirements(entries),
		GeneratedAt:       p.clock.Now(),
	}
}

// PlanForArea builds the evacuation plan for a single area.
func (p *Planner) PlanForArea(area *domain.AreaProfile, alert *domain.Alert) domain.EvacuationPlanEntry {
	population := area.EffectivePopulation()
	rate := catalog.EvacuationRate(alert.Level)
	evacuees := int(math.Ceil(float64(population) * rate))

	assignments := assignShelters(area.Shelters, evacuees)

	contact := "Barangay Captain"
	if len(assignments) > 0 && assignments[0].ContactPerson != "" {
		contact = assignments[0].ContactPerson
	}

	return domain.EvacuationPlanEntry{
		AreaID:            area.ID,
		AreaName:          area.Name,
		Priority:          alert.Level.Priority,
		AlertLevel:        alert.Level.Level,
		Population:        population,
		EstimatedEvacuees: evacuees,
		EvacuationRate:    rate,
		Assignments:       assignments,
		TotalCapacity:     namedCapacity(assignments),
		CapacityStatus:    capacityStatus(evacuees, assignments),
		Timeline:          timeline(alert.Level),
		EvacuationOrder:   evacuationOrder(alert.Risks),
		Risks: domain.RiskLevels{
			Flood:     alert.Risks.Flood.Level.Level,
			Landslide: alert.Risks.Landslide.Level.Level,
			Wind:      alert.Risks.Wind.Level.Level,
		},
		Routes:        routes(alert.Risks),
		SpecialNeeds:  specialNeeds(evacuees),
		ContactPerson: contact,
	}
}

// Status summarizes registered shelters independent of any active
// alert.
func (p *Planner) Status(areas []*domain.AreaProfile) domain.EvacuationStatus {
	status := domain.EvacuationStatus{ByArea: make(map[string][]domain.ShelterStock)}
	for _, area := range areas {
		for _, shelter := range area.Shelters {
			capacity := catalog.VenueCapacity(venueLabel(shelter))
			status.TotalShelters++
			status.TotalCapacity += capacity
			status.ByArea[area.Name] = append(status.ByArea[area.Name], domain.ShelterStock{
				Name:     shelter.Name,
				Venue:    shelter.Venue,
				Capacity: capacity,
			})
		}
	}
	return status
}

func venueLabel(s domain.Shelter) string {
	if s.Venue != "" {
		return s.Venue
	}
	return s.Name
}

// assignShelters greedily fills shelters in the order supplied. The
// caller's order is authoritative; no resorting. Any remainder becomes
// a single OVERFLOW entry with no shelter ID.
func assignShelters(shelters []domain.Shelter, evacuees int) []domain.ShelterAssignment {
	assignments := make([]domain.ShelterAssignment, 0, len(shelters))
	remaining := evacuees

	for _, shelter := range shelters {
		if remaining <= 0 {
			break
		}
		capacity := catalog.VenueCapacity(venueLabel(shelter))
		assigned := remaining
		if capacity < assigned {
			assigned = capacity
		}

		status := domain.ShelterAvailable
		if assigned >= capacity {
			status = domain.ShelterFull
		}
		contact := shelter.ContactName
		if contact == "" {
			contact = "Contact barangay office"
		}

		assignments = append(assignments, domain.ShelterAssignment{
			ShelterID:     shelter.ID,
			Name:          shelter.Name,
			Venue:         shelter.Venue,
			Latitude:      shelter.Latitude,
			Longitude:     shelter.Longitude,
			Capacity:      capacity,
			Assigned:      assigned,
			Utilization:   math.Round(float64(assigned) / float64(capacity) * 100),
			Status:        status,
			ContactPerson: contact,
		})
		remaining -= assigned
	}

	if remaining > 0 {
		assignments = append(assignments, domain.ShelterAssignment{
			Name:          "Additional Centers Required",
			Venue:         "Coordinate with neighboring barangays or municipal level",
			Capacity:      remaining,
			Assigned:      remaining,
			Utilization:   100,
			Status:        domain.ShelterOverflow,
			ContactPerson: "Contact MDRRMO",
		})
	}

	return assignments
}

// namedCapacity sums capacity over real shelters, excluding the
// overflow pseudo-entry.
func namedCapacity(assignments []domain.ShelterAssignment) int {
	var total int
	for _, a := range assignments {
		if a.Status == domain.ShelterOverflow {
			continue
		}
		total += a.Capacity
	}
	return total
}

func capacityStatus(evacuees int, assignments []domain.ShelterAssignment) domain.CapacityStatus {
	total := namedCapacity(assignments)
	var utilization float64
	if total > 0 {
		utilization = float64(evacuees) / float64(total) * 100
	}
	// Classify on the exact ratio; round only the reported figure.
	rounded := math.Round(utilization)

	switch {
	case utilization > 100:
		return domain.CapacityStatus{
			Status:      domain.CapacityInsufficient,
			Message:     "Additional evacuation centers needed",
			Utilization: rounded,
		}
	case utilization > 80:
		return domain.CapacityStatus{
			Status:      domain.CapacityNear,
			Message:     "Centers will be near full capacity",
			Utilization: rounded,
		}
	default:
		return domain.CapacityStatus{
			Status:      domain.CapacitySufficient,
			Message:     "Adequate capacity available",
			Utilization: rounded,
		}
	}
}

func timeline(level domain.AlertLevel) domain.EvacuationTimeline {
	switch level.Level {
	case domain.LevelRed.Level:
		return domain.EvacuationTimeline{
			Warning:           "0 hours (Immediate)",
			VulnerableGroups:  "Within 1 hour",
			GeneralPopulation: "Within 2 hours",
			Deadline:          "Complete within 3 hours",
		}
	case domain.LevelOrange.Level:
		return domain.EvacuationTimeline{
			Warning:           "Within 1 hour",
			VulnerableGroups:  "Within 2 hours",
			GeneralPopulation: "Within 4 hours",
			Deadline:          "Complete within 6 hours",
		}
	default:
		return domain.EvacuationTimeline{
			Warning:           "Within 2 hours",
			VulnerableGroups:  "Within 4 hours",
			GeneralPopulation: "As needed",
			Deadline:          "Stand-by for further instructions",
		}
	}
}

// evacuationOrder builds the staged evacuation ladder. Rungs are
// additive: vulnerable groups and the general population always
// appear, hazard-specific rungs only when the risk warrants them.
func evacuationOrder(risks domain.RiskSet) []domain.EvacuationOrderEntry {
	var order []domain.EvacuationOrderEntry

	if risks.Flood.Level.Priority >= domain.LevelOrange.Priority &&
		risks.Landslide.Level.Priority >= domain.LevelOrange.Priority {
		order = append(order, domain.EvacuationOrderEntry{
			Priority: 1,
			Group:    "Areas with both flood and landslide risk",
			Action:   "Immediate evacuation - highest priority",
		})
	}

	order = append(order, domain.EvacuationOrderEntry{
		Priority: 2,
		Group:    "Vulnerable groups",
		Members:  VulnerableGroups,
		Action:   "Evacuate first - require assistance and transport",
	})

	if risks.Flood.Level.Priority == domain.LevelRed.Priority {
		order = append(order, domain.EvacuationOrderEntry{
			Priority: 3,
			Group:    "Residents in low-lying flood-prone areas",
			Action:   "Evacuate before water levels rise",
		})
	}
	if risks.Landslide.Level.Priority == domain.LevelRed.Priority {
		order = append(order, domain.EvacuationOrderEntry{
			Priority: 3,
			Group:    "Residents near slopes, cliffs, and unstable ground",
			Action:   "Evacuate before soil collapse",
		})
	}
	if risks.Wind.Level.Priority >= domain.LevelOrange.Priority {
		order = append(order, domain.EvacuationOrderEntry{
			Priority: 4,
			Group:    "Residents in light/makeshift structures",
			Action:   "Move to sturdy evacuation centers",
		})
	}

	order = append(order, domain.EvacuationOrderEntry{
		Priority: 5,
		Group:    "General population in affected areas",
		Action:   "Voluntary evacuation recommended",
	})

	return order
}

func routes(risks domain.RiskSet) domain.EvacuationRoutes {
	r := domain.EvacuationRoutes{
		Primary: "Main barangay road to designated evacuation centers",
		Avoid:   []string{},
		Recommendations: []string{
			"Use well-lit main roads",
			"Travel in groups if possible",
			"Follow instructions from barangay officials",
			"Bring emergency supplies and important documents",
		},
	}
	if risks.Flood.Level.Priority >= domain.LevelOrange.Priority {
		r.Avoid = append(r.Avoid,
			"Low-lying roads and creek crossings",
			"Known flood-prone sections",
		)
	}
	if risks.Landslide.Level.Priority >= domain.LevelOrange.Priority {
		r.Avoid = append(r.Avoid,
			"Roads along steep slopes",
			"Recently reported cracks or unstable areas",
		)
	}
	return r
}

func specialNeeds(evacuees int) domain.SpecialNeeds {
	return domain.SpecialNeeds{
		Medical:  ceilFrac(evacuees, catalog.FracMedical),
		Mobility: ceilFrac(evacuees, catalog.FracMobility),
		Infants:  ceilFrac(evacuees, catalog.FracInfants),
		Dietary:  ceilFrac(evacuees, catalog.FracDietary),
	}
}

func ceilFrac(n int, frac float64) int {
	return int(math.Ceil(float64(n) * frac))
}

func ceilDiv(n, per int) int {
	return (n + per - 1) / per
}

// resourceRequirements aggregates staffing, supply, equipment, and
// transport needs across all plan entries from fixed per-capita ratios.
func resourceRequirements(entries []domain.EvacuationPlanEntry) domain.ResourceSummary {
	var evacuees, redFlood, priorityRed int
	for _, entry := range entries {
		evacuees += entry.EstimatedEvacuees
		if entry.Risks.Flood == domain.LevelRed.Level {
			redFlood++
		}
		if entry.Priority == domain.LevelRed.Priority {
			priorityRed++
		}
	}

	return domain.ResourceSummary{
		Personnel: domain.PersonnelNeeds{
			MedicalStaff:      ceilDiv(evacuees, 100),
			SecurityPersonnel: ceilDiv(evacuees, 150),
			SocialWorkers:     ceilDiv(evacuees, 200),
			Volunteers:        ceilDiv(evacuees, 50),
		},
		Supplies: domain.SupplyNeeds{
			FoodPacks:    evacuees * 3,
			WaterBottles: evacuees * 6,
			Blankets:     ceilFrac(evacuees, 0.5),
			HygieneKits:  ceilDiv(evacuees, 5),
			FirstAidKits: len(entries) * 2,
		},
		Equipment: domain.EquipmentNeeds{
			Generators:  len(entries),
			Radios:      len(entries) * 2,
			Flashlights: ceilDiv(evacuees, 10),
			RescueBoats: ceilDiv(redFlood, 2),
		},
		Vehicles: domain.VehicleNeeds{
			EvacuationVehicles: ceilDiv(evacuees, 30),
			Ambulances:         ceilDiv(priorityRed, 3),
		},
	}
}

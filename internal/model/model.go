// Package model contains domain models for the ligtascab commuter service.
// These structs map to the PostgreSQL schema defined in migrations/001_create_schema.up.sql.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ─── Enums ──────────────────────────────────────────────────

// TricycleStatus reflects whether a unit is cleared to take passengers.
type TricycleStatus string

const (
	TricycleActive   TricycleStatus = "active"
	TricycleInactive TricycleStatus = "inactive"
)

// RideState is the lifecycle state of a commuter's ride session.
type RideState string

const (
	StateIdle            RideState = "idle"
	StateVehicleSelected RideState = "vehicle_selected"
	StateRideActive      RideState = "ride_active"
	StateRideCompleted   RideState = "ride_completed"
)

// ReportStatus tracks a misconduct report through resolution.
type ReportStatus string

const (
	ReportPending  ReportStatus = "Pending"
	ReportResolved ReportStatus = "Resolved"
)

// ─── Location ───────────────────────────────────────────────

// Location represents a WGS-84 geographic point (EPSG:4326).
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ─── Domain Models ──────────────────────────────────────────

// Tricycle maps to the `tricycles` table. The row ID doubles as the QR
// payload printed on the unit — the scan resolves straight to this record.
// Rows are administered out of band; the service only ever reads them.
type Tricycle struct {
	ID                     string         `json:"id"`
	PlateNumber            string         `json:"plate_number"`
	OperatorID             string         `json:"operator_id"`
	AssignedDriver         string         `json:"assigned_driver"`
	Status                 TricycleStatus `json:"status"`
	FranchiseNumber        string         `json:"franchise_number"`
	RegistrationExpiration time.Time      `json:"registration_expiration"`
	FranchiseExpiration    time.Time      `json:"franchise_expiration"`
	Model                  string         `json:"model"`
	BodyColor              string         `json:"body_color"`
	SeatingCapacity        int            `json:"seating_capacity"`
}

// Driver maps to the `drivers` table. Read-only lookup keyed by the
// assigned_driver reference on a tricycle.
type Driver struct {
	ID            string `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	LicenseNumber string `json:"license_number"`
}

// Operator maps to the `operators` table.
type Operator struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Ride maps to the `rides` table. The tricycle, driver and operator columns
// are JSONB snapshots taken at confirmation — later edits to the source rows
// never rewrite ride history. EndTime stays nil until the ride is closed and
// the fare is fixed at creation.
type Ride struct {
	ID              string     `json:"id"`
	CommuterID      string     `json:"commuter_id"`
	TricycleDetails Tricycle   `json:"tricycle_details"`
	DriverDetails   Driver     `json:"driver_details"`
	OperatorDetails Operator   `json:"operator_details"`
	Fare            string     `json:"fare"`
	Rating          *int       `json:"rating,omitempty"`
	RatingComment   string     `json:"rating_comment,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	EndTime         *time.Time `json:"end_time,omitempty"`
}

// Active reports whether the ride is still in progress.
func (r *Ride) Active() bool {
	return r.EndTime == nil
}

// Report maps to the `reports` table. The ticket number is generated by this
// service at submission time, not by the database.
type Report struct {
	ID           string       `json:"id"`
	CommuterID   string       `json:"commuter_id"`
	TicketNumber string       `json:"ticket_number"`
	Violation    string       `json:"violation"`
	Comment      string       `json:"comment"`
	Status       ReportStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Commuter maps to the `commuters` table — the authenticated end user.
type Commuter struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PhoneNumber  string    `json:"phone_number"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Terminal maps to the `terminals` table — a fixed pickup point with a
// count of units currently waiting there.
type Terminal struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Available int     `json:"available"`
}

// Position returns the terminal's coordinates as a Location.
func (t *Terminal) Position() Location {
	return Location{Lat: t.Latitude, Lon: t.Longitude}
}

// RankedTerminal is a Terminal annotated with its distance from a
// reference point, as returned by the ranking service.
type RankedTerminal struct {
	Terminal
	DistanceKm float64 `json:"distance_km"`
}

// ─── Violation categories ───────────────────────────────────

// ViolationCategories is the fixed list a report must choose from.
var ViolationCategories = []string{
	"rude_driver",
	"overcharging",
	"reckless_driving",
	"unsafe_vehicle",
	"route_deviation",
	"poor_hygiene",
	"discrimination",
	"smoking",
	"other",
}

// ValidViolation reports whether the category is one of the fixed options.
func ValidViolation(category string) bool {
	for _, v := range ViolationCategories {
		if v == category {
			return true
		}
	}
	return false
}

// ─── Registration ───────────────────────────────────────────

const (
	MinPasswordLength = 6
	MaxPasswordLength = 30
)

// Registration is the payload for creating a commuter account.
type Registration struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Password    string `json:"password"`
}

// Validate checks every field and aggregates the failures into a single
// combined message, one "path: message" fragment per failing field.
func (reg *Registration) Validate() error {
	var problems []string

	if strings.TrimSpace(reg.FirstName) == "" {
		problems = append(problems, "first_name: required")
	}
	if strings.TrimSpace(reg.LastName) == "" {
		problems = append(problems, "last_name: required")
	}
	if strings.TrimSpace(reg.PhoneNumber) == "" {
		problems = append(problems, "phone_number: required")
	}
	if !strings.Contains(reg.Email, "@") {
		problems = append(problems, "email: invalid email address")
	}
	if strings.TrimSpace(reg.Address) == "" {
		problems = append(problems, "address: required")
	}
	if len(reg.Password) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("password: must be at least %d characters", MinPasswordLength))
	} else if len(reg.Password) > MaxPasswordLength {
		problems = append(problems, fmt.Sprintf("password: must be at most %d characters", MaxPasswordLength))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

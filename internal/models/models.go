// Package models holds the records persisted by the fuel bot.
package models

import "time"

// DefaultLabel fills route and vehicle until the bot asks for them.
const DefaultLabel = "Не указан"

// UserSettings are the consumption rates of one driver.
type UserSettings struct {
	UserID int64 `db:"user_id"`
	// BaseRate is litres per 100 km of an empty vehicle.
	BaseRate float64 `db:"base_rate"`
	// ExtraRatePerTon is litres per 100 km added for each ton of cargo.
	ExtraRatePerTon float64 `db:"extra_rate_per_ton"`
}

// Trip is one recorded journey. Trips are immutable once stored.
type Trip struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	Date          time.Time `db:"trip_date"`
	StartOdometer float64   `db:"start_km"`
	EndOdometer   float64   `db:"end_km"`
	CargoWeightKg float64   `db:"cargo_weight_kg"`
	TotalFuel     float64   `db:"total_fuel"`
	Route         string    `db:"route"`
	Vehicle       string    `db:"vehicle"`
}

// Distance is the odometer difference in km.
func (t Trip) Distance() float64 {
	return t.EndOdometer - t.StartOdometer
}

// CargoTonnes converts the cargo weight to metric tons.
func (t Trip) CargoTonnes() float64 {
	return t.CargoWeightKg / 1000
}

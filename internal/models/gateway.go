package models

const (
	DefaultUnits    = "metric"
	DefaultCurrency = "USD"
	DefaultTimezone = "UTC"
)

type Preferences struct {
	Units    string `json:"units"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

type UserProfile struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name,omitempty"`
	Vehicles    []Vehicle   `json:"vehicles"`
	Chargers    []Charger   `json:"chargers"`
	Preferences Preferences `json:"preferences"`
}

type Vehicle struct {
	ID              string  `json:"id"`
	VIN             string  `json:"vin,omitempty"`
	Make            string  `json:"make,omitempty"`
	Model           string  `json:"model,omitempty"`
	Year            int     `json:"year,omitempty"`
	BatteryCapacity float64 `json:"batteryCapacity,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

type Charger struct {
	ID            string    `json:"id"`
	Name          string    `json:"name,omitempty"`
	ConnectorType string    `json:"connectorType,omitempty"`
	MaxPower      float64   `json:"maxPower,omitempty"`
	Location      *Location `json:"location,omitempty"`
	Distance      *float64  `json:"distance,omitempty"`
}

type BatteryStatus struct {
	Level       float64   `json:"level"`
	Range       float64   `json:"range"`
	IsCharging  bool      `json:"isCharging"`
	IsPluggedIn bool      `json:"isPluggedIn"`
	LastUpdated Timestamp `json:"lastUpdated"`
}

type ChargerStatus struct {
	IsOnline    bool      `json:"isOnline"`
	IsCharging  bool      `json:"isCharging"`
	IsPluggedIn bool      `json:"isPluggedIn"`
	Power       float64   `json:"power"`
	Energy      float64   `json:"energy"`
	LastUpdated Timestamp `json:"lastUpdated"`
}

type ChargingSession struct {
	ID              string    `json:"id"`
	VehicleID       string    `json:"vehicleId,omitempty"`
	ChargerID       string    `json:"chargerId,omitempty"`
	StartTime       Timestamp `json:"startTime"`
	EndTime         Timestamp `json:"endTime,omitempty"`
	EnergyDelivered float64   `json:"energyDelivered"`
	Cost            float64   `json:"cost"`
	Currency        string    `json:"currency,omitempty"`
	Status          string    `json:"status"`
	Location        *Location `json:"location,omitempty"`
}

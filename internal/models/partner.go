package models

// Partner* types mirror the partner API payloads. Fields marked required must be present for the
// payload to be accepted; everything else defaults to its zero value.

type PartnerPreferences struct {
	Units    string `json:"units"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

type PartnerUser struct {
	ID          *string             `json:"id" validate:"required"`
	Email       *string             `json:"email" validate:"required"`
	Name        string              `json:"name"`
	Preferences *PartnerPreferences `json:"preferences"`
}

type PartnerVehicle struct {
	ID              *string `json:"id" validate:"required"`
	VIN             string  `json:"vin"`
	Make            string  `json:"make"`
	Model           string  `json:"model"`
	Year            int     `json:"year"`
	BatteryCapacity float64 `json:"batteryCapacity"`
}

type PartnerLocation struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
	Address   string   `json:"address"`
}

type PartnerCharger struct {
	ID            *string          `json:"id" validate:"required"`
	Name          string           `json:"name"`
	ConnectorType string           `json:"connectorType"`
	MaxPower      float64          `json:"maxPower"`
	Location      *PartnerLocation `json:"location"`
	Distance      *float64         `json:"distance"`
}

type PartnerBattery struct {
	Level       *float64  `json:"level" validate:"required"`
	Range       float64   `json:"range"`
	IsCharging  bool      `json:"isCharging"`
	IsPluggedIn bool      `json:"isPluggedIn"`
	LastUpdated Timestamp `json:"lastUpdated" validate:"required"`
}

type PartnerChargerStatus struct {
	IsOnline    *bool     `json:"isOnline" validate:"required"`
	IsCharging  bool      `json:"isCharging"`
	IsPluggedIn bool      `json:"isPluggedIn"`
	Power       float64   `json:"power"`
	Energy      float64   `json:"energy"`
	LastUpdated Timestamp `json:"lastUpdated" validate:"required"`
}

type PartnerSession struct {
	ID              *string          `json:"id" validate:"required"`
	VehicleID       string           `json:"vehicleId"`
	ChargerID       string           `json:"chargerId"`
	StartTime       Timestamp        `json:"startTime" validate:"required"`
	EndTime         Timestamp        `json:"endTime"`
	EnergyDelivered float64          `json:"energyDelivered"`
	Cost            float64          `json:"cost"`
	Currency        string           `json:"currency"`
	Status          *string          `json:"status" validate:"required"`
	Location        *PartnerLocation `json:"location"`
}

// PartnerAck is the body of a control command response. A missing success flag counts as accepted.
type PartnerAck struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

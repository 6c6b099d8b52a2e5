// Package normalize turns partner payloads into the gateway's stable response shapes. Every function
// is pure: it only reads its input and never passes through fields the gateway does not document.
package normalize

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/rm-hull/ev-partner-gateway/internal/models"
)

func UserProfile(raw jsoniter.RawMessage, vehicles []models.Vehicle, chargers []models.Charger) (*models.UserProfile, error) {
	user, err := decode[models.PartnerUser](raw, "user")
	if err != nil {
		return nil, err
	}

	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	if chargers == nil {
		chargers = []models.Charger{}
	}

	return &models.UserProfile{
		ID:          *user.ID,
		Email:       *user.Email,
		Name:        user.Name,
		Vehicles:    vehicles,
		Chargers:    chargers,
		Preferences: preferences(user.Preferences),
	}, nil
}

func preferences(p *models.PartnerPreferences) models.Preferences {
	prefs := models.Preferences{
		Units:    models.DefaultUnits,
		Currency: models.DefaultCurrency,
		Timezone: models.DefaultTimezone,
	}
	if p == nil {
		return prefs
	}
	if p.Units != "" {
		prefs.Units = p.Units
	}
	if p.Currency != "" {
		prefs.Currency = p.Currency
	}
	if p.Timezone != "" {
		prefs.Timezone = p.Timezone
	}
	return prefs
}

func Vehicles(raw jsoniter.RawMessage) ([]models.Vehicle, error) {
	items, err := decodeList[models.PartnerVehicle](raw, "vehicle")
	if err != nil {
		return nil, err
	}

	vehicles := make([]models.Vehicle, 0, len(items))
	for _, v := range items {
		vehicles = append(vehicles, models.Vehicle{
			ID:              *v.ID,
			VIN:             v.VIN,
			Make:            v.Make,
			Model:           v.Model,
			Year:            v.Year,
			BatteryCapacity: v.BatteryCapacity,
		})
	}
	return vehicles, nil
}

func Chargers(raw jsoniter.RawMessage) ([]models.Charger, error) {
	items, err := decodeList[models.PartnerCharger](raw, "charger")
	if err != nil {
		return nil, err
	}

	chargers := make([]models.Charger, 0, len(items))
	for _, c := range items {
		chargers = append(chargers, models.Charger{
			ID:            *c.ID,
			Name:          c.Name,
			ConnectorType: c.ConnectorType,
			MaxPower:      c.MaxPower,
			Location:      location(c.Location),
			Distance:      c.Distance,
		})
	}
	return chargers, nil
}

func BatteryStatus(raw jsoniter.RawMessage) (*models.BatteryStatus, error) {
	b, err := decode[models.PartnerBattery](raw, "battery")
	if err != nil {
		return nil, err
	}

	return &models.BatteryStatus{
		Level:       *b.Level,
		Range:       b.Range,
		IsCharging:  b.IsCharging,
		IsPluggedIn: b.IsPluggedIn,
		LastUpdated: b.LastUpdated,
	}, nil
}

func ChargerStatus(raw jsoniter.RawMessage) (*models.ChargerStatus, error) {
	s, err := decode[models.PartnerChargerStatus](raw, "charger status")
	if err != nil {
		return nil, err
	}

	return &models.ChargerStatus{
		IsOnline:    *s.IsOnline,
		IsCharging:  s.IsCharging,
		IsPluggedIn: s.IsPluggedIn,
		Power:       s.Power,
		Energy:      s.Energy,
		LastUpdated: s.LastUpdated,
	}, nil
}

func ChargingSessions(raw jsoniter.RawMessage) ([]models.ChargingSession, error) {
	items, err := decodeList[models.PartnerSession](raw, "session")
	if err != nil {
		return nil, err
	}

	sessions := make([]models.ChargingSession, 0, len(items))
	for _, s := range items {
		sessions = append(sessions, models.ChargingSession{
			ID:              *s.ID,
			VehicleID:       s.VehicleID,
			ChargerID:       s.ChargerID,
			StartTime:       s.StartTime,
			EndTime:         s.EndTime,
			EnergyDelivered: s.EnergyDelivered,
			Cost:            s.Cost,
			Currency:        s.Currency,
			Status:          *s.Status,
			Location:        location(s.Location),
		})
	}
	return sessions, nil
}

// Ack reads a control command response. An explicit "success": false is a refusal; anything else
// that decoded counts as accepted.
func Ack(raw jsoniter.RawMessage) (bool, error) {
	ack, err := decode[models.PartnerAck](raw, "command")
	if err != nil {
		return false, err
	}
	return ack.Success == nil || *ack.Success, nil
}

func location(l *models.PartnerLocation) *models.Location {
	if l == nil {
		return nil
	}
	return &models.Location{
		Latitude:  *l.Latitude,
		Longitude: *l.Longitude,
		Address:   l.Address,
	}
}

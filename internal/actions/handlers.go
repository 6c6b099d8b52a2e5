package actions

import (
	"context"
	"fmt"
	neturl "net/url"
	"strconv"

	"github.com/rm-hull/ev-partner-gateway/internal/models"
	"github.com/rm-hull/ev-partner-gateway/internal/normalize"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultRadius       = 5000.0 // metres
	DefaultSessionLimit = 10
)

type nearbyParams struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	Radius    float64 `json:"radius" validate:"gt=0"`
}

type targetParams struct {
	ChargerID   string `json:"chargerId" validate:"required"`
	TargetLevel int    `json:"targetLevel" validate:"min=0,max=100"`
}

type sessionsParams struct {
	UserID string `json:"userId" validate:"required"`
	Limit  int    `json:"limit" validate:"min=1"`
}

func userPath(userId string, rest ...string) string {
	return resourcePath("users", userId, rest...)
}

func vehiclePath(vehicleId string, rest ...string) string {
	return resourcePath("vehicles", vehicleId, rest...)
}

func chargerPath(chargerId string, rest ...string) string {
	return resourcePath("chargers", chargerId, rest...)
}

func resourcePath(collection, id string, rest ...string) string {
	path := "/" + collection + "/" + neturl.PathEscape(id)
	for _, segment := range rest {
		path += "/" + segment
	}
	return path
}

func bindGetUser(p RequestParameters) (invocation, error) {
	userId, err := p.getString("userId", true)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, c caller) (any, error) {
		raw, err := c.get(ctx, userPath(userId), nil)
		if err != nil {
			return nil, err
		}
		vehicles, err := c.userVehicles(ctx, userId)
		if err != nil {
			return nil, err
		}
		chargers, err := c.userChargers(ctx, userId)
		if err != nil {
			return nil, err
		}
		return normalize.UserProfile(raw, vehicles, chargers)
	}, nil
}

func bindGetUserVehicles(p RequestParameters) (invocation, error) {
	userId, err := p.getString("userId", true)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, c caller) (any, error) {
		return c.userVehicles(ctx, userId)
	}, nil
}

func bindGetUserChargers(p RequestParameters) (invocation, error) {
	userId, err := p.getString("userId", true)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, c caller) (any, error) {
		return c.userChargers(ctx, userId)
	}, nil
}

func (c caller) userVehicles(ctx context.Context, userId string) ([]models.Vehicle, error) {
	raw, err := c.get(ctx, userPath(userId, "vehicles"), nil)
	if err != nil {
		return nil, err
	}
	return normalize.Vehicles(raw)
}

func (c caller) userChargers(ctx context.Context, userId string) ([]models.Charger, error) {
	raw, err := c.get(ctx, userPath(userId, "chargers"), nil)
	if err != nil {
		return nil, err
	}
	return normalize.Chargers(raw)
}

func bindFindNearbyChargers(p RequestParameters) (invocation, error) {
	latitude, err := p.getNumber("latitude", true, 0)
	if err != nil {
		return nil, err
	}
	longitude, err := p.getNumber("longitude", true, 0)
	if err != nil {
		return nil, err
	}
	radius, err := p.getNumber("radius", false, DefaultRadius)
	if err != nil {
		return nil, err
	}
	params := nearbyParams{Latitude: latitude, Longitude: longitude, Radius: radius}
	if err := check(&params); err != nil {
		return nil, err
	}

	return func(ctx context.Context, c caller) (any, error) {
		fetch := func() (interface{}, error) {
			query := neturl.Values{
				"latitude":  {formatFloat(params.Latitude)},
				"longitude": {formatFloat(params.Longitude)},
				"radius":    {formatFloat(params.Radius)},
			}
			raw, err := c.get(ctx, "/chargers/nearby", query)
			if err != nil {
				return nil, err
			}
			return normalize.Chargers(raw)
		}

		if c.nearby == nil {
			return fetch()
		}

		key := fmt.Sprintf("%s,%s,%s", formatFloat(params.Latitude), formatFloat(params.Longitude), formatFloat(params.Radius))
		result, err, cached := c.nearby.Memoize(key, fetch)
		if err != nil {
			return nil, err
		}
		if cached {
			log.Debugf("Serving nearby chargers for %s from cache", key)
		}
		return result, nil
	}, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func bindGetVehicleBattery(p RequestParameters) (invocation, error) {
	vehicleId, err := p.getString("vehicleId", true)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, c caller) (any, error) {
		raw, err := c.get(ctx, vehiclePath(vehicleId, "battery"), nil)
		if err != nil {
			return nil, err
		}
		status, err := normalize.BatteryStatus(raw)
		if err != nil {
			return nil, err
		}
		c.publisher.Publish(vehiclePath(vehicleId, "battery"), status)
		return status, nil
	}, nil
}

func bindGetChargerStatus(p RequestParameters) (invocation, error) {
	chargerId, err := p.getString("chargerId", true)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, c caller) (any, error) {
		raw, err := c.get(ctx, chargerPath(chargerId, "status"), nil)
		if err != nil {
			return nil, err
		}
		status, err := normalize.ChargerStatus(raw)
		if err != nil {
			return nil, err
		}
		c.publisher.Publish(chargerPath(chargerId, "status"), status)
		return status, nil
	}, nil
}

// bindChargingCommand covers startCharging and stopCharging, which differ only in the command path.
func bindChargingCommand(command string) func(p RequestParameters) (invocation, error) {
	return func(p RequestParameters) (invocation, error) {
		chargerId, err := p.getString("chargerId", true)
		if err != nil {
			return nil, err
		}

		return func(ctx context.Context, c caller) (any, error) {
			raw, err := c.post(ctx, chargerPath(chargerId, command), nil)
			if err != nil {
				return nil, err
			}
			return normalize.Ack(raw)
		}, nil
	}
}

func bindSetChargingTarget(p RequestParameters) (invocation, error) {
	chargerId, err := p.getString("chargerId", true)
	if err != nil {
		return nil, err
	}
	targetLevel, err := p.getInteger("targetLevel", true, 0)
	if err != nil {
		return nil, err
	}
	params := targetParams{ChargerID: chargerId, TargetLevel: targetLevel}
	if err := check(&params); err != nil {
		return nil, err
	}

	return func(ctx context.Context, c caller) (any, error) {
		body := map[string]int{"targetLevel": params.TargetLevel}
		raw, err := c.post(ctx, chargerPath(params.ChargerID, "target"), body)
		if err != nil {
			return nil, err
		}
		return normalize.Ack(raw)
	}, nil
}

func bindGetChargingSessions(p RequestParameters) (invocation, error) {
	userId, err := p.getString("userId", true)
	if err != nil {
		return nil, err
	}
	limit, err := p.getInteger("limit", false, DefaultSessionLimit)
	if err != nil {
		return nil, err
	}
	params := sessionsParams{UserID: userId, Limit: limit}
	if err := check(&params); err != nil {
		return nil, err
	}

	return func(ctx context.Context, c caller) (any, error) {
		query := neturl.Values{"limit": {strconv.Itoa(params.Limit)}}
		raw, err := c.get(ctx, userPath(params.UserID, "sessions"), query)
		if err != nil {
			return nil, err
		}
		return normalize.ChargingSessions(raw)
	}, nil
}

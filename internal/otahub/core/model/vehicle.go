package model

import "time"

// Vehicle is a fleet vehicle known to the hub.
type Vehicle struct {
	// VehicleID is the globally unique, immutable identifier.
	VehicleID string

	// Model is the vehicle model name.
	Model string

	// CurrentVersion is the firmware version the vehicle runs. Only a
	// completed OTA update changes it.
	CurrentVersion string

	// OperationalStatus is a free-form status (e.g. ACTIVE) and is unrelated
	// to the OTA lifecycle.
	OperationalStatus string

	// CreatedAt is when the vehicle was registered.
	CreatedAt time.Time
}

// Clone returns a copy safe to hand out of a store.
func (v *Vehicle) Clone() *Vehicle {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

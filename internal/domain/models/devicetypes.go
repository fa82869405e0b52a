// internal/domain/models/devicetypes.go
package models

// Device type enumeration.
const (
	DeviceTypeSensor     = "sensor"
	DeviceTypeActuator   = "actuator"
	DeviceTypeCamera     = "camera"
	DeviceTypeThermostat = "thermostat"
	DeviceTypeLight      = "light"
	DeviceTypeLock       = "lock"
	DeviceTypeSpeaker    = "speaker"
	DeviceTypeHub        = "hub"
	DeviceTypeVehicle    = "vehicle"
	DeviceTypeOther      = "other"
)

// DeviceTypes lists the valid device types in display order.
var DeviceTypes = []string{
	DeviceTypeSensor,
	DeviceTypeActuator,
	DeviceTypeCamera,
	DeviceTypeThermostat,
	DeviceTypeLight,
	DeviceTypeLock,
	DeviceTypeSpeaker,
	DeviceTypeHub,
	DeviceTypeVehicle,
	DeviceTypeOther,
}

// ValidDeviceType reports whether t is a known device type.
func ValidDeviceType(t string) bool {
	for _, dt := range DeviceTypes {
		if t == dt {
			return true
		}
	}
	return false
}

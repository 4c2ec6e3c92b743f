package probes

import "tinygo.org/x/bluetooth"

// Vendor (Apption Labs / MEATER-style) GATT UUIDs.
var (
	serviceVendor     = mustParseUUID("a75cc7fc-c956-488f-ac2a-2dbc08b63a04")
	charTemperature   = mustParseUUID("7edda774-045e-4bbf-909b-45d1991a2876")
	charBattery       = mustParseUUID("2adb4877-68d8-4884-bd3c-d83853bf27b8")
	serviceDeviceInfo = bluetooth.ServiceUUIDDeviceInformation
	charFirmwareRev   = bluetooth.CharacteristicUUIDFirmwareRevisionString
)

// vendorOUI is the three-byte manufacturer prefix (Apption Labs) that gates
// probe eligibility.
const vendorOUI = "B8:1F:5E"

func mustParseUUID(s string) bluetooth.UUID {
	id, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic("probes: invalid hardcoded UUID " + s + ": " + err.Error())
	}
	return id
}

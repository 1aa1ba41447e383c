package ascii808

// AlarmLabels maps the legacy HQ-family command tag to a human alarm
// label. This namespace is distinct from the binary path's 32-bit alarm
// bitfield (spec 9) — do not conflate the two.
var AlarmLabels = map[string]string{
	"SOS": "sos",
	"LOW": "low_battery",
	"VI1": "vibration",
	"MOV": "movement",
	"GEO": "geofence",
}

// AlarmLabel returns the alarm label for a command tag, and whether the
// tag is a recognised alarm at all (as opposed to a plain status report
// like "V1").
func AlarmLabel(command string) (string, bool) {
	label, ok := AlarmLabels[command]
	return label, ok
}

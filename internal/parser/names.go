package parser

// symbolNames maps battery history short codes to their long names.
var symbolNames = map[string]string{
	"r":    "running",
	"w":    "wake_lock",
	"s":    "sensor",
	"g":    "gps",
	"Wl":   "wifi_full_lock",
	"Ws":   "wifi_scan",
	"Wm":   "wifi_multicast",
	"Wr":   "wifi_radio",
	"Pr":   "mobile_radio",
	"Psc":  "phone_scanning",
	"a":    "audio",
	"S":    "screen",
	"BP":   "plugged",
	"Sd":   "screen_doze",
	"Pcn":  "data_conn",
	"Pst":  "phone_state",
	"Pss":  "phone_signal_strength",
	"Sb":   "brightness",
	"ps":   "power_save",
	"v":    "video",
	"Ww":   "wifi_running",
	"W":    "wifi",
	"fl":   "flashlight",
	"di":   "device_idle",
	"ch":   "charging",
	"Ud":   "usb_data",
	"Pcl":  "phone_in_call",
	"b":    "bluetooth",
	"Wss":  "wifi_signal_strength",
	"Wsp":  "wifi_suppl",
	"ca":   "camera",
	"bles": "ble_scan",
	"Chtp": "cellular_high_tx_power",
	"Gss":  "gps_signal_quality",
	"nrs":  "nr_state",
	"Bl":   "battery_level",
	"Bs":   "battery_status",
	"Bh":   "battery_health",
	"Bp":   "plug",
	"Bt":   "battery_temperature",
	"Bv":   "battery_voltage_mV",
	"Bcc":  "charge_mAh",
	"Mrc":  "modemRailCharge_mAh",
	"Wrc":  "wifiRailCharge_mAh",
	"wr":   "wake_reason",
	"Ev":   "event",
}

// valueNames maps enumerated values, keyed by the short code they follow.
var valueNames = map[string]map[string]string{
	"Pst": {
		"in":  "in",
		"out": "out",
		"em":  "emergency",
		"off": "off",
	},
	"Pss": {
		"0": "none",
		"1": "poor",
		"2": "moderate",
		"3": "good",
		"4": "great",
	},
	"Sb": {
		"0": "dark",
		"1": "dim",
		"2": "medium",
		"3": "light",
		"4": "bright",
	},
	"Wsp": {
		"inv":    "invalid",
		"dsc":    "disconn",
		"dis":    "disabled",
		"inact":  "inactive",
		"scan":   "scanning",
		"auth":   "authenticating",
		"ascing": "associating",
		"asced":  "associated",
		"4-way":  "4-way-handshake",
		"group":  "group-handshake",
		"compl":  "completed",
		"dorm":   "dormant",
		"uninit": "uninit",
	},
	"nrs": {
		"0": "none",
		"1": "restricted",
		"2": "not_restricted",
		"3": "connected",
	},
	"Bs": {
		"?": "unknown",
		"c": "charging",
		"d": "discharging",
		"n": "not-charging",
		"f": "full",
	},
	"Bh": {
		"?": "unknown",
		"g": "good",
		"h": "overheat",
		"d": "dead",
		"v": "over-voltage",
		"f": "failure",
		"c": "cold",
	},
	"Bp": {
		"n": "none",
		"a": "ac",
		"u": "usb",
		"w": "wireless",
	},
}

// eventNames maps the two-letter codes of string-table events ("E<xx>=<n>").
var eventNames = map[string]string{
	"nl": "null",
	"pr": "proc",
	"fg": "fg",
	"tp": "top",
	"sy": "sync",
	"wl": "wake_lock_in",
	"jb": "job",
	"ur": "user",
	"uf": "userfg",
	"cn": "conn",
	"ac": "active",
	"pi": "pkginst",
	"pu": "pkgunin",
	"al": "alarm",
	"st": "stats",
	"ai": "pkginactive",
	"aa": "pkgactive",
	"tw": "tmpwhitelist",
	"sw": "screenwake",
	"wa": "wakeupap",
	"lw": "longwake",
	"ec": "est_capacity",
}

// SymbolName returns the long name of a history short code.
func SymbolName(code string) (string, bool) {
	name, ok := symbolNames[code]
	return name, ok
}

// SymbolCodes returns every short code with a long name.
func SymbolCodes() []string {
	codes := make([]string, 0, len(symbolNames))
	for code := range symbolNames {
		codes = append(codes, code)
	}
	return codes
}

// EventName returns the long name of a string-table event code, or the code
// itself when it has none.
func EventName(code string) string {
	if name, ok := eventNames[code]; ok {
		return name
	}
	return code
}

// ValueName translates an enumerated value that follows the short code key.
// Values without a mapping are returned unchanged.
func ValueName(key, value string) string {
	if names, ok := valueNames[key]; ok {
		if name, ok := names[value]; ok {
			return name
		}
	}
	return value
}

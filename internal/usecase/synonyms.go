package usecase

// DefaultSynonyms returns the built-in per-property synonym tables used when no
// synonym source is configured. Keys are lower-case raw values.
func DefaultSynonyms() map[string]map[string]string {
	return map[string]map[string]string{
		"material": {
			"ss":              "stainless steel",
			"s/s":             "stainless steel",
			"stainless":       "stainless steel",
			"stainless steel": "stainless steel",
			"a2":              "stainless steel",
			"a4":              "stainless steel 316",
			"cs":              "carbon steel",
			"carbon steel":    "carbon steel",
			"ms":              "mild steel",
			"mild steel":      "mild steel",
			"al":              "aluminium",
			"alu":             "aluminium",
			"aluminum":        "aluminium",
			"aluminium":       "aluminium",
			"br":              "brass",
			"brass":           "brass",
			"fe":              "iron",
			"iron":            "iron",
		},
		"finish": {
			"zp":                 "zinc plated",
			"bzp":                "zinc plated",
			"zinc":               "zinc plated",
			"zinc plated":        "zinc plated",
			"hdg":                "hot dip galvanized",
			"hot dip galvanised": "hot dip galvanized",
			"hot dip galvanized": "hot dip galvanized",
			"galv":               "galvanized",
			"galvanised":         "galvanized",
			"galvanized":         "galvanized",
			"blk":                "black oxide",
			"black oxide":        "black oxide",
			"plain":              "self colour",
			"self colour":        "self colour",
		},
		"grade": {
			"gr8":     "8",
			"grade 8": "8",
			"8.8":     "8.8",
			"gr 8.8":  "8.8",
			"10.9":    "10.9",
			"gr 10.9": "10.9",
			"gr5":     "5",
			"grade 5": "5",
		},
		"colour": {
			"blk":   "black",
			"black": "black",
			"wht":   "white",
			"white": "white",
			"gry":   "grey",
			"gray":  "grey",
			"grey":  "grey",
			"blu":   "blue",
			"blue":  "blue",
			"rd":    "red",
			"red":   "red",
		},
		"thread": {
			"unc":    "coarse",
			"coarse": "coarse",
			"unf":    "fine",
			"fine":   "fine",
			"bsw":    "whitworth",
			"metric": "metric",
		},
	}
}

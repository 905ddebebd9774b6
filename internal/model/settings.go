package model

// DefaultCooldownMinutes is used when no positive cooldown is configured.
const DefaultCooldownMinutes = 3

// Settings holds user preferences. Always fully populated.
type Settings struct {
	CommitmentMode  bool   `json:"commitmentMode"`
	CooldownMinutes int    `json:"cooldownMinutes"`
	HideBalances    bool   `json:"hideBalances"`
	Currency        string `json:"currency"`
	CurrencySymbol  string `json:"currencySymbol"`
	Theme           string `json:"theme"`
	LastSection     string `json:"lastSection"`
}

// DefaultSettings returns the settings of a fresh ledger.
func DefaultSettings() Settings {
	return Settings{
		CommitmentMode:  false,
		CooldownMinutes: DefaultCooldownMinutes,
		HideBalances:    false,
		Currency:        "EUR",
		CurrencySymbol:  "€",
		Theme:           "stake",
		LastSection:     "dashboard",
	}
}

// SettingsPatch is a partial settings update. Nil fields keep their prior value.
type SettingsPatch struct {
	CommitmentMode  *bool
	CooldownMinutes *int
	HideBalances    *bool
	Currency        *string
	CurrencySymbol  *string
	Theme           *string
	LastSection     *string
}

// Apply merges p into s and returns the result.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.CommitmentMode != nil {
		s.CommitmentMode = *p.CommitmentMode
	}
	if p.CooldownMinutes != nil {
		s.CooldownMinutes = *p.CooldownMinutes
	}
	if p.HideBalances != nil {
		s.HideBalances = *p.HideBalances
	}
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.CurrencySymbol != nil {
		s.CurrencySymbol = *p.CurrencySymbol
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.LastSection != nil {
		s.LastSection = *p.LastSection
	}
	return s.normalize()
}

// IsEmpty reports whether the patch changes nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p == SettingsPatch{}
}

// normalize fills blank or out-of-range fields with defaults.
func (s Settings) normalize() Settings {
	d := DefaultSettings()
	if s.CooldownMinutes <= 0 {
		s.CooldownMinutes = d.CooldownMinutes
	}
	if s.Currency == "" {
		s.Currency = d.Currency
	}
	if s.CurrencySymbol == "" {
		s.CurrencySymbol = d.CurrencySymbol
	}
	if s.Theme == "" {
		s.Theme = d.Theme
	}
	if s.LastSection == "" {
		s.LastSection = d.LastSection
	}
	return s
}

// Normalized returns s with defaults filled for any blank field.
func (s Settings) Normalized() Settings {
	return s.normalize()
}

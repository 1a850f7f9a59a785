// Package realms manages realm branding: the icon and the day and night logos.
package realms

import "time"

const (
	IconFromGravatar = "G"
	IconUploaded     = "U"
	LogoDefault      = "D"
	LogoUploaded     = "U"
)

type Realm struct {
	ID               int64     `json:"id"`
	StringID         string    `json:"stringId"`
	Name             string    `json:"name"`
	URL              string    `json:"url"`
	IconSource       string    `json:"iconSource"`
	IconVersion      int       `json:"iconVersion"`
	LogoSource       string    `json:"logoSource"`
	LogoVersion      int       `json:"logoVersion"`
	NightLogoSource  string    `json:"nightLogoSource"`
	NightLogoVersion int       `json:"nightLogoVersion"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Logo returns the source and version of the day or night logo.
func (r Realm) Logo(night bool) (string, int) {
	if night {
		return r.NightLogoSource, r.NightLogoVersion
	}
	return r.LogoSource, r.LogoVersion
}

func (r *Realm) applyDefaults() {
	if r.IconSource == "" {
		r.IconSource = IconFromGravatar
	}
	if r.LogoSource == "" {
		r.LogoSource = LogoDefault
	}
	if r.NightLogoSource == "" {
		r.NightLogoSource = LogoDefault
	}
	for _, v := range []*int{&r.IconVersion, &r.LogoVersion, &r.NightLogoVersion} {
		if *v == 0 {
			*v = 1
		}
	}
}

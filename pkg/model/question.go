package model

// Question is one row of the station questions tab: a Thai prompt with an
// English fallback, keyed by station.
type Question struct {
	Station string `json:"station"`
	TH      string `json:"th"`
	EN      string `json:"en"`
}

// Text prefers the Thai prompt, falling back to English.
func (q Question) Text() string {
	if q.TH != "" {
		return q.TH
	}
	return q.EN
}

package analytics

// DashboardStats aggregates the numbers shown on the admin dashboard.
type DashboardStats struct {
	Posts     PostStats      `json:"posts"`
	Projects  ProjectStats   `json:"projects"`
	Offerings OfferingStats  `json:"offerings"`
	Inbox     map[string]int `json:"inbox"`
	Users     int            `json:"users"`
	Media     int            `json:"media"`
}

type PostStats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Drafts    int `json:"drafts"`
}

type ProjectStats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
}

type OfferingStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

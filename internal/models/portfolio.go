package models

type Bio struct {
	Name         string `json:"name" yaml:"name"`
	Title        string `json:"title" yaml:"title"`
	Summary      string `json:"summary" yaml:"summary"`
	Email        string `json:"email" yaml:"email"`
	LinkedIn     string `json:"linkedin" yaml:"linkedin"`
	GitHub       string `json:"github" yaml:"github"`
	Location     string `json:"location" yaml:"location"`
	Availability string `json:"availability" yaml:"availability"`
}

type Experience struct {
	ID           int      `json:"id" yaml:"id"`
	Role         string   `json:"role" yaml:"role"`
	Company      string   `json:"company" yaml:"company"`
	Period       string   `json:"period" yaml:"period"`
	Description  string   `json:"description" yaml:"description"`
	Achievements []string `json:"achievements" yaml:"achievements"`
	Technologies []string `json:"technologies" yaml:"technologies"`
}

type Project struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	ShortDesc  string   `json:"shortDesc" yaml:"shortDesc"`
	FullDesc   string   `json:"fullDesc,omitempty" yaml:"fullDesc"`
	Tech       []string `json:"tech" yaml:"tech"`
	Features   []string `json:"features,omitempty" yaml:"features"`
	GitHub     string   `json:"github,omitempty" yaml:"github"`
	Demo       string   `json:"demo,omitempty" yaml:"demo"`
	Image      string   `json:"image,omitempty" yaml:"image"`
	Highlights string   `json:"highlights" yaml:"highlights"`
}

type Testimonial struct {
	ID      int    `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Role    string `json:"role" yaml:"role"`
	Company string `json:"company,omitempty" yaml:"company"`
	Text    string `json:"text" yaml:"text"`
	Image   string `json:"image,omitempty" yaml:"image"`
}

// PortfolioData is the payload of GET /api/portfolio-data.
type PortfolioData struct {
	Bio          Bio                 `json:"bio" yaml:"bio"`
	Experience   []Experience        `json:"experience" yaml:"experience"`
	Projects     []Project           `json:"projects" yaml:"projects"`
	Skills       map[string][]string `json:"skills" yaml:"skills"`
	Testimonials []Testimonial       `json:"testimonials" yaml:"testimonials"`
}

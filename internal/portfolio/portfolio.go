package portfolio

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/RichardoC/folio/internal/models"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed portfolio.yaml
var defaultData []byte

// Default returns the embedded site content.
func Default() (*models.PortfolioData, error) {
	return Parse(defaultData)
}

// Load reads site content from path, or the embedded default when path is empty.
func Load(path string) (*models.PortfolioData, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read portfolio file %s", path)
	}
	data, err := Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "portfolio file %s", path)
	}
	return data, nil
}

func Parse(raw []byte) (*models.PortfolioData, error) {
	var data models.PortfolioData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(err, "parse portfolio yaml")
	}
	if strings.TrimSpace(data.Bio.Name) == "" {
		return nil, errors.New("portfolio bio.name is required")
	}
	if data.Experience == nil {
		data.Experience = []models.Experience{}
	}
	if data.Projects == nil {
		data.Projects = []models.Project{}
	}
	if data.Skills == nil {
		data.Skills = map[string][]string{}
	}
	if data.Testimonials == nil {
		data.Testimonials = []models.Testimonial{}
	}
	return &data, nil
}

// AllSkills flattens the skill categories in category name order.
func AllSkills(data *models.PortfolioData) []string {
	categories := make([]string, 0, len(data.Skills))
	for category := range data.Skills {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var skills []string
	for _, category := range categories {
		skills = append(skills, data.Skills[category]...)
	}
	return skills
}

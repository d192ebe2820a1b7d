package testdef

import (
	"context"
	"path"
	"sort"
	"strings"
)

var categoryNames = map[string]string{
	"common":  "Common Training",
	"special": "Special Training",
	"advance": "Advance Training",
}

var categoryOrder = []string{"common", "special", "advance"}

var subcategoryNames = map[string]string{
	"introduction":            "NCC Introduction",
	"national-integration":    "National Integration",
	"drill":                   "Drill",
	"weapon-training":         "Weapon Training",
	"disaster-management":     "Disaster Management",
	"social-awareness":        "Social Awareness & Community Development",
	"health-hygiene":          "Health & Hygiene",
	"environment":             "Environment Awareness & Conservation",
	"adventure":               "Adventure",
	"obstacle-training":       "Obstacle Training",
	"personality-development": "Personality Development & Leadership",
	"orientation":             "Orientation",
	"navigation":              "Navigation",
	"communication":           "Communication",
	"seamanship":              "Seamanship",
	"fire-fighting":           "Fire Fighting & Damage Control",
	"swimming":                "Swimming",
	"ship-modelling":          "Ship Modelling",
}

func CategoryName(id string) string {
	if n, ok := categoryNames[id]; ok {
		return n
	}
	return id
}

func SubcategoryName(id string) string {
	if n, ok := subcategoryNames[id]; ok {
		return n
	}
	return id
}

type CatalogEntry struct {
	Subcategory string `json:"subcategory"`
	Name        string `json:"name"`
	Path        string `json:"path"`
}

type CatalogCategory struct {
	Category string         `json:"category"`
	Name     string         `json:"name"`
	Tests    []CatalogEntry `json:"tests"`
}

type Catalog struct {
	lister Lister
}

// NewCatalog accepts any fetcher; listing only works when it also implements Lister.
func NewCatalog(fetcher Fetcher) *Catalog {
	l, _ := fetcher.(Lister)
	return &Catalog{lister: l}
}

func (c *Catalog) List(ctx context.Context) ([]CatalogCategory, error) {
	byCategory := make(map[string]*CatalogCategory)
	order := make([]string, 0, len(categoryOrder))
	add := func(id string) *CatalogCategory {
		if cat, ok := byCategory[id]; ok {
			return cat
		}
		cat := &CatalogCategory{Category: id, Name: CategoryName(id), Tests: []CatalogEntry{}}
		byCategory[id] = cat
		order = append(order, id)
		return cat
	}
	for _, id := range categoryOrder {
		add(id)
	}

	if c.lister != nil {
		files, err := c.lister.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			category := path.Base(path.Dir(f))
			subcategory := strings.TrimSuffix(path.Base(f), ".json")
			if ValidateParams(Params{Category: category, Subcategory: subcategory}) != nil {
				continue
			}
			cat := add(category)
			cat.Tests = append(cat.Tests, CatalogEntry{
				Subcategory: subcategory,
				Name:        SubcategoryName(subcategory),
				Path:        f,
			})
		}
	}

	out := make([]CatalogCategory, 0, len(order))
	for _, id := range order {
		cat := byCategory[id]
		sort.Slice(cat.Tests, func(i, j int) bool { return cat.Tests[i].Subcategory < cat.Tests[j].Subcategory })
		out = append(out, *cat)
	}
	return out, nil
}

package river

import (
	"fmt"
	"strings"
)

// River is a sacred river a story can be told about.
type River struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SanskritName string `json:"sanskrit_name"`
	Description  string `json:"description"`
	ImagePrompt  string `json:"image_prompt"`
}

// Catalog is the fixed collection of rivers.
type Catalog struct {
	rivers []River
}

func NewCatalog() *Catalog {
	return &Catalog{
		rivers: []River{
			{
				ID:           "ganga",
				Name:         "Ganga",
				SanskritName: "गंगा",
				Description:  "The celestial river that descended from the locks of Shiva.",
				ImagePrompt:  "The majestic River Ganga flowing from the Himalayas, celestial and pure, glowing with divine light in a moonlit night.",
			},
			{
				ID:           "yamuna",
				Name:         "Yamuna",
				SanskritName: "यमुना",
				Description:  "The beloved of Krishna, daughter of the Sun God Surya.",
				ImagePrompt:  "The dark blue waters of Yamuna flowing past ancient temples in Vrindavan, soft twilight, peacocks nearby.",
			},
			{
				ID:           "saraswati",
				Name:         "Saraswati",
				SanskritName: "सरस्वती",
				Description:  "The lost river of wisdom, flowing deep within the earth.",
				ImagePrompt:  "A mystical, invisible river glowing with golden knowledge, flowing through a vedic landscape, ethereal and ancient.",
			},
			{
				ID:           "narmada",
				Name:         "Narmada",
				SanskritName: "नर्मदा",
				Description:  "Born from the sweat of Shiva, the giver of peace.",
				ImagePrompt:  "The rocky gorges of the Narmada river, marble rocks reflecting moonlight, a statue of Shiva in the distance.",
			},
			{
				ID:           "godavari",
				Name:         "Godavari",
				SanskritName: "गोदावरी",
				Description:  "The Ganges of the South, sanctifying the Deccan plateau.",
				ImagePrompt:  "The wide expanse of the Godavari river at sunset, ancient stone steps (ghats) leading to the water, lamps floating.",
			},
			{
				ID:           "kaveri",
				Name:         "Kaveri",
				SanskritName: "कावेरी",
				Description:  "The beautiful garland of the south, manifested by Sage Agastya.",
				ImagePrompt:  "Lush green banks of the Kaveri river flowing through paddy fields and temples of Tamil Nadu.",
			},
		},
	}
}

func (c *Catalog) All() []River {
	cp := make([]River, len(c.rivers))
	copy(cp, c.rivers)
	return cp
}

// Find looks a river up by id or name, case-insensitively.
func (c *Catalog) Find(key string) (River, error) {
	key = strings.TrimSpace(key)
	for _, r := range c.rivers {
		if strings.EqualFold(r.ID, key) || strings.EqualFold(r.Name, key) {
			return r, nil
		}
	}
	return River{}, fmt.Errorf("river %q not found", key)
}

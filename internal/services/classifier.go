package services

import (
	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
	"github.com/tbourn/glpi-dashboard-backend/internal/utils"
)

// LevelClassifier decides a technician's service level. Rules, first match
// wins: membership of a configured level group (the highest such level when
// several match), then the name table, then N1.
type LevelClassifier struct {
	groups map[int]domain.ServiceLevel
	names  map[string]domain.ServiceLevel
}

// NewLevelClassifier builds a classifier from the N1..N4 group ids and a
// name -> level table (as loaded by config.LoadNameTable). Unknown level
// values in the table are ignored.
func NewLevelClassifier(groupIDs [4]int, names map[string]string) *LevelClassifier {
	c := &LevelClassifier{
		groups: make(map[int]domain.ServiceLevel, len(groupIDs)),
		names:  make(map[string]domain.ServiceLevel, len(names)),
	}
	for i, id := range groupIDs {
		if id > 0 {
			c.groups[id] = domain.Levels[i]
		}
	}
	for name, lvl := range names {
		l, err := domain.ParseLevel(lvl)
		if err != nil {
			continue
		}
		if key := utils.LowerTrim(name); key != "" {
			c.names[key] = l
		}
	}
	return c
}

// Classify returns the level of a technician with the given remote group
// memberships and display name, tagged with the rule that decided it.
func (c *LevelClassifier) Classify(groupIDs []int, name string) domain.Classification {
	var best domain.ServiceLevel
	for _, id := range groupIDs {
		if l, ok := c.groups[id]; ok && l.Rank() > best.Rank() {
			best = l
		}
	}
	if best != "" {
		return domain.Classification{Level: best, Source: domain.SourceGroup}
	}
	if l, ok := c.names[utils.LowerTrim(name)]; ok {
		return domain.Classification{Level: l, Source: domain.SourceNameTable}
	}
	return domain.Classification{Level: domain.LevelN1, Source: domain.SourceDefault}
}

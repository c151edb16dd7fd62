// Package domain defines the core types of the dashboard backend: service
// levels and their classification, ticket status buckets, and the dashboard,
// ranking and status payloads returned to HTTP clients. The snapshot model is
// mapped with GORM for persistence.
package domain

import (
	"fmt"
	"strings"
)

// ServiceLevel is an ordered technician tier.
type ServiceLevel string

const (
	LevelN1 ServiceLevel = "N1"
	LevelN2 ServiceLevel = "N2"
	LevelN3 ServiceLevel = "N3"
	LevelN4 ServiceLevel = "N4"
)

// Levels lists every service level in ascending order.
var Levels = []ServiceLevel{LevelN1, LevelN2, LevelN3, LevelN4}

// Rank returns 1..4 for valid levels and 0 otherwise.
func (l ServiceLevel) Rank() int {
	for i, v := range Levels {
		if v == l {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether l is one of N1..N4.
func (l ServiceLevel) Valid() bool { return l.Rank() > 0 }

// ParseLevel accepts "n1", " N2 " and the like.
func ParseLevel(s string) (ServiceLevel, error) {
	l := ServiceLevel(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown service level %q", s)
	}
	return l, nil
}

// ClassificationSource records which rule decided a technician's level.
type ClassificationSource string

const (
	SourceGroup     ClassificationSource = "group"
	SourceNameTable ClassificationSource = "name_table"
	SourceDefault   ClassificationSource = "default"
)

// Classification is the tagged result of level classification.
type Classification struct {
	Level  ServiceLevel         `json:"level"`
	Source ClassificationSource `json:"source"`
}
